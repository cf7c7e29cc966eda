package services

import (
	"context"
	"testing"
	"time"

	"ticket-ledger/config"
	"ticket-ledger/internal/status"
	"ticket-ledger/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		MaxTicketsPerEvent:   1_000_000,
		MaxTicketsPerUser:    1000,
		MaxEventNameLength:   200,
		MaxMetadataCIDLength: 1000,
		LedgerAdmin:          "admin-user",
	}
}

func setupTestLedger() *LedgerService {
	return NewLedgerService(nil, nil, testConfig())
}

// recordingNotifier captures published entries for assertions.
type recordingNotifier struct {
	entries []*models.LedgerEntry
}

func (n *recordingNotifier) Publish(_ context.Context, entry *models.LedgerEntry) {
	n.entries = append(n.entries, entry)
}

func mustCreateEvent(t *testing.T, s *LedgerService, organizer string, price int64, total int) uint64 {
	t.Helper()
	id, err := s.CreateEvent(context.Background(), organizer, "Test Event", price, total, "QmTest123")
	require.NoError(t, err)
	return id
}

func mustBuyTicket(t *testing.T, s *LedgerService, buyer string, eventID uint64, payment int64) uint64 {
	t.Helper()
	id, err := s.BuyTicket(context.Background(), buyer, eventID, payment)
	require.NoError(t, err)
	return id
}

func TestLedgerService_CreateEvent(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	eventID, err := service.CreateEvent(ctx, "org-1", "Test Event", 1000, 100, "QmTest123")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), eventID)

	event, err := service.GetEvent(eventID)
	require.NoError(t, err)
	assert.Equal(t, "Test Event", event.Name)
	assert.Equal(t, "org-1", event.Organizer)
	assert.Equal(t, int64(1000), event.Price)
	assert.Equal(t, 100, event.TotalTickets)
	assert.Equal(t, 100, event.AvailableTickets)
	assert.Equal(t, "QmTest123", event.MetadataCID)
	assert.True(t, event.Active)
	assert.False(t, event.Cancelled)
	assert.False(t, event.Completed)
	assert.Equal(t, int64(0), event.EscrowedBalance)

	secondID, err := service.CreateEvent(ctx, "org-2", "Second Event", 0, 5, "QmTest456")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), secondID)
	assert.Equal(t, uint64(2), service.GetEventCount())
}

func TestLedgerService_CreateEvent_Validation(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	longName := make([]byte, 201)
	for i := range longName {
		longName[i] = 'a'
	}

	cases := []struct {
		name         string
		caller       string
		eventName    string
		price        int64
		totalTickets int
		metadataCID  string
	}{
		{"empty caller", "", "Event", 10, 5, "QmX"},
		{"empty name", "org-1", "", 10, 5, "QmX"},
		{"name too long", "org-1", string(longName), 10, 5, "QmX"},
		{"empty cid", "org-1", "Event", 10, 5, ""},
		{"zero tickets", "org-1", "Event", 10, 0, "QmX"},
		{"negative tickets", "org-1", "Event", 10, -1, "QmX"},
		{"negative price", "org-1", "Event", -1, 5, "QmX"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.CreateEvent(ctx, tc.caller, tc.eventName, tc.price, tc.totalTickets, tc.metadataCID)
			assert.ErrorIs(t, err, status.ErrInvalidInput)
		})
	}

	// Nothing was created by the failed attempts.
	assert.Equal(t, uint64(0), service.GetEventCount())
}

func TestLedgerService_CreateEvent_CapacityLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTicketsPerEvent = 10
	service := NewLedgerService(nil, nil, cfg)

	_, err := service.CreateEvent(context.Background(), "org-1", "Event", 10, 11, "QmX")
	assert.ErrorIs(t, err, status.ErrInvalidInput)

	_, err = service.CreateEvent(context.Background(), "org-1", "Event", 10, 10, "QmX")
	assert.NoError(t, err)
}

func TestLedgerService_BuyTicket_ExactPaymentScenario(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 50, 2)

	// Exact payment mints ticket #0.
	ticketID, err := service.BuyTicket(ctx, "alice", eventID, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), ticketID)

	event, _ := service.GetEvent(eventID)
	assert.Equal(t, 1, event.AvailableTickets)
	assert.Equal(t, int64(50), event.EscrowedBalance)

	// Underpayment is rejected with no state change.
	_, err = service.BuyTicket(ctx, "bob", eventID, 49)
	assert.ErrorIs(t, err, status.ErrInsufficientPayment)

	event, _ = service.GetEvent(eventID)
	assert.Equal(t, 1, event.AvailableTickets)
	assert.Equal(t, int64(50), event.EscrowedBalance)
	assert.Equal(t, uint64(1), service.GetTicketCount())
	assert.Empty(t, service.GetMyTickets("bob"))

	// Overpayment is rejected the same way.
	_, err = service.BuyTicket(ctx, "bob", eventID, 51)
	assert.ErrorIs(t, err, status.ErrInsufficientPayment)

	// Last ticket sells with exact payment.
	ticketID, err = service.BuyTicket(ctx, "bob", eventID, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ticketID)

	event, _ = service.GetEvent(eventID)
	assert.Equal(t, 0, event.AvailableTickets)
	assert.Equal(t, int64(100), event.EscrowedBalance)

	// Sold out beats payment checking, whatever the amount.
	_, err = service.BuyTicket(ctx, "carol", eventID, 50)
	assert.ErrorIs(t, err, status.ErrSoldOut)
	_, err = service.BuyTicket(ctx, "carol", eventID, 1)
	assert.ErrorIs(t, err, status.ErrSoldOut)
}

func TestLedgerService_BuyTicket_FreeEvent(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 0, 3)

	_, err := service.BuyTicket(ctx, "alice", eventID, 0)
	assert.NoError(t, err)

	// Exact match still binds for free events.
	_, err = service.BuyTicket(ctx, "bob", eventID, 1)
	assert.ErrorIs(t, err, status.ErrInsufficientPayment)

	event, _ := service.GetEvent(eventID)
	assert.Equal(t, int64(0), event.EscrowedBalance)
}

func TestLedgerService_BuyTicket_EventStates(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	_, err := service.BuyTicket(ctx, "alice", 42, 50)
	assert.ErrorIs(t, err, status.ErrEventNotFound)

	cancelledID := mustCreateEvent(t, service, "org-1", 50, 2)
	require.NoError(t, service.CancelEvent(ctx, "org-1", cancelledID))
	_, err = service.BuyTicket(ctx, "alice", cancelledID, 50)
	assert.ErrorIs(t, err, status.ErrEventCancelled)

	completedID := mustCreateEvent(t, service, "org-1", 50, 2)
	require.NoError(t, service.CompleteEvent(ctx, "org-1", completedID))
	_, err = service.BuyTicket(ctx, "alice", completedID, 50)
	assert.ErrorIs(t, err, status.ErrEventCompleted)
}

func TestLedgerService_BuyTicket_HolderCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTicketsPerUser = 2
	service := NewLedgerService(nil, nil, cfg)
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 10, 5)
	mustBuyTicket(t, service, "alice", eventID, 10)
	mustBuyTicket(t, service, "alice", eventID, 10)

	_, err := service.BuyTicket(ctx, "alice", eventID, 10)
	assert.ErrorIs(t, err, status.ErrTooManyTickets)

	// Another buyer is unaffected.
	_, err = service.BuyTicket(ctx, "bob", eventID, 10)
	assert.NoError(t, err)
}

func TestLedgerService_BuyTicket_PurchaseTime(t *testing.T) {
	service := setupTestLedger()
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	eventID := mustCreateEvent(t, service, "org-1", 50, 1)
	ticketID := mustBuyTicket(t, service, "alice", eventID, 50)

	ticket, err := service.GetTicket(ticketID)
	require.NoError(t, err)
	assert.Equal(t, fixed, ticket.PurchaseTime)
}

func TestLedgerService_TransferTicket(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 50, 5)
	ticketID := mustBuyTicket(t, service, "alice", eventID, 50)

	// Only the current owner may transfer.
	err := service.TransferTicket(ctx, "bob", ticketID, "carol")
	assert.ErrorIs(t, err, status.ErrNotTicketOwner)

	require.NoError(t, service.TransferTicket(ctx, "alice", ticketID, "bob"))

	ticket, _ := service.GetTicket(ticketID)
	assert.Equal(t, "bob", ticket.Owner)
	assert.Empty(t, service.GetMyTickets("alice"))
	assert.Equal(t, []uint64{ticketID}, service.GetMyTickets("bob"))

	// After the transfer, B can cancel but A cannot.
	_, err = service.CancelTicket(ctx, "alice", ticketID)
	assert.ErrorIs(t, err, status.ErrNotTicketOwner)
	_, err = service.CancelTicket(ctx, "bob", ticketID)
	assert.NoError(t, err)
}

func TestLedgerService_TransferTicket_SelfTransferNoop(t *testing.T) {
	service := setupTestLedger()
	notifier := &recordingNotifier{}
	service.notifier = notifier
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 50, 5)
	ticketID := mustBuyTicket(t, service, "alice", eventID, 50)
	published := len(notifier.entries)

	require.NoError(t, service.TransferTicket(ctx, "alice", ticketID, "alice"))

	ticket, _ := service.GetTicket(ticketID)
	assert.Equal(t, "alice", ticket.Owner)
	assert.Equal(t, []uint64{ticketID}, service.GetMyTickets("alice"))
	// No entry for a no-op.
	assert.Len(t, notifier.entries, published)
}

func TestLedgerService_TransferTicket_Rejections(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 50, 5)

	usedID := mustBuyTicket(t, service, "alice", eventID, 50)
	require.NoError(t, service.UseTicket(ctx, "org-1", usedID))
	assert.ErrorIs(t, service.TransferTicket(ctx, "alice", usedID, "bob"), status.ErrTicketUsed)

	refundedID := mustBuyTicket(t, service, "alice", eventID, 50)
	_, err := service.CancelTicket(ctx, "alice", refundedID)
	require.NoError(t, err)
	assert.ErrorIs(t, service.TransferTicket(ctx, "alice", refundedID, "bob"), status.ErrTicketRefunded)

	assert.ErrorIs(t, service.TransferTicket(ctx, "alice", 99, "bob"), status.ErrTicketNotFound)

	heldID := mustBuyTicket(t, service, "alice", eventID, 50)
	assert.ErrorIs(t, service.TransferTicket(ctx, "alice", heldID, ""), status.ErrInvalidInput)

	require.NoError(t, service.CancelEvent(ctx, "org-1", eventID))
	assert.ErrorIs(t, service.TransferTicket(ctx, "alice", heldID, "bob"), status.ErrEventCancelled)
}

func TestLedgerService_TransferTicket_RecipientCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxTicketsPerUser = 1
	service := NewLedgerService(nil, nil, cfg)
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 10, 5)
	aliceTicket := mustBuyTicket(t, service, "alice", eventID, 10)
	mustBuyTicket(t, service, "bob", eventID, 10)

	err := service.TransferTicket(ctx, "alice", aliceTicket, "bob")
	assert.ErrorIs(t, err, status.ErrTooManyTickets)
}

func TestLedgerService_CancelEvent(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 50, 2)

	assert.ErrorIs(t, service.CancelEvent(ctx, "org-1", 42), status.ErrEventNotFound)
	assert.ErrorIs(t, service.CancelEvent(ctx, "mallory", eventID), status.ErrNotOrganizer)

	require.NoError(t, service.CancelEvent(ctx, "org-1", eventID))

	event, _ := service.GetEvent(eventID)
	assert.True(t, event.Cancelled)
	assert.False(t, event.Completed)

	// Idempotent-safe: the second call fails, the flag stays set once.
	assert.ErrorIs(t, service.CancelEvent(ctx, "org-1", eventID), status.ErrEventCancelled)

	event, _ = service.GetEvent(eventID)
	assert.True(t, event.Cancelled)
	assert.False(t, event.Completed)
}

func TestLedgerService_CompleteEvent(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 50, 2)

	assert.ErrorIs(t, service.CompleteEvent(ctx, "mallory", eventID), status.ErrNotOrganizer)

	require.NoError(t, service.CompleteEvent(ctx, "org-1", eventID))
	assert.ErrorIs(t, service.CompleteEvent(ctx, "org-1", eventID), status.ErrEventCompleted)

	// Terminal flags are mutually exclusive.
	assert.ErrorIs(t, service.CancelEvent(ctx, "org-1", eventID), status.ErrEventCompleted)

	event, _ := service.GetEvent(eventID)
	assert.True(t, event.Completed)
	assert.False(t, event.Cancelled)

	cancelledID := mustCreateEvent(t, service, "org-1", 50, 2)
	require.NoError(t, service.CancelEvent(ctx, "org-1", cancelledID))
	assert.ErrorIs(t, service.CompleteEvent(ctx, "org-1", cancelledID), status.ErrEventCancelled)
}

func TestLedgerService_WithdrawEarnings(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 50, 2)
	mustBuyTicket(t, service, "alice", eventID, 50)
	mustBuyTicket(t, service, "bob", eventID, 50)

	_, err := service.WithdrawEarnings(ctx, "org-1", eventID)
	assert.ErrorIs(t, err, status.ErrEventNotCompleted)

	require.NoError(t, service.CompleteEvent(ctx, "org-1", eventID))

	_, err = service.WithdrawEarnings(ctx, "mallory", eventID)
	assert.ErrorIs(t, err, status.ErrNotOrganizer)

	amount, err := service.WithdrawEarnings(ctx, "org-1", eventID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), amount)
	assert.Equal(t, int64(100), service.GetBalance("org-1"))

	event, _ := service.GetEvent(eventID)
	assert.Equal(t, int64(0), event.EscrowedBalance)

	// Second withdrawal surfaces the caller mistake.
	_, err = service.WithdrawEarnings(ctx, "org-1", eventID)
	assert.ErrorIs(t, err, status.ErrNothingToWithdraw)
}

func TestLedgerService_CancelTicket(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 50, 2)
	ticketID := mustBuyTicket(t, service, "alice", eventID, 50)

	eventBefore, _ := service.GetEvent(eventID)
	assert.Equal(t, 1, eventBefore.AvailableTickets)

	amount, err := service.CancelTicket(ctx, "alice", ticketID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), amount)
	assert.Equal(t, int64(50), service.GetBalance("alice"))

	ticket, _ := service.GetTicket(ticketID)
	assert.True(t, ticket.IsRefunded)
	assert.False(t, ticket.IsUsed)

	// The capacity slot returns to the pool.
	eventAfter, _ := service.GetEvent(eventID)
	assert.Equal(t, 2, eventAfter.AvailableTickets)
	assert.Equal(t, int64(0), eventAfter.EscrowedBalance)

	// The slot is sellable again.
	_, err = service.BuyTicket(ctx, "bob", eventID, 50)
	assert.NoError(t, err)

	_, err = service.CancelTicket(ctx, "alice", ticketID)
	assert.ErrorIs(t, err, status.ErrTicketRefunded)
}

func TestLedgerService_CancelTicket_Rejections(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	_, err := service.CancelTicket(ctx, "alice", 7)
	assert.ErrorIs(t, err, status.ErrTicketNotFound)

	usedEventID := mustCreateEvent(t, service, "org-1", 50, 2)
	usedID := mustBuyTicket(t, service, "alice", usedEventID, 50)
	require.NoError(t, service.UseTicket(ctx, "org-1", usedID))
	_, err = service.CancelTicket(ctx, "alice", usedID)
	assert.ErrorIs(t, err, status.ErrTicketUsed)

	completedEventID := mustCreateEvent(t, service, "org-1", 50, 2)
	completedTicket := mustBuyTicket(t, service, "alice", completedEventID, 50)
	require.NoError(t, service.CompleteEvent(ctx, "org-1", completedEventID))
	_, err = service.CancelTicket(ctx, "alice", completedTicket)
	assert.ErrorIs(t, err, status.ErrEventCompleted)

	cancelledEventID := mustCreateEvent(t, service, "org-1", 50, 2)
	cancelledTicket := mustBuyTicket(t, service, "alice", cancelledEventID, 50)
	require.NoError(t, service.CancelEvent(ctx, "org-1", cancelledEventID))
	_, err = service.CancelTicket(ctx, "alice", cancelledTicket)
	assert.ErrorIs(t, err, status.ErrEventCancelled)
}

func TestLedgerService_RefundTicket(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 50, 2)
	ticketID := mustBuyTicket(t, service, "alice", eventID, 50)

	// Refund is the claim path for cancelled events only.
	_, err := service.RefundTicket(ctx, "alice", ticketID)
	assert.ErrorIs(t, err, status.ErrEventNotCancelled)

	require.NoError(t, service.CancelEvent(ctx, "org-1", eventID))

	_, err = service.RefundTicket(ctx, "bob", ticketID)
	assert.ErrorIs(t, err, status.ErrNotTicketOwner)

	availableBefore := func() int {
		event, _ := service.GetEvent(eventID)
		return event.AvailableTickets
	}()

	amount, err := service.RefundTicket(ctx, "alice", ticketID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), amount)
	assert.Equal(t, int64(50), service.GetBalance("alice"))

	ticket, _ := service.GetTicket(ticketID)
	assert.True(t, ticket.IsRefunded)

	event, _ := service.GetEvent(eventID)
	assert.Equal(t, int64(0), event.EscrowedBalance)
	// Capacity accounting is untouched on the refund path.
	assert.Equal(t, availableBefore, event.AvailableTickets)

	// Double refunds never pay twice.
	_, err = service.RefundTicket(ctx, "alice", ticketID)
	assert.ErrorIs(t, err, status.ErrTicketRefunded)
	assert.Equal(t, int64(50), service.GetBalance("alice"))
}

func TestLedgerService_RefundTicket_UsedTicket(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 50, 2)
	ticketID := mustBuyTicket(t, service, "alice", eventID, 50)

	require.NoError(t, service.UseTicket(ctx, "org-1", ticketID))
	require.NoError(t, service.CancelEvent(ctx, "org-1", eventID))

	// A used ticket can never become refunded, even after cancellation.
	_, err := service.RefundTicket(ctx, "alice", ticketID)
	assert.ErrorIs(t, err, status.ErrTicketUsed)

	ticket, _ := service.GetTicket(ticketID)
	assert.True(t, ticket.IsUsed)
	assert.False(t, ticket.IsRefunded)
}

func TestLedgerService_UseTicket(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 50, 3)
	ticketID := mustBuyTicket(t, service, "alice", eventID, 50)

	// The holder cannot validate their own ticket.
	assert.ErrorIs(t, service.UseTicket(ctx, "alice", ticketID), status.ErrNotOrganizer)

	require.NoError(t, service.UseTicket(ctx, "org-1", ticketID))

	ticket, _ := service.GetTicket(ticketID)
	assert.True(t, ticket.IsUsed)

	// One-way gate.
	assert.ErrorIs(t, service.UseTicket(ctx, "org-1", ticketID), status.ErrTicketUsed)

	// The configured admin may validate in the organizer's stead.
	adminTicket := mustBuyTicket(t, service, "bob", eventID, 50)
	assert.NoError(t, service.UseTicket(ctx, "admin-user", adminTicket))

	refundedTicket := mustBuyTicket(t, service, "carol", eventID, 50)
	_, err := service.CancelTicket(ctx, "carol", refundedTicket)
	require.NoError(t, err)
	assert.ErrorIs(t, service.UseTicket(ctx, "org-1", refundedTicket), status.ErrTicketRefunded)
}

func TestLedgerService_UseTicket_EventStates(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	cancelledEventID := mustCreateEvent(t, service, "org-1", 50, 2)
	cancelledTicket := mustBuyTicket(t, service, "alice", cancelledEventID, 50)
	require.NoError(t, service.CancelEvent(ctx, "org-1", cancelledEventID))
	assert.ErrorIs(t, service.UseTicket(ctx, "org-1", cancelledTicket), status.ErrEventCancelled)

	completedEventID := mustCreateEvent(t, service, "org-1", 50, 2)
	completedTicket := mustBuyTicket(t, service, "alice", completedEventID, 50)
	require.NoError(t, service.CompleteEvent(ctx, "org-1", completedEventID))
	assert.ErrorIs(t, service.UseTicket(ctx, "org-1", completedTicket), status.ErrEventCompleted)
}

func TestLedgerService_Queries(t *testing.T) {
	service := setupTestLedger()

	_, err := service.GetEvent(0)
	assert.ErrorIs(t, err, status.ErrEventNotFound)
	_, err = service.GetTicket(0)
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
	assert.Empty(t, service.GetMyTickets("alice"))
	assert.Equal(t, int64(0), service.GetBalance("alice"))

	eventID := mustCreateEvent(t, service, "org-1", 10, 5)
	first := mustBuyTicket(t, service, "alice", eventID, 10)
	mustBuyTicket(t, service, "bob", eventID, 10)
	third := mustBuyTicket(t, service, "alice", eventID, 10)

	ids := service.GetMyTickets("alice")
	assert.Equal(t, []uint64{first, third}, ids)

	// Callers get a copy, not the live index.
	ids[0] = 999
	assert.Equal(t, []uint64{first, third}, service.GetMyTickets("alice"))

	assert.Equal(t, uint64(1), service.GetEventCount())
	assert.Equal(t, uint64(3), service.GetTicketCount())
}

func TestLedgerService_CapacityInvariant(t *testing.T) {
	service := setupTestLedger()
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 10, 3)

	check := func() {
		event, err := service.GetEvent(eventID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, event.AvailableTickets, 0)
		assert.LessOrEqual(t, event.AvailableTickets, event.TotalTickets)
		assert.GreaterOrEqual(t, event.EscrowedBalance, int64(0))
	}

	t1 := mustBuyTicket(t, service, "alice", eventID, 10)
	check()
	mustBuyTicket(t, service, "bob", eventID, 10)
	check()
	_, err := service.CancelTicket(ctx, "alice", t1)
	require.NoError(t, err)
	check()
	mustBuyTicket(t, service, "carol", eventID, 10)
	check()
	mustBuyTicket(t, service, "dave", eventID, 10)
	check()
	_, err = service.BuyTicket(ctx, "erin", eventID, 10)
	assert.ErrorIs(t, err, status.ErrSoldOut)
	check()
}

func TestLedgerService_NotifierEntries(t *testing.T) {
	service := setupTestLedger()
	notifier := &recordingNotifier{}
	service.notifier = notifier
	ctx := context.Background()

	eventID := mustCreateEvent(t, service, "org-1", 50, 2)
	ticketID := mustBuyTicket(t, service, "alice", eventID, 50)
	require.NoError(t, service.TransferTicket(ctx, "alice", ticketID, "bob"))
	require.NoError(t, service.CancelEvent(ctx, "org-1", eventID))
	_, err := service.RefundTicket(ctx, "bob", ticketID)
	require.NoError(t, err)

	// A failed operation never emits an entry.
	_, err = service.RefundTicket(ctx, "bob", ticketID)
	assert.ErrorIs(t, err, status.ErrTicketRefunded)

	require.Len(t, notifier.entries, 5)

	kinds := make([]string, len(notifier.entries))
	for i, entry := range notifier.entries {
		kinds[i] = entry.Kind
		assert.NotEmpty(t, entry.Ref)
		assert.False(t, entry.CreatedAt.IsZero())
	}
	assert.Equal(t, []string{
		models.EntryEventCreated,
		models.EntryTicketPurchased,
		models.EntryTicketTransferred,
		models.EntryEventCancelled,
		models.EntryTicketRefunded,
	}, kinds)

	transfer := notifier.entries[2]
	assert.Equal(t, "alice", transfer.Actor)
	assert.Equal(t, "bob", transfer.Counterparty)
	require.NotNil(t, transfer.TicketID)
	assert.Equal(t, ticketID, *transfer.TicketID)

	refund := notifier.entries[4]
	assert.Equal(t, int64(50), refund.Amount)
	assert.Equal(t, "bob", refund.Actor)
}
