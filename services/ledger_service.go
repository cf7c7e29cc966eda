package services

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"ticket-ledger/config"
	"ticket-ledger/internal/status"
	"ticket-ledger/models"
	"ticket-ledger/monitoring"
	"ticket-ledger/utils"
)

// Notifier receives one entry per committed mutation.
type Notifier interface {
	Publish(ctx context.Context, entry *models.LedgerEntry)
}

// LedgerService is the authoritative ticket-issuance ledger. All state lives
// behind one mutex; every operation validates all preconditions before the
// first mutation, so a failed call leaves no partial effect. The in-memory
// tables are the source of truth, with a Redis write-through (best effort
// after commit) and an optional notifier for the audit log.
type LedgerService struct {
	mu sync.Mutex

	events       map[uint64]*models.Event
	tickets      map[uint64]*models.Ticket
	ownerTickets map[string][]uint64 // ticket ids, ascending
	balances     map[string]int64

	eventCounter  uint64
	ticketCounter uint64

	admin    string
	limits   *config.Config
	store    *LedgerStore
	notifier Notifier

	now func() time.Time
}

func NewLedgerService(store *LedgerStore, notifier Notifier, cfg *config.Config) *LedgerService {
	return &LedgerService{
		events:       make(map[uint64]*models.Event),
		tickets:      make(map[uint64]*models.Ticket),
		ownerTickets: make(map[string][]uint64),
		balances:     make(map[string]int64),
		admin:        cfg.LedgerAdmin,
		limits:       cfg,
		store:        store,
		notifier:     notifier,
		now:          time.Now,
	}
}

// LoadFromStore replaces the in-memory state with the persisted snapshot.
// Called once at boot, before any operation runs.
func (s *LedgerService) LoadFromStore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = state.Events
	s.tickets = state.Tickets
	s.balances = state.Balances
	s.eventCounter = state.EventCounter
	s.ticketCounter = state.TicketCounter

	// The owner index is derived state; rebuild it from the ticket table
	// instead of trusting a second persisted copy.
	s.ownerTickets = make(map[string][]uint64)
	for id, ticket := range s.tickets {
		s.ownerTickets[ticket.Owner] = append(s.ownerTickets[ticket.Owner], id)
	}
	for owner := range s.ownerTickets {
		ids := s.ownerTickets[owner]
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}

	return nil
}

// CreateEvent registers a new event and returns its id.
func (s *LedgerService) CreateEvent(ctx context.Context, caller, name string, price int64, totalTickets int, metadataCID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller == "" || name == "" || metadataCID == "" {
		return 0, s.fail("create_event", status.ErrInvalidInput)
	}
	if s.limits.MaxEventNameLength > 0 && len(name) > s.limits.MaxEventNameLength {
		return 0, s.fail("create_event", status.ErrInvalidInput)
	}
	if s.limits.MaxMetadataCIDLength > 0 && len(metadataCID) > s.limits.MaxMetadataCIDLength {
		return 0, s.fail("create_event", status.ErrInvalidInput)
	}
	if totalTickets <= 0 || (s.limits.MaxTicketsPerEvent > 0 && totalTickets > s.limits.MaxTicketsPerEvent) {
		return 0, s.fail("create_event", status.ErrInvalidInput)
	}
	if price < 0 {
		return 0, s.fail("create_event", status.ErrInvalidInput)
	}

	event := &models.Event{
		ID:               s.eventCounter,
		Name:             name,
		Organizer:        caller,
		Price:            price,
		TotalTickets:     totalTickets,
		AvailableTickets: totalTickets,
		MetadataCID:      metadataCID,
		Active:           true,
	}

	s.events[event.ID] = event
	s.eventCounter++

	s.persistEvent(ctx, event)
	s.persistCounters(ctx)

	s.notify(ctx, &models.LedgerEntry{
		Kind:    models.EntryEventCreated,
		EventID: event.ID,
		Actor:   caller,
		Amount:  price,
	})
	monitoring.TrackLedgerOperation("create_event", "success")

	return event.ID, nil
}

// CancelEvent marks an event cancelled. Refunds are pull-based: each holder
// claims via RefundTicket, so cancellation is O(1) however many tickets sold.
func (s *LedgerService) CancelEvent(ctx context.Context, caller string, eventID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return s.fail("cancel_event", status.ErrEventNotFound)
	}
	if event.Organizer != caller {
		return s.fail("cancel_event", status.ErrNotOrganizer)
	}
	if event.Cancelled {
		return s.fail("cancel_event", status.ErrEventCancelled)
	}
	if event.Completed {
		return s.fail("cancel_event", status.ErrEventCompleted)
	}

	event.Cancelled = true

	s.persistEvent(ctx, event)
	s.notify(ctx, &models.LedgerEntry{
		Kind:    models.EntryEventCancelled,
		EventID: eventID,
		Actor:   caller,
	})
	monitoring.TrackLedgerOperation("cancel_event", "success")

	return nil
}

// CompleteEvent marks an event completed, making its escrow withdrawable.
func (s *LedgerService) CompleteEvent(ctx context.Context, caller string, eventID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return s.fail("complete_event", status.ErrEventNotFound)
	}
	if event.Organizer != caller {
		return s.fail("complete_event", status.ErrNotOrganizer)
	}
	if event.Cancelled {
		return s.fail("complete_event", status.ErrEventCancelled)
	}
	if event.Completed {
		return s.fail("complete_event", status.ErrEventCompleted)
	}

	event.Completed = true

	s.persistEvent(ctx, event)
	s.notify(ctx, &models.LedgerEntry{
		Kind:    models.EntryEventCompleted,
		EventID: eventID,
		Actor:   caller,
	})
	monitoring.TrackLedgerOperation("complete_event", "success")

	return nil
}

// WithdrawEarnings moves a completed event's entire escrow to the organizer's
// balance and returns the amount. A second call fails with NothingToWithdraw.
func (s *LedgerService) WithdrawEarnings(ctx context.Context, caller string, eventID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return 0, s.fail("withdraw_earnings", status.ErrEventNotFound)
	}
	if event.Organizer != caller {
		return 0, s.fail("withdraw_earnings", status.ErrNotOrganizer)
	}
	if !event.Completed {
		return 0, s.fail("withdraw_earnings", status.ErrEventNotCompleted)
	}
	if event.EscrowedBalance == 0 {
		return 0, s.fail("withdraw_earnings", status.ErrNothingToWithdraw)
	}

	amount := event.EscrowedBalance
	event.EscrowedBalance = 0
	s.balances[caller] += amount

	s.persistEvent(ctx, event)
	s.persistBalance(ctx, caller)

	s.notify(ctx, &models.LedgerEntry{
		Kind:    models.EntryEarningsWithdrawn,
		EventID: eventID,
		Actor:   caller,
		Amount:  amount,
	})
	monitoring.TrackLedgerOperation("withdraw_earnings", "success")

	return amount, nil
}

// BuyTicket mints a ticket for the caller. Payment must match the price
// exactly; both under- and over-payment are rejected before any state change.
func (s *LedgerService) BuyTicket(ctx context.Context, caller string, eventID uint64, payment int64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller == "" {
		return 0, s.fail("buy_ticket", status.ErrInvalidInput)
	}

	event, ok := s.events[eventID]
	if !ok {
		return 0, s.fail("buy_ticket", status.ErrEventNotFound)
	}
	if event.Cancelled {
		return 0, s.fail("buy_ticket", status.ErrEventCancelled)
	}
	if event.Completed {
		return 0, s.fail("buy_ticket", status.ErrEventCompleted)
	}
	if event.AvailableTickets == 0 {
		return 0, s.fail("buy_ticket", status.ErrSoldOut)
	}
	if payment != event.Price {
		return 0, s.fail("buy_ticket", status.ErrInsufficientPayment)
	}
	if s.limits.MaxTicketsPerUser > 0 && len(s.ownerTickets[caller]) >= s.limits.MaxTicketsPerUser {
		return 0, s.fail("buy_ticket", status.ErrTooManyTickets)
	}

	ticket := &models.Ticket{
		ID:           s.ticketCounter,
		EventID:      eventID,
		Owner:        caller,
		PurchaseTime: s.now().UTC(),
	}

	event.AvailableTickets--
	event.EscrowedBalance += event.Price
	s.tickets[ticket.ID] = ticket
	s.ticketCounter++
	s.indexAdd(caller, ticket.ID)

	s.persistEvent(ctx, event)
	s.persistTicket(ctx, ticket)
	s.persistCounters(ctx)

	s.notify(ctx, &models.LedgerEntry{
		Kind:     models.EntryTicketPurchased,
		EventID:  eventID,
		TicketID: &ticket.ID,
		Actor:    caller,
		Amount:   event.Price,
	})
	monitoring.TrackLedgerOperation("buy_ticket", "success")

	return ticket.ID, nil
}

// TransferTicket moves a ticket to a new holder. Transferring to yourself is
// an accepted no-op. Once the underlying event is cancelled the ticket's only
// remaining right is a refund claim, so transfers are rejected.
func (s *LedgerService) TransferTicket(ctx context.Context, caller string, ticketID uint64, newOwner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[ticketID]
	if !ok {
		return s.fail("transfer_ticket", status.ErrTicketNotFound)
	}
	if ticket.Owner != caller {
		return s.fail("transfer_ticket", status.ErrNotTicketOwner)
	}
	if ticket.IsUsed {
		return s.fail("transfer_ticket", status.ErrTicketUsed)
	}
	if ticket.IsRefunded {
		return s.fail("transfer_ticket", status.ErrTicketRefunded)
	}
	if newOwner == "" {
		return s.fail("transfer_ticket", status.ErrInvalidInput)
	}

	event, ok := s.events[ticket.EventID]
	if !ok {
		return s.fail("transfer_ticket", status.ErrEventNotFound)
	}
	if event.Cancelled {
		return s.fail("transfer_ticket", status.ErrEventCancelled)
	}

	if newOwner == caller {
		monitoring.TrackLedgerOperation("transfer_ticket", "success")
		return nil
	}

	if s.limits.MaxTicketsPerUser > 0 && len(s.ownerTickets[newOwner]) >= s.limits.MaxTicketsPerUser {
		return s.fail("transfer_ticket", status.ErrTooManyTickets)
	}

	s.indexRemove(caller, ticketID)
	s.indexAdd(newOwner, ticketID)
	ticket.Owner = newOwner

	s.persistTicket(ctx, ticket)

	s.notify(ctx, &models.LedgerEntry{
		Kind:         models.EntryTicketTransferred,
		EventID:      ticket.EventID,
		TicketID:     &ticket.ID,
		Actor:        caller,
		Counterparty: newOwner,
	})
	monitoring.TrackLedgerOperation("transfer_ticket", "success")

	return nil
}

// CancelTicket is the holder-initiated cancellation while the event is still
// running: the capacity slot returns to the pool and the price comes back out
// of escrow to the holder's balance.
func (s *LedgerService) CancelTicket(ctx context.Context, caller string, ticketID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[ticketID]
	if !ok {
		return 0, s.fail("cancel_ticket", status.ErrTicketNotFound)
	}
	if ticket.Owner != caller {
		return 0, s.fail("cancel_ticket", status.ErrNotTicketOwner)
	}
	if ticket.IsRefunded {
		return 0, s.fail("cancel_ticket", status.ErrTicketRefunded)
	}
	if ticket.IsUsed {
		return 0, s.fail("cancel_ticket", status.ErrTicketUsed)
	}

	event, ok := s.events[ticket.EventID]
	if !ok {
		return 0, s.fail("cancel_ticket", status.ErrEventNotFound)
	}
	if event.Cancelled {
		// Claim path for cancelled events is RefundTicket.
		return 0, s.fail("cancel_ticket", status.ErrEventCancelled)
	}
	if event.Completed {
		return 0, s.fail("cancel_ticket", status.ErrEventCompleted)
	}
	if event.EscrowedBalance < event.Price {
		return 0, s.fail("cancel_ticket", status.ErrInsufficientEscrow)
	}

	ticket.IsRefunded = true
	event.AvailableTickets++
	event.EscrowedBalance -= event.Price
	s.balances[caller] += event.Price

	s.persistEvent(ctx, event)
	s.persistTicket(ctx, ticket)
	s.persistBalance(ctx, caller)

	s.notify(ctx, &models.LedgerEntry{
		Kind:     models.EntryTicketCancelled,
		EventID:  ticket.EventID,
		TicketID: &ticket.ID,
		Actor:    caller,
		Amount:   event.Price,
	})
	monitoring.TrackLedgerOperation("cancel_ticket", "success")

	return event.Price, nil
}

// RefundTicket is the claim path after the organizer cancelled the event.
// Capacity accounting is untouched: the event is closed to new sales.
func (s *LedgerService) RefundTicket(ctx context.Context, caller string, ticketID uint64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[ticketID]
	if !ok {
		return 0, s.fail("refund_ticket", status.ErrTicketNotFound)
	}
	if ticket.Owner != caller {
		return 0, s.fail("refund_ticket", status.ErrNotTicketOwner)
	}
	if ticket.IsRefunded {
		return 0, s.fail("refund_ticket", status.ErrTicketRefunded)
	}
	// A used ticket has consumed its value; it can never become refunded.
	if ticket.IsUsed {
		return 0, s.fail("refund_ticket", status.ErrTicketUsed)
	}

	event, ok := s.events[ticket.EventID]
	if !ok {
		return 0, s.fail("refund_ticket", status.ErrEventNotFound)
	}
	if !event.Cancelled {
		return 0, s.fail("refund_ticket", status.ErrEventNotCancelled)
	}
	if event.EscrowedBalance < event.Price {
		return 0, s.fail("refund_ticket", status.ErrInsufficientEscrow)
	}

	ticket.IsRefunded = true
	event.EscrowedBalance -= event.Price
	s.balances[caller] += event.Price

	s.persistEvent(ctx, event)
	s.persistTicket(ctx, ticket)
	s.persistBalance(ctx, caller)

	s.notify(ctx, &models.LedgerEntry{
		Kind:     models.EntryTicketRefunded,
		EventID:  ticket.EventID,
		TicketID: &ticket.ID,
		Actor:    caller,
		Amount:   event.Price,
	})
	monitoring.TrackLedgerOperation("refund_ticket", "success")

	return event.Price, nil
}

// UseTicket is the organizer-side redemption at venue entry. The configured
// ledger admin may validate in the organizer's stead. One-way, no reversal.
func (s *LedgerService) UseTicket(ctx context.Context, caller string, ticketID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[ticketID]
	if !ok {
		return s.fail("use_ticket", status.ErrTicketNotFound)
	}

	event, ok := s.events[ticket.EventID]
	if !ok {
		return s.fail("use_ticket", status.ErrEventNotFound)
	}
	if caller != event.Organizer && (s.admin == "" || caller != s.admin) {
		return s.fail("use_ticket", status.ErrNotOrganizer)
	}
	if ticket.IsRefunded {
		return s.fail("use_ticket", status.ErrTicketRefunded)
	}
	if ticket.IsUsed {
		return s.fail("use_ticket", status.ErrTicketUsed)
	}
	if event.Cancelled {
		return s.fail("use_ticket", status.ErrEventCancelled)
	}
	if event.Completed {
		return s.fail("use_ticket", status.ErrEventCompleted)
	}

	ticket.IsUsed = true

	s.persistTicket(ctx, ticket)

	s.notify(ctx, &models.LedgerEntry{
		Kind:     models.EntryTicketUsed,
		EventID:  ticket.EventID,
		TicketID: &ticket.ID,
		Actor:    caller,
	})
	monitoring.TrackLedgerOperation("use_ticket", "success")

	return nil
}

// GetEvent returns a copy of the event record.
func (s *LedgerService) GetEvent(eventID uint64) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return models.Event{}, status.ErrEventNotFound
	}
	return *event, nil
}

// GetTicket returns a copy of the ticket record.
func (s *LedgerService) GetTicket(ticketID uint64) (models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[ticketID]
	if !ok {
		return models.Ticket{}, status.ErrTicketNotFound
	}
	return *ticket, nil
}

// GetMyTickets returns the ids of all tickets held by owner, ascending.
// Served from the owner index, never by scanning the ticket table.
func (s *LedgerService) GetMyTickets(owner string) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.ownerTickets[owner]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

// GetEventCount returns the number of events ever created.
func (s *LedgerService) GetEventCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventCounter
}

// GetTicketCount returns the number of tickets ever minted.
func (s *LedgerService) GetTicketCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticketCounter
}

// GetBalance returns the caller's accumulated refund/withdrawal balance.
func (s *LedgerService) GetBalance(owner string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[owner]
}

// Stats is a point-in-time summary for the admin dashboard and the metrics
// poller.
type Stats struct {
	Events        uint64 `json:"events"`
	Tickets       uint64 `json:"tickets"`
	OpenEvents    int    `json:"open_events"`
	EscrowTotal   int64  `json:"escrow_total"`
	BalancesTotal int64  `json:"balances_total"`
}

func (s *LedgerService) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{
		Events:  s.eventCounter,
		Tickets: s.ticketCounter,
	}
	for _, event := range s.events {
		if !event.Cancelled && !event.Completed {
			stats.OpenEvents++
		}
		stats.EscrowTotal += event.EscrowedBalance
	}
	for _, balance := range s.balances {
		stats.BalancesTotal += balance
	}
	return stats
}

func (s *LedgerService) fail(operation string, err error) error {
	monitoring.TrackLedgerOperation(operation, status.Kind(err))
	return err
}

func (s *LedgerService) indexAdd(owner string, ticketID uint64) {
	ids := s.ownerTickets[owner]
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= ticketID })
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = ticketID
	s.ownerTickets[owner] = ids
}

func (s *LedgerService) indexRemove(owner string, ticketID uint64) {
	ids := s.ownerTickets[owner]
	i := sort.Search(len(ids), func(i int) bool { return ids[i] >= ticketID })
	if i < len(ids) && ids[i] == ticketID {
		s.ownerTickets[owner] = append(ids[:i], ids[i+1:]...)
	}
}

func (s *LedgerService) notify(ctx context.Context, entry *models.LedgerEntry) {
	if s.notifier == nil {
		return
	}
	ref, _ := utils.GenerateCode(8)
	entry.Ref = ref
	entry.CreatedAt = s.now().UTC()
	s.notifier.Publish(ctx, entry)
}

// Write-through persistence. In-memory state stays authoritative: a failed
// Redis write is logged and counted, never rolled back.

func (s *LedgerService) persistEvent(ctx context.Context, event *models.Event) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveEvent(ctx, event); err != nil {
		log.Printf("Error persisting event %d: %v", event.ID, err)
		monitoring.TrackPersistFailure()
	}
}

func (s *LedgerService) persistTicket(ctx context.Context, ticket *models.Ticket) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveTicket(ctx, ticket); err != nil {
		log.Printf("Error persisting ticket %d: %v", ticket.ID, err)
		monitoring.TrackPersistFailure()
	}
}

func (s *LedgerService) persistCounters(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveCounters(ctx, s.eventCounter, s.ticketCounter); err != nil {
		log.Printf("Error persisting counters: %v", err)
		monitoring.TrackPersistFailure()
	}
}

func (s *LedgerService) persistBalance(ctx context.Context, owner string) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveBalance(ctx, owner, s.balances[owner]); err != nil {
		log.Printf("Error persisting balance for %s: %v", owner, err)
		monitoring.TrackPersistFailure()
	}
}
