package handlers

import (
	"net/http"

	"ticket-ledger/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

type EventHandler struct {
	app    *pocketbase.PocketBase
	ledger *services.LedgerService
}

func NewEventHandler(app *pocketbase.PocketBase, ledger *services.LedgerService) *EventHandler {
	return &EventHandler{app: app, ledger: ledger}
}

// CreateEvent - Register a new event, caller becomes the organizer
func (h *EventHandler) CreateEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Name         string          `json:"name"`
		Price        decimal.Decimal `json:"price"`
		TotalTickets int             `json:"total_tickets"`
		MetadataCID  string          `json:"metadata_cid"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	price, ok := amountToUnits(req.Price)
	if !ok {
		return apis.NewBadRequestError("Price must be a whole amount", nil)
	}

	eventID, err := h.ledger.CreateEvent(e.Request.Context(), e.Auth.Id, req.Name, price, req.TotalTickets, req.MetadataCID)
	if err != nil {
		return ledgerError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"event_id":  eventID,
		"organizer": e.Auth.Id,
	})
}

// CancelEvent - Organizer-only terminal cancellation; holders claim refunds
func (h *EventHandler) CancelEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID, err := pathID(e, "eventId")
	if err != nil {
		return err
	}

	if err := h.ledger.CancelEvent(e.Request.Context(), e.Auth.Id, eventID); err != nil {
		return ledgerError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"event_id":  eventID,
		"cancelled": true,
	})
}

// CompleteEvent - Organizer-only terminal completion, unlocks withdrawal
func (h *EventHandler) CompleteEvent(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID, err := pathID(e, "eventId")
	if err != nil {
		return err
	}

	if err := h.ledger.CompleteEvent(e.Request.Context(), e.Auth.Id, eventID); err != nil {
		return ledgerError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"event_id":  eventID,
		"completed": true,
	})
}

// WithdrawEarnings - Move a completed event's escrow to the organizer
func (h *EventHandler) WithdrawEarnings(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID, err := pathID(e, "eventId")
	if err != nil {
		return err
	}

	amount, err := h.ledger.WithdrawEarnings(e.Request.Context(), e.Auth.Id, eventID)
	if err != nil {
		return ledgerError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"event_id": eventID,
		"amount":   amount,
		"balance":  h.ledger.GetBalance(e.Auth.Id),
	})
}

// GetEvent - Public event lookup
func (h *EventHandler) GetEvent(e *core.RequestEvent) error {
	eventID, err := pathID(e, "eventId")
	if err != nil {
		return err
	}

	event, err := h.ledger.GetEvent(eventID)
	if err != nil {
		return ledgerError(err)
	}

	return e.JSON(http.StatusOK, event)
}

// GetEventCount - Total events ever created
func (h *EventHandler) GetEventCount(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{
		"count": h.ledger.GetEventCount(),
	})
}
