package handlers

import (
	"net/http"

	"ticket-ledger/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

type TicketHandler struct {
	app    *pocketbase.PocketBase
	ledger *services.LedgerService
}

func NewTicketHandler(app *pocketbase.PocketBase, ledger *services.LedgerService) *TicketHandler {
	return &TicketHandler{app: app, ledger: ledger}
}

// BuyTicket - Mint a ticket; payment must match the event price exactly
func (h *TicketHandler) BuyTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		EventID       uint64          `json:"event_id"`
		PaymentAmount decimal.Decimal `json:"payment_amount"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	payment, ok := amountToUnits(req.PaymentAmount)
	if !ok {
		return apis.NewBadRequestError("Payment must be a whole amount", nil)
	}

	ticketID, err := h.ledger.BuyTicket(e.Request.Context(), e.Auth.Id, req.EventID, payment)
	if err != nil {
		return ledgerError(err)
	}

	ticket, err := h.ledger.GetTicket(ticketID)
	if err != nil {
		return ledgerError(err)
	}

	return e.JSON(http.StatusOK, ticket)
}

// GetTicket - Public ticket lookup
func (h *TicketHandler) GetTicket(e *core.RequestEvent) error {
	ticketID, err := pathID(e, "ticketId")
	if err != nil {
		return err
	}

	ticket, err := h.ledger.GetTicket(ticketID)
	if err != nil {
		return ledgerError(err)
	}

	return e.JSON(http.StatusOK, ticket)
}

// GetTicketCount - Total tickets ever minted
func (h *TicketHandler) GetTicketCount(e *core.RequestEvent) error {
	return e.JSON(http.StatusOK, map[string]any{
		"count": h.ledger.GetTicketCount(),
	})
}

// TransferTicket - Move a held ticket to another identity
func (h *TicketHandler) TransferTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticketID, err := pathID(e, "ticketId")
	if err != nil {
		return err
	}

	var req struct {
		To string `json:"to"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	if err := h.ledger.TransferTicket(e.Request.Context(), e.Auth.Id, ticketID, req.To); err != nil {
		return ledgerError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ticket_id": ticketID,
		"owner":     req.To,
	})
}

// CancelTicket - Holder-initiated cancellation with refund while the event
// is still running
func (h *TicketHandler) CancelTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticketID, err := pathID(e, "ticketId")
	if err != nil {
		return err
	}

	amount, err := h.ledger.CancelTicket(e.Request.Context(), e.Auth.Id, ticketID)
	if err != nil {
		return ledgerError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ticket_id": ticketID,
		"refunded":  amount,
		"balance":   h.ledger.GetBalance(e.Auth.Id),
	})
}

// RefundTicket - Claim path after the organizer cancelled the event
func (h *TicketHandler) RefundTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticketID, err := pathID(e, "ticketId")
	if err != nil {
		return err
	}

	amount, err := h.ledger.RefundTicket(e.Request.Context(), e.Auth.Id, ticketID)
	if err != nil {
		return ledgerError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ticket_id": ticketID,
		"refunded":  amount,
		"balance":   h.ledger.GetBalance(e.Auth.Id),
	})
}

// UseTicket - Organizer-side redemption at venue entry
func (h *TicketHandler) UseTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticketID, err := pathID(e, "ticketId")
	if err != nil {
		return err
	}

	if err := h.ledger.UseTicket(e.Request.Context(), e.Auth.Id, ticketID); err != nil {
		return ledgerError(err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"ticket_id": ticketID,
		"used":      true,
	})
}

// GetMyTickets - Ticket ids held by the caller, served from the owner index
func (h *TicketHandler) GetMyTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ids := h.ledger.GetMyTickets(e.Auth.Id)

	return e.JSON(http.StatusOK, map[string]any{
		"owner":      e.Auth.Id,
		"ticket_ids": ids,
	})
}

// GetBalance - Caller's accumulated refund/withdrawal balance
func (h *TicketHandler) GetBalance(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"owner":   e.Auth.Id,
		"balance": h.ledger.GetBalance(e.Auth.Id),
	})
}
