package models

import (
	"time"
)

// Entry kinds, one per committed mutation.
const (
	EntryEventCreated      = "event_created"
	EntryEventCancelled    = "event_cancelled"
	EntryEventCompleted    = "event_completed"
	EntryEarningsWithdrawn = "earnings_withdrawn"
	EntryTicketPurchased   = "ticket_purchased"
	EntryTicketTransferred = "ticket_transferred"
	EntryTicketCancelled   = "ticket_cancelled"
	EntryTicketRefunded    = "ticket_refunded"
	EntryTicketUsed        = "ticket_used"
)

// LedgerEntry describes one committed mutation so indexers and UIs can
// reconstruct history without re-querying full state. TicketID is nil for
// event-level entries; Counterparty is set only for transfers.
type LedgerEntry struct {
	Ref          string    `json:"ref"`
	Kind         string    `json:"kind"`
	EventID      uint64    `json:"event_id"`
	TicketID     *uint64   `json:"ticket_id,omitempty"`
	Actor        string    `json:"actor"`
	Counterparty string    `json:"counterparty,omitempty"`
	Amount       int64     `json:"amount"`
	CreatedAt    time.Time `json:"created_at"`
}
