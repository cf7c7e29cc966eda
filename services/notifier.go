package services

import (
	"context"
	"fmt"
	"log"

	"ticket-ledger/models"

	"github.com/pocketbase/pocketbase/core"
	pubnub "github.com/pubnub/go"
)

// LedgerLogCollection is the append-only audit table behind every committed
// mutation. See the migration that creates it.
const LedgerLogCollection = "ledger_log"

const ledgerChannel = "ledger-events"

// LedgerNotifier fans each committed mutation out to the ledger_log
// collection and to PubNub (topic channel plus per-user channels), so
// indexers and UIs can follow history without polling full state.
type LedgerNotifier struct {
	app    core.App
	pubnub *pubnub.PubNub
}

func NewLedgerNotifier(app core.App, pn *pubnub.PubNub) *LedgerNotifier {
	return &LedgerNotifier{app: app, pubnub: pn}
}

func (n *LedgerNotifier) Publish(ctx context.Context, entry *models.LedgerEntry) {
	n.appendLog(entry)

	if n.pubnub == nil {
		return
	}

	message := map[string]any{
		"ref":      entry.Ref,
		"kind":     entry.Kind,
		"event_id": entry.EventID,
		"actor":    entry.Actor,
		"amount":   entry.Amount,
	}
	if entry.TicketID != nil {
		message["ticket_id"] = *entry.TicketID
	}
	if entry.Counterparty != "" {
		message["counterparty"] = entry.Counterparty
	}

	channels := []string{ledgerChannel, fmt.Sprintf("user-%s", entry.Actor)}
	if entry.Counterparty != "" {
		channels = append(channels, fmt.Sprintf("user-%s", entry.Counterparty))
	}

	// Publishing is fire-and-forget; it must not stall the ledger's
	// single-writer section.
	go func() {
		for _, channel := range channels {
			n.pubnub.Publish().
				Channel(channel).
				Message(message).
				Execute()
		}
	}()
}

func (n *LedgerNotifier) appendLog(entry *models.LedgerEntry) {
	if n.app == nil {
		return
	}

	collection, err := n.app.FindCollectionByNameOrId(LedgerLogCollection)
	if err != nil {
		log.Printf("Error finding %s collection: %v", LedgerLogCollection, err)
		return
	}

	record := core.NewRecord(collection)
	record.Set("ref", entry.Ref)
	record.Set("kind", entry.Kind)
	record.Set("event_id", entry.EventID)
	record.Set("actor", entry.Actor)
	record.Set("amount", entry.Amount)
	if entry.TicketID != nil {
		record.Set("ticket_id", *entry.TicketID)
	}
	if entry.Counterparty != "" {
		record.Set("counterparty", entry.Counterparty)
	}

	if err := n.app.Save(record); err != nil {
		log.Printf("Error appending ledger log entry %s: %v", entry.Ref, err)
	}
}
