package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("ledger_log")

		collection.Fields.Add(
			&core.TextField{
				Name:     "ref",
				Required: true,
			},
			&core.SelectField{
				Name:      "kind",
				Required:  true,
				MaxSelect: 1,
				Values: []string{
					"event_created",
					"event_cancelled",
					"event_completed",
					"earnings_withdrawn",
					"ticket_purchased",
					"ticket_transferred",
					"ticket_cancelled",
					"ticket_refunded",
					"ticket_used",
				},
			},
			&core.NumberField{
				Name:    "event_id",
				OnlyInt: true,
			},
			&core.NumberField{
				Name:    "ticket_id",
				OnlyInt: true,
			},
			&core.TextField{
				Name:     "actor",
				Required: true,
			},
			&core.TextField{
				Name: "counterparty",
			},
			&core.NumberField{
				Name:    "amount",
				OnlyInt: true,
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
		)

		collection.AddIndex("idx_ledger_log_kind", false, "kind", "")
		collection.AddIndex("idx_ledger_log_event", false, "event_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("ledger_log")
		if err != nil {
			return err
		}

		return app.Delete(collection)
	})
}
