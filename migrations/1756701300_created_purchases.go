package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		users, err := app.FindCollectionByNameOrId("users")
		if err != nil {
			return err
		}
		events, err := app.FindCollectionByNameOrId("events")
		if err != nil {
			return err
		}

		collection := core.NewBaseCollection("purchases")
		collection.Fields.Add(
			&core.TextField{
				Name:     "order_ref",
				Required: true,
				Max:      40,
			},
			&core.RelationField{
				Name:         "buyer",
				Required:     true,
				CollectionId: users.Id,
				MaxSelect:    1,
			},
			&core.RelationField{
				Name:         "event",
				Required:     true,
				CollectionId: events.Id,
				MaxSelect:    1,
			},
			&core.JSONField{
				Name:    "items",
				MaxSize: 51200,
			},
			&core.NumberField{
				Name: "subtotal_amount",
				Min:  types.Pointer(0.0),
			},
			&core.NumberField{
				Name: "fee",
				Min:  types.Pointer(0.0),
			},
			&core.NumberField{
				Name: "total_amount",
				Min:  types.Pointer(0.0),
			},
			&core.TextField{
				Name:     "currency",
				Required: true,
				Max:      3,
			},
			&core.SelectField{
				Name:      "payment_status",
				Required:  true,
				MaxSelect: 1,
				Values: []string{
					"pending",
					"completed",
					"failed",
					"refunded",
					"cancelled",
				},
			},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values: []string{
					"active",
					"cancelled",
					"refunded",
					"used",
				},
			},
			&core.TextField{
				Name: "payment_method",
				Max:  50,
			},
			&core.TextField{
				Name: "payment_transaction_id",
				Max:  100,
			},
			&core.TextField{
				Name:     "buyer_name",
				Required: true,
				Max:      150,
			},
			&core.TextField{
				Name:     "buyer_email",
				Required: true,
				Max:      150,
			},
			&core.TextField{
				Name:     "buyer_phone",
				Required: true,
				Max:      30,
			},
			&core.JSONField{
				Name:    "qr_payload",
				MaxSize: 51200,
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
			&core.AutodateField{
				Name:     "updated",
				OnCreate: true,
				OnUpdate: true,
			},
		)

		collection.AddIndex("idx_purchases_order_ref", true, "order_ref", "")
		collection.AddIndex("idx_purchases_buyer", false, "buyer", "")
		collection.AddIndex("idx_purchases_pending", false, "payment_status, created", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("purchases")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
