package model

import "encoding/json"

// WebhookEnvelope is the outer shape of every Polar webhook delivery.
// Data stays raw until the event type is known.
type WebhookEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// EventPayload covers the fields we read across checkout, order and
// subscription events. Metadata is kept loose because Polar round-trips
// whatever the checkout session was created with, under varying spellings.
type EventPayload struct {
	ID                string         `json:"id"`
	Status            string         `json:"status"`
	ProductID         string         `json:"product_id"`
	CustomerID        string         `json:"customer_id"`
	UserID            string         `json:"user_id"`
	SubscriptionID    string         `json:"subscription_id"`
	ReferenceID       string         `json:"reference_id"`
	ExternalReference string         `json:"external_reference"`
	Metadata          map[string]any `json:"metadata"`
}
