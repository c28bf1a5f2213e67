package model

import "encoding/json"

// Wire types for the payment processor's webhook payloads. Only the fields
// the fulfillment core reads are mapped; everything else in the payload is
// ignored on unmarshal.

type ProcessorMetadata struct {
	OrderID string `json:"order_id"`
}

type ProcessorTotalDetails struct {
	AmountShipping int64 `json:"amount_shipping"`
	AmountTax      int64 `json:"amount_tax"`
}

// ProcessorSession is a checkout session as carried inside
// checkout.session.completed / checkout.session.expired events.
// Amounts are minor units.
type ProcessorSession struct {
	ID             string                `json:"id"`
	PaymentIntent  string                `json:"payment_intent"`
	PaymentStatus  string                `json:"payment_status"`
	Currency       string                `json:"currency"`
	AmountSubtotal int64                 `json:"amount_subtotal"`
	AmountTotal    int64                 `json:"amount_total"`
	TotalDetails   ProcessorTotalDetails `json:"total_details"`
	Metadata       ProcessorMetadata     `json:"metadata"`
}

// ProcessorCharge is the resource of a charge.refunded event.
type ProcessorCharge struct {
	ID             string `json:"id"`
	PaymentIntent  string `json:"payment_intent"`
	AmountRefunded int64  `json:"amount_refunded"`
	Refunded       bool   `json:"refunded"`
}

// ProcessorEvent is the envelope common to all processor webhook events.
// Data.Object is decoded a second time into the event-type-specific struct.
type ProcessorEvent struct {
	ID      string             `json:"id"`
	Type    string             `json:"type"`
	Created int64              `json:"created"`
	Data    ProcessorEventData `json:"data"`
}

type ProcessorEventData struct {
	Object json.RawMessage `json:"object"`
}
