// Package notify carries order lifecycle events out of the pipeline. Delivery
// is best effort; the pipeline never depends on a recipient being reachable.
package notify

import "time"

type EventKind string

const (
	EventOrderCreated   EventKind = "order.created"
	EventOrderConfirmed EventKind = "order.confirmed"
	EventOrderCancelled EventKind = "order.cancelled"
	EventOrderRefunded  EventKind = "order.refunded"
	EventOrderStatus    EventKind = "order.status_changed"
	EventPaymentFailed  EventKind = "payment.failed"
)

type OrderEvent struct {
	Kind        EventKind `json:"kind"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	At          time.Time `json:"at"`
}

type Dispatcher interface {
	Notify(userID string, event OrderEvent)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Notify(string, OrderEvent) {}
