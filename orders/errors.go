package orders

import (
	"errors"
	"fmt"

	"github.com/akm47777/feriwala-backend-new/models"
)

// ErrNotFound covers unknown orders and unknown gateway references.
var ErrNotFound = errors.New("order not found")

// ErrInvalidSignature is a hard rejection of a gateway callback; nothing is
// mutated when it is returned.
var ErrInvalidSignature = errors.New("invalid payment signature")

// InvalidTransitionError names the current and the requested state. The order
// is left untouched.
type InvalidTransitionError struct {
	From models.OrderStatus
	To   models.OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition %s -> %s", e.From, e.To)
}

// RefundFailedError means the order is cancelled but the money is still with
// the gateway. It is surfaced for manual retry, never swallowed: the customer
// has already been told the order is cancelled, so the cancellation is not
// reversed.
type RefundFailedError struct {
	OrderNumber string
	Err         error
}

func (e *RefundFailedError) Error() string {
	return fmt.Sprintf("refund failed for order %s: %v", e.OrderNumber, e.Err)
}

func (e *RefundFailedError) Unwrap() error { return e.Err }
