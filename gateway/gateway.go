package gateway

import (
	"context"
	"errors"
	"math"
)

// Intent is a remote payment-processor object representing an amount to be
// collected, identified by the gateway's own order id.
type Intent struct {
	GatewayOrderID string `json:"gateway_order_id"`
	Amount         int64  `json:"amount"` // minor units
	Currency       string `json:"currency"`
}

type RefundResult struct {
	RefundID string `json:"refund_id"`
}

// Gateway wraps the external payment processor. Amounts cross this boundary
// in minor currency units only.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinor int64, orderNumber string, notes map[string]string) (*Intent, error)
	VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool
	Refund(ctx context.Context, gatewayPaymentID string, amountMinor int64, notes map[string]string) (*RefundResult, error)
}

// ErrUnavailable means the gateway could not be reached or answered 5xx.
// The caller may retry with the same order; no duplicate order is created.
var ErrUnavailable = errors.New("payment gateway unavailable")

// MinorUnits converts a major-unit amount to minor units, rounding half-up.
// A single rounding rule on our side avoids off-by-one mismatches with the
// gateway's own rounding.
func MinorUnits(amount float64) int64 {
	return int64(math.Floor(amount*100 + 0.5))
}
