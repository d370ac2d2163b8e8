package pricing

import (
	"fmt"
	"math"
	"time"

	"github.com/akm47777/feriwala-backend-new/models"
)

// Line is one cart entry as submitted by the client.
type Line struct {
	ProductID uint
	VariantID *uint
	Quantity  int
}

// Quote is the money breakdown for an order.
// FinalAmount = Subtotal + ShippingCost + Tax - Discount, all rounded to two
// decimal places.
type Quote struct {
	Subtotal     float64 `json:"subtotal"`
	ShippingCost float64 `json:"shipping_cost"`
	Tax          float64 `json:"tax"`
	Discount     float64 `json:"discount"`
	FinalAmount  float64 `json:"final_amount"`
}

type Calculator struct {
	FreeShippingThreshold float64
	FlatShippingRate      float64
	GSTRate               float64
}

func NewCalculator(freeShippingThreshold, flatRate, gstRate float64) *Calculator {
	return &Calculator{
		FreeShippingThreshold: freeShippingThreshold,
		FlatShippingRate:      flatRate,
		GSTRate:               gstRate,
	}
}

// Quote prices the given lines against current product snapshots. The stock
// check here is advisory only; the ledger's atomic reservation is the
// authoritative one, since stock can change between quoting and committing.
func (c *Calculator) Quote(lines []Line, products map[uint]*models.Product, coupon *models.Coupon, now time.Time) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, &ValidationError{Message: "no items in order"}
	}

	var subtotal float64
	for _, line := range lines {
		if line.Quantity <= 0 {
			return Quote{}, &ValidationError{Message: fmt.Sprintf("invalid quantity for product %d", line.ProductID)}
		}
		p, ok := products[line.ProductID]
		if !ok || !p.IsActive {
			return Quote{}, &ValidationError{Message: fmt.Sprintf("product %d is not available", line.ProductID)}
		}
		if p.Stock < line.Quantity {
			return Quote{}, &ValidationError{
				Message: fmt.Sprintf("insufficient stock for %s, available: %d", p.Name, p.Stock),
			}
		}
		subtotal += p.Price * float64(line.Quantity)
	}
	subtotal = round2(subtotal)

	shipping := c.FlatShippingRate
	if subtotal >= c.FreeShippingThreshold {
		shipping = 0
	}

	tax := round2(subtotal * c.GSTRate)

	var discount float64
	if coupon != nil {
		if !coupon.Valid(subtotal, now) {
			return Quote{}, &ValidationError{Message: "coupon " + coupon.Code + " is not applicable"}
		}
		discount = couponDiscount(coupon, subtotal)
	}

	return Quote{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		Tax:          tax,
		Discount:     discount,
		FinalAmount:  round2(subtotal + shipping + tax - discount),
	}, nil
}

// couponDiscount is always bounded by the subtotal.
func couponDiscount(c *models.Coupon, subtotal float64) float64 {
	var d float64
	switch c.DiscountType {
	case models.DiscountPercentage:
		d = subtotal * c.DiscountValue / 100
		if c.MaxDiscount > 0 {
			d = math.Min(d, c.MaxDiscount)
		}
	default:
		d = c.DiscountValue
	}
	return round2(math.Min(d, subtotal))
}

// round2 rounds half-up to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ValidationError marks malformed or unservable input. It carries no state
// change with it.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ValidatePincode checks the six-digit Indian pincode format.
func ValidatePincode(pincode string) bool {
	if len(pincode) != 6 || pincode[0] == '0' {
		return false
	}
	for _, r := range pincode {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// metro pincode prefixes get the faster delivery estimate
var metroPrefixes = []string{"400", "110", "560", "600", "700", "500"}

// EstimatedDelivery returns the expected delivery date for a pincode.
func EstimatedDelivery(pincode string, now time.Time) time.Time {
	for _, prefix := range metroPrefixes {
		if len(pincode) >= 3 && pincode[:3] == prefix {
			return now.AddDate(0, 0, 2)
		}
	}
	return now.AddDate(0, 0, 4)
}
