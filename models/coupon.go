package models

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
)

type Coupon struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Code          string       `gorm:"uniqueIndex;not null" json:"code"`
	DiscountType  DiscountType `gorm:"type:VARCHAR(20)" json:"discount_type"`
	DiscountValue float64      `json:"discount_value"`
	MinOrder      float64      `json:"min_order"`
	MaxDiscount   float64      `json:"max_discount"` // 0 = uncapped
	ValidFrom     time.Time    `json:"valid_from"`
	ValidTo       time.Time    `json:"valid_to"`
	IsActive      bool         `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time
}

// Valid reports whether the coupon can be applied to an order of the given
// subtotal at time now.
func (c *Coupon) Valid(subtotal float64, now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidTo) {
		return false
	}
	return subtotal >= c.MinOrder
}
