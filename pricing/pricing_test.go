package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/akm47777/feriwala-backend-new/models"
)

func testCalculator() *Calculator {
	return NewCalculator(499, 50, 0.18)
}

func testProducts() map[uint]*models.Product {
	return map[uint]*models.Product{
		1: {ID: 1, Name: "Kettle", Price: 100, Stock: 5, IsActive: true},
		2: {ID: 2, Name: "Teapot", Price: 250, Stock: 10, IsActive: true},
		3: {ID: 3, Name: "Discontinued", Price: 80, Stock: 3, IsActive: false},
	}
}

func TestQuoteFormula(t *testing.T) {
	calc := testCalculator()
	quote, err := calc.Quote([]Line{{ProductID: 1, Quantity: 2}}, testProducts(), nil, time.Now())
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}

	if quote.Subtotal != 200 {
		t.Errorf("subtotal = %v, want 200", quote.Subtotal)
	}
	if quote.ShippingCost != 50 {
		t.Errorf("shipping = %v, want 50 (below free-shipping threshold)", quote.ShippingCost)
	}
	if quote.Tax != 36 {
		t.Errorf("tax = %v, want 36", quote.Tax)
	}
	if got := quote.Subtotal + quote.ShippingCost + quote.Tax - quote.Discount; quote.FinalAmount != got {
		t.Errorf("final = %v, want subtotal+shipping+tax-discount = %v", quote.FinalAmount, got)
	}
}

func TestQuoteFreeShipping(t *testing.T) {
	calc := testCalculator()
	quote, err := calc.Quote([]Line{{ProductID: 2, Quantity: 2}}, testProducts(), nil, time.Now())
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if quote.ShippingCost != 0 {
		t.Errorf("shipping = %v, want 0 for subtotal %v >= 499", quote.ShippingCost, quote.Subtotal)
	}
}

func TestQuoteInactiveProduct(t *testing.T) {
	calc := testCalculator()
	_, err := calc.Quote([]Line{{ProductID: 3, Quantity: 1}}, testProducts(), nil, time.Now())
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for inactive product, got %v", err)
	}
}

func TestQuoteOverStock(t *testing.T) {
	calc := testCalculator()
	_, err := calc.Quote([]Line{{ProductID: 1, Quantity: 6}}, testProducts(), nil, time.Now())
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for quantity over stock, got %v", err)
	}
}

func TestQuoteUnknownProduct(t *testing.T) {
	calc := testCalculator()
	_, err := calc.Quote([]Line{{ProductID: 99, Quantity: 1}}, testProducts(), nil, time.Now())
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for unknown product, got %v", err)
	}
}

func TestQuoteEmptyCart(t *testing.T) {
	calc := testCalculator()
	if _, err := calc.Quote(nil, testProducts(), nil, time.Now()); err == nil {
		t.Fatal("expected error for empty cart")
	}
}

func TestCouponDiscountBoundedBySubtotal(t *testing.T) {
	calc := testCalculator()
	now := time.Now()
	coupon := &models.Coupon{
		Code:          "BIGFIXED",
		DiscountType:  models.DiscountFixed,
		DiscountValue: 10000,
		ValidFrom:     now.Add(-time.Hour),
		ValidTo:       now.Add(time.Hour),
		IsActive:      true,
	}

	quote, err := calc.Quote([]Line{{ProductID: 1, Quantity: 2}}, testProducts(), coupon, now)
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if quote.Discount != quote.Subtotal {
		t.Errorf("discount = %v, want capped at subtotal %v", quote.Discount, quote.Subtotal)
	}
	if quote.FinalAmount < 0 {
		t.Errorf("final amount went negative: %v", quote.FinalAmount)
	}
}

func TestCouponPercentageWithCap(t *testing.T) {
	calc := testCalculator()
	now := time.Now()
	coupon := &models.Coupon{
		Code:          "TEN",
		DiscountType:  models.DiscountPercentage,
		DiscountValue: 10,
		MaxDiscount:   15,
		ValidFrom:     now.Add(-time.Hour),
		ValidTo:       now.Add(time.Hour),
		IsActive:      true,
	}

	quote, err := calc.Quote([]Line{{ProductID: 1, Quantity: 2}}, testProducts(), coupon, now)
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	// 10% of 200 is 20, capped at 15
	if quote.Discount != 15 {
		t.Errorf("discount = %v, want 15 (max discount cap)", quote.Discount)
	}
}

func TestCouponOutsideWindow(t *testing.T) {
	calc := testCalculator()
	now := time.Now()
	coupon := &models.Coupon{
		Code:          "EXPIRED",
		DiscountType:  models.DiscountFixed,
		DiscountValue: 20,
		ValidFrom:     now.Add(-48 * time.Hour),
		ValidTo:       now.Add(-24 * time.Hour),
		IsActive:      true,
	}

	_, err := calc.Quote([]Line{{ProductID: 1, Quantity: 2}}, testProducts(), coupon, now)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for expired coupon, got %v", err)
	}
}

func TestCouponBelowMinOrder(t *testing.T) {
	calc := testCalculator()
	now := time.Now()
	coupon := &models.Coupon{
		Code:          "MIN500",
		DiscountType:  models.DiscountFixed,
		DiscountValue: 20,
		MinOrder:      500,
		ValidFrom:     now.Add(-time.Hour),
		ValidTo:       now.Add(time.Hour),
		IsActive:      true,
	}

	_, err := calc.Quote([]Line{{ProductID: 1, Quantity: 2}}, testProducts(), coupon, now)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for coupon below min order, got %v", err)
	}
}

func TestValidatePincode(t *testing.T) {
	cases := map[string]bool{
		"400001": true,
		"110092": true,
		"012345": false,
		"4000":   false,
		"40000a": false,
		"":       false,
	}
	for pincode, want := range cases {
		if got := ValidatePincode(pincode); got != want {
			t.Errorf("ValidatePincode(%q) = %v, want %v", pincode, got, want)
		}
	}
}

func TestEstimatedDelivery(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := EstimatedDelivery("400001", now); !got.Equal(now.AddDate(0, 0, 2)) {
		t.Errorf("metro estimate = %v, want +2 days", got)
	}
	if got := EstimatedDelivery("825301", now); !got.Equal(now.AddDate(0, 0, 4)) {
		t.Errorf("non-metro estimate = %v, want +4 days", got)
	}
}
