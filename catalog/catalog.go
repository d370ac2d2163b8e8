// Package catalog gives the order pipeline its read-only view of products
// and coupons. Writes to the catalog happen elsewhere; the pipeline only ever
// mutates stock, and it does that through the inventory ledger.
package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/akm47777/feriwala-backend-new/models"
)

// ProductReader loads point-in-time product snapshots for pricing. Snapshots
// may lag actual stock; the ledger stays authoritative.
type ProductReader interface {
	Snapshots(ctx context.Context, ids []uint) (map[uint]*models.Product, error)
}

// CouponReader resolves a coupon code, nil when the code is unknown.
type CouponReader interface {
	ByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (c *Gorm) Snapshots(ctx context.Context, ids []uint) (map[uint]*models.Product, error) {
	var products []models.Product
	if err := c.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]*models.Product, len(products))
	for i := range products {
		out[products[i].ID] = &products[i]
	}
	return out, nil
}

func (c *Gorm) ByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := c.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}
