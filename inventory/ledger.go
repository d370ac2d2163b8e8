// Package inventory owns every stock mutation. Nothing else in the pipeline
// is allowed to write Product.Stock.
package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/akm47777/feriwala-backend-new/models"
)

// Item is one reservation line.
type Item struct {
	ProductID uint
	Quantity  int
}

// InsufficientStockError names the failing product and what is actually left.
type InsufficientStockError struct {
	ProductID uint
	Name      string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s), available: %d", e.ProductID, e.Name, e.Available)
}

type Ledger struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewLedger(db *gorm.DB, logger *zap.Logger) *Ledger {
	return &Ledger{db: db, logger: logger}
}

// Reserve decrements stock for every line, atomically per product. The
// decrement only applies when stock >= quantity; the database enforces the
// compare-and-decrement, so stock never goes negative no matter how many
// workers race on the same product. If any line fails, the surrounding
// transaction rolls every prior decrement back before the error is returned.
func (l *Ledger) Reserve(ctx context.Context, orderNumber string, items []Item) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", it.ProductID, it.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				var p models.Product
				insufficient := &InsufficientStockError{ProductID: it.ProductID}
				if err := tx.Select("name", "stock").First(&p, "id = ?", it.ProductID).Error; err == nil {
					insufficient.Name = p.Name
					insufficient.Available = p.Stock
				}
				return insufficient
			}

			r := models.StockReservation{
				ID:          uuid.NewString(),
				OrderNumber: orderNumber,
				ProductID:   it.ProductID,
				Quantity:    it.Quantity,
				Status:      models.ReservationReserved,
			}
			if err := tx.Create(&r).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Commit marks an order's reservation as final. Committed stock stays
// decremented; only a later cancellation or refund brings it back.
func (l *Ledger) Commit(ctx context.Context, orderNumber string) error {
	return l.db.WithContext(ctx).Model(&models.StockReservation{}).
		Where("order_number = ? AND status = ?", orderNumber, models.ReservationReserved).
		Update("status", models.ReservationCommitted).Error
}

// Release returns an order's stock, whether the reservation was still held or
// already committed. Increments are keyed to the recorded decrement rows, so
// a replayed release (retried webhook, double cancel) finds no rows left to
// flip and credits nothing twice.
func (l *Ledger) Release(ctx context.Context, orderNumber string) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reservations []models.StockReservation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_number = ? AND status IN ?", orderNumber,
				[]models.ReservationStatus{models.ReservationReserved, models.ReservationCommitted}).
			Find(&reservations).Error; err != nil {
			return err
		}
		if len(reservations) == 0 {
			return nil // already released
		}

		for _, r := range reservations {
			if err := tx.Model(&models.Product{}).
				Where("id = ?", r.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", r.Quantity)).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.StockReservation{}).
				Where("id = ?", r.ID).
				Update("status", models.ReservationReleased).Error; err != nil {
				return err
			}
		}

		l.logger.Info("stock released",
			zap.String("order_number", orderNumber),
			zap.Int("lines", len(reservations)))
		return nil
	})
}
