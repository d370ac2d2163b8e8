package orders

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/akm47777/feriwala-backend-new/models"
	"github.com/akm47777/feriwala-backend-new/notify"
)

// RunSweeper auto-cancels PENDING online orders whose payment has not arrived
// within ttl, so abandoned checkouts cannot hold stock indefinitely. Runs
// until the context is cancelled.
func (s *Service) RunSweeper(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx, ttl)
		}
	}
}

// SweepOnce performs a single pass.
func (s *Service) SweepOnce(ctx context.Context, ttl time.Duration) {
	stale, err := s.repo.StalePendingOrders(ctx, time.Now().Add(-ttl))
	if err != nil {
		s.logger.Error("sweep query failed", zap.Error(err))
		return
	}

	for i := range stale {
		if err := s.autoCancel(ctx, stale[i].OrderNumber); err != nil {
			s.logger.Error("auto-cancel failed",
				zap.String("order_number", stale[i].OrderNumber), zap.Error(err))
		}
	}
}

func (s *Service) autoCancel(ctx context.Context, orderNumber string) error {
	unlock := s.locks.acquire(orderNumber)
	defer unlock()

	// Re-read under the lock; a payment callback may have won the race.
	order, err := s.repo.OrderByRef(ctx, orderNumber, "")
	if err != nil {
		return err
	}
	if order.OrderStatus != models.OrderStatusPending {
		return nil
	}

	order.OrderStatus = models.OrderStatusCancelled
	order.Notes = appendNote(order.Notes, "Auto-cancelled: payment not completed in time")
	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return err
	}
	if err := s.ledger.Release(ctx, order.OrderNumber); err != nil {
		return err
	}

	s.logger.Info("stale pending order auto-cancelled",
		zap.String("order_number", order.OrderNumber))
	s.emit(order, notify.EventOrderCancelled, "Order cancelled: payment was not completed.")
	return nil
}
