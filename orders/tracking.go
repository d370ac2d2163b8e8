package orders

import (
	"context"
	"time"

	"github.com/akm47777/feriwala-backend-new/models"
)

type TrackingStep struct {
	Status    models.OrderStatus `json:"status"`
	Completed bool               `json:"completed"`
	Date      *time.Time         `json:"date,omitempty"`
}

type TrackingInfo struct {
	OrderNumber       string             `json:"order_number"`
	Status            models.OrderStatus `json:"status"`
	Message           string             `json:"message"`
	TrackingNumber    string             `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time         `json:"estimated_delivery,omitempty"`
	Timeline          []TrackingStep     `json:"timeline"`
}

var trackingStages = []models.OrderStatus{
	models.OrderStatusPending,
	models.OrderStatusConfirmed,
	models.OrderStatusProcessing,
	models.OrderStatusShipped,
	models.OrderStatusDelivered,
}

// rank of each stage along the happy path
var stageRank = map[models.OrderStatus]int{
	models.OrderStatusPending:    0,
	models.OrderStatusConfirmed:  1,
	models.OrderStatusProcessing: 2,
	models.OrderStatusShipped:    3,
	models.OrderStatusDelivered:  4,
}

// Tracking builds the customer-facing timeline projection of an order.
func (s *Service) Tracking(ctx context.Context, ref, userID string) (*TrackingInfo, error) {
	order, err := s.repo.OrderByRef(ctx, ref, userID)
	if err != nil {
		return nil, err
	}

	rank, onPath := stageRank[order.OrderStatus]
	timeline := make([]TrackingStep, 0, len(trackingStages))
	for _, stage := range trackingStages {
		step := TrackingStep{Status: stage, Completed: onPath && stageRank[stage] <= rank}
		switch stage {
		case models.OrderStatusPending:
			created := order.CreatedAt
			step.Date = &created
			step.Completed = true
		case order.OrderStatus:
			updated := order.UpdatedAt
			step.Date = &updated
		}
		timeline = append(timeline, step)
	}

	return &TrackingInfo{
		OrderNumber:       order.OrderNumber,
		Status:            order.OrderStatus,
		Message:           models.StatusMessage(order.OrderStatus),
		TrackingNumber:    order.TrackingNumber,
		EstimatedDelivery: order.EstimatedDelivery,
		Timeline:          timeline,
	}, nil
}
