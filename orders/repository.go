package orders

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/akm47777/feriwala-backend-new/models"
)

// Repository is the only way order, payment and address rows are touched.
// Constructed explicitly and passed in; there is no package-level database.
type Repository interface {
	CreateAddress(ctx context.Context, addr *models.Address) error
	CreateOrder(ctx context.Context, order *models.Order) error
	CreatePayment(ctx context.Context, payment *models.Payment) error
	SaveOrder(ctx context.Context, order *models.Order) error
	SavePayment(ctx context.Context, payment *models.Payment) error

	// OrderByRef resolves an order by order number, scoped to userID unless
	// userID is empty.
	OrderByRef(ctx context.Context, ref, userID string) (*models.Order, error)
	OrderByID(ctx context.Context, id uint) (*models.Order, error)
	ListOrders(ctx context.Context, userID string, status models.OrderStatus, page, limit int) ([]models.Order, int64, error)
	PaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error)
	StalePendingOrders(ctx context.Context, olderThan time.Time) ([]models.Order, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateAddress(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

func (r *gormRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *gormRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *gormRepository) SaveOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *gormRepository) SavePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *gormRepository) OrderByRef(ctx context.Context, ref, userID string) (*models.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Preload("ShippingAddress").
		Preload("Payments").
		Where("order_number = ?", ref)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var order models.Order
	if err := q.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) OrderByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Payments").
		First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) ListOrders(ctx context.Context, userID string, status models.OrderStatus, page, limit int) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("order_status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := q.Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	return orders, total, err
}

func (r *gormRepository) PaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("gateway_order_id = ?", gatewayOrderID).
		Order("created_at DESC").
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *gormRepository) StalePendingOrders(ctx context.Context, olderThan time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("order_status = ? AND payment_method <> ? AND created_at < ?",
			models.OrderStatusPending, models.PaymentMethodCOD, olderThan).
		Find(&orders).Error
	return orders, err
}
