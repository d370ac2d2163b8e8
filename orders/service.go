package orders

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akm47777/feriwala-backend-new/catalog"
	"github.com/akm47777/feriwala-backend-new/gateway"
	"github.com/akm47777/feriwala-backend-new/inventory"
	"github.com/akm47777/feriwala-backend-new/models"
	"github.com/akm47777/feriwala-backend-new/notify"
	"github.com/akm47777/feriwala-backend-new/pricing"
)

// StockLedger is the slice of the inventory ledger the state machine drives.
type StockLedger interface {
	Reserve(ctx context.Context, orderNumber string, items []inventory.Item) error
	Commit(ctx context.Context, orderNumber string) error
	Release(ctx context.Context, orderNumber string) error
}

// Service runs the order state machine. All order and payment mutations go
// through here; transitions for a given order are serialized on a per-order
// lock, and stock only moves through the ledger.
type Service struct {
	repo     Repository
	ledger   StockLedger
	gateway  gateway.Gateway
	products catalog.ProductReader
	coupons  catalog.CouponReader
	pricer   *pricing.Calculator
	dispatch notify.Dispatcher
	logger   *zap.Logger
	locks    *orderLocks

	// how long VerifyPayment waits for an order that is still being persisted
	lookupRetries int
	lookupBackoff time.Duration
}

func NewService(
	repo Repository,
	ledger StockLedger,
	gw gateway.Gateway,
	products catalog.ProductReader,
	coupons catalog.CouponReader,
	pricer *pricing.Calculator,
	dispatch notify.Dispatcher,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:          repo,
		ledger:        ledger,
		gateway:       gw,
		products:      products,
		coupons:       coupons,
		pricer:        pricer,
		dispatch:      dispatch,
		logger:        logger,
		locks:         newOrderLocks(),
		lookupRetries: 5,
		lookupBackoff: 200 * time.Millisecond,
	}
}

type AddressInput struct {
	FirstName    string
	LastName     string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	Pincode      string
	Country      string
}

type PlaceOrderInput struct {
	UserID          string
	Items           []pricing.Line
	ShippingAddress AddressInput
	PaymentMethod   models.PaymentMethod
	CouponCode      string
	Notes           string
}

type PlaceOrderResult struct {
	Order  *models.Order
	Intent *gateway.Intent // nil for COD
}

// Place turns a cart into a durable PENDING order: price it, snapshot the
// address, reserve stock, then either confirm synchronously (COD) or create a
// gateway intent for the client to pay against. The reservation is taken
// before the gateway round-trip and released again if any later step fails,
// so the two never overlap a lock and a failed order never strands stock.
func (s *Service) Place(ctx context.Context, in PlaceOrderInput) (*PlaceOrderResult, error) {
	if err := validateMethod(in.PaymentMethod); err != nil {
		return nil, err
	}
	if !pricing.ValidatePincode(in.ShippingAddress.Pincode) {
		return nil, &pricing.ValidationError{Message: "invalid pincode"}
	}

	ids := make([]uint, len(in.Items))
	for i, line := range in.Items {
		ids[i] = line.ProductID
	}
	products, err := s.products.Snapshots(ctx, ids)
	if err != nil {
		return nil, err
	}

	var coupon *models.Coupon
	if in.CouponCode != "" {
		coupon, err = s.coupons.ByCode(ctx, in.CouponCode)
		if err != nil {
			return nil, err
		}
		if coupon == nil {
			return nil, &pricing.ValidationError{Message: "unknown coupon code"}
		}
	}

	now := time.Now()
	quote, err := s.pricer.Quote(in.Items, products, coupon, now)
	if err != nil {
		return nil, err
	}

	addr := &models.Address{
		UserID:       in.UserID,
		FirstName:    in.ShippingAddress.FirstName,
		LastName:     in.ShippingAddress.LastName,
		Phone:        in.ShippingAddress.Phone,
		AddressLine1: in.ShippingAddress.AddressLine1,
		AddressLine2: in.ShippingAddress.AddressLine2,
		City:         in.ShippingAddress.City,
		State:        in.ShippingAddress.State,
		Pincode:      in.ShippingAddress.Pincode,
		Country:      in.ShippingAddress.Country,
	}
	if addr.Country == "" {
		addr.Country = "India"
	}
	if err := s.repo.CreateAddress(ctx, addr); err != nil {
		return nil, err
	}

	orderNumber := newOrderNumber()

	reservation := make([]inventory.Item, len(in.Items))
	for i, line := range in.Items {
		reservation[i] = inventory.Item{ProductID: line.ProductID, Quantity: line.Quantity}
	}
	if err := s.ledger.Reserve(ctx, orderNumber, reservation); err != nil {
		return nil, err
	}

	eta := pricing.EstimatedDelivery(in.ShippingAddress.Pincode, now)
	order := &models.Order{
		OrderNumber:       orderNumber,
		UserID:            in.UserID,
		ShippingAddressID: addr.ID,
		BillingAddressID:  addr.ID,
		Subtotal:          quote.Subtotal,
		Discount:          quote.Discount,
		ShippingCost:      quote.ShippingCost,
		Tax:               quote.Tax,
		FinalAmount:       quote.FinalAmount,
		OrderStatus:       models.OrderStatusPending,
		PaymentStatus:     models.PaymentStatusPending,
		PaymentMethod:     in.PaymentMethod,
		CouponCode:        in.CouponCode,
		EstimatedDelivery: &eta,
		Notes:             in.Notes,
	}
	for _, line := range in.Items {
		p := products[line.ProductID]
		order.Items = append(order.Items, models.OrderItem{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Quantity:  line.Quantity,
		})
	}

	// Reservation commit and order write share one failure domain: if the
	// order row cannot be persisted the stock goes straight back.
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		if relErr := s.ledger.Release(ctx, orderNumber); relErr != nil {
			s.logger.Error("failed to release reservation after order write failure",
				zap.String("order_number", orderNumber), zap.Error(relErr))
		}
		return nil, err
	}

	ordersPlacedTotal.WithLabelValues(string(in.PaymentMethod)).Inc()

	if in.PaymentMethod == models.PaymentMethodCOD {
		order.OrderStatus = models.OrderStatusConfirmed
		if err := s.repo.SaveOrder(ctx, order); err != nil {
			return nil, err
		}
		if err := s.ledger.Commit(ctx, orderNumber); err != nil {
			return nil, err
		}
		s.emit(order, notify.EventOrderConfirmed, "Order placed successfully. Pay on delivery.")
		return &PlaceOrderResult{Order: order}, nil
	}

	intent, err := s.createIntent(ctx, order)
	if err != nil {
		// The order stays PENDING and the reservation held; the client can
		// retry payment against the same order, and the sweeper reclaims the
		// stock if they never do.
		return &PlaceOrderResult{Order: order}, err
	}

	s.emit(order, notify.EventOrderCreated, "Order placed, awaiting payment.")
	return &PlaceOrderResult{Order: order, Intent: intent}, nil
}

// createIntent registers the amount with the gateway and records the attempt
// as a new Payment row.
func (s *Service) createIntent(ctx context.Context, order *models.Order) (*gateway.Intent, error) {
	intent, err := s.gateway.CreateIntent(ctx, gateway.MinorUnits(order.FinalAmount), order.OrderNumber, map[string]string{
		"order_number": order.OrderNumber,
		"user_id":      order.UserID,
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		OrderID:        order.ID,
		Amount:         order.FinalAmount,
		Method:         order.PaymentMethod,
		Status:         models.PaymentStatusPending,
		GatewayOrderID: intent.GatewayOrderID,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	order.Payments = append(order.Payments, *payment)
	return intent, nil
}

// RetryPayment opens a fresh gateway intent for a PENDING non-COD order whose
// previous attempt failed or was abandoned. Each retry is its own Payment row.
func (s *Service) RetryPayment(ctx context.Context, ref, userID string) (*PlaceOrderResult, error) {
	order, err := s.repo.OrderByRef(ctx, ref, userID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(order.OrderNumber)
	defer unlock()

	order, err = s.repo.OrderByRef(ctx, order.OrderNumber, userID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod == models.PaymentMethodCOD || order.OrderStatus != models.OrderStatusPending {
		return nil, &InvalidTransitionError{From: order.OrderStatus, To: models.OrderStatusConfirmed}
	}

	intent, err := s.createIntent(ctx, order)
	if err != nil {
		return nil, err
	}
	return &PlaceOrderResult{Order: order, Intent: intent}, nil
}

// VerifyPayment handles the gateway's success callback. A callback that
// arrives before the order is findable is retried with bounded backoff rather
// than dropped; a replayed callback with the same payment id finds the
// Payment already COMPLETED and changes nothing.
func (s *Service) VerifyPayment(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*models.Order, error) {
	payment, err := s.lookupPayment(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}

	if !s.gateway.VerifySignature(gatewayOrderID, gatewayPaymentID, signature) {
		paymentsTotal.WithLabelValues("rejected").Inc()
		s.logger.Warn("payment callback rejected",
			zap.String("gateway_order_id", gatewayOrderID))
		return nil, ErrInvalidSignature
	}

	order, err := s.repo.OrderByID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(order.OrderNumber)
	defer unlock()

	// Re-read under the lock: a concurrent replay may already have applied
	// this transition.
	payment, err = s.repo.PaymentByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	order, err = s.repo.OrderByID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}
	if payment.Status == models.PaymentStatusCompleted {
		return order, nil
	}
	if !models.CanTransition(order.OrderStatus, models.OrderStatusConfirmed) {
		return nil, &InvalidTransitionError{From: order.OrderStatus, To: models.OrderStatusConfirmed}
	}

	payment.Status = models.PaymentStatusCompleted
	payment.GatewayPaymentID = gatewayPaymentID
	payment.GatewaySignature = signature
	if err := s.repo.SavePayment(ctx, payment); err != nil {
		return nil, err
	}

	order.OrderStatus = models.OrderStatusConfirmed
	order.PaymentStatus = models.PaymentStatusCompleted
	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return nil, err
	}

	if err := s.ledger.Commit(ctx, order.OrderNumber); err != nil {
		return nil, err
	}

	paymentsTotal.WithLabelValues("completed").Inc()
	s.emit(order, notify.EventOrderConfirmed, "Payment received, order confirmed.")
	return order, nil
}

// FailPayment records a gateway-reported failure: Payment FAILED, order
// CANCELLED, stock released. Safe to replay. A failure reported against an
// already-completed payment is rejected, not applied.
func (s *Service) FailPayment(ctx context.Context, gatewayOrderID, reason string) (*models.Order, error) {
	payment, err := s.repo.PaymentByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.OrderByID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(order.OrderNumber)
	defer unlock()

	payment, err = s.repo.PaymentByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		return nil, err
	}
	order, err = s.repo.OrderByID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}
	if payment.Status == models.PaymentStatusFailed {
		return order, nil
	}
	// A completed payment cannot be failed after the fact; money only leaves a
	// confirmed order through the refund workflow.
	if payment.Status == models.PaymentStatusCompleted || order.PaymentStatus == models.PaymentStatusCompleted {
		return nil, &InvalidTransitionError{From: order.OrderStatus, To: models.OrderStatusCancelled}
	}

	if reason == "" {
		reason = "Unknown error"
	}
	payment.Status = models.PaymentStatusFailed
	payment.FailureReason = reason
	if err := s.repo.SavePayment(ctx, payment); err != nil {
		return nil, err
	}

	if models.CanTransition(order.OrderStatus, models.OrderStatusCancelled) {
		order.OrderStatus = models.OrderStatusCancelled
		order.PaymentStatus = models.PaymentStatusFailed
		order.Notes = appendNote(order.Notes, "Payment failed: "+reason)
		if err := s.repo.SaveOrder(ctx, order); err != nil {
			return nil, err
		}
		if err := s.ledger.Release(ctx, order.OrderNumber); err != nil {
			return nil, err
		}
	}

	paymentsTotal.WithLabelValues("failed").Inc()
	s.emit(order, notify.EventPaymentFailed, "Payment failed: "+reason)
	return order, nil
}

// Cancel moves an order to CANCELLED, returns its stock, and refunds the
// customer if they already paid. A refund failure leaves the order CANCELLED
// with the payment state untouched and surfaces a RefundFailedError for
// manual retry; the cancellation itself is never reversed.
func (s *Service) Cancel(ctx context.Context, ref, userID, reason string) (*models.Order, error) {
	order, err := s.repo.OrderByRef(ctx, ref, userID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(order.OrderNumber)
	defer unlock()

	order, err = s.repo.OrderByRef(ctx, order.OrderNumber, userID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.OrderStatus, models.OrderStatusCancelled) {
		return nil, &InvalidTransitionError{From: order.OrderStatus, To: models.OrderStatusCancelled}
	}

	if reason == "" {
		reason = "No reason provided"
	}
	order.OrderStatus = models.OrderStatusCancelled
	order.Notes = appendNote(order.Notes, "Cancelled by customer. Reason: "+reason)
	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return nil, err
	}

	if err := s.ledger.Release(ctx, order.OrderNumber); err != nil {
		return nil, err
	}

	s.emit(order, notify.EventOrderCancelled, "Order cancelled.")

	if order.PaymentStatus == models.PaymentStatusCompleted {
		return s.refund(ctx, order)
	}
	return order, nil
}

// refund issues a full refund for a cancelled, paid order. The refund id is
// stored on the order once obtained, so a retried cancel short-circuits
// instead of refunding twice.
func (s *Service) refund(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.RefundID != "" {
		return order, nil
	}

	var gatewayPaymentID string
	for _, p := range order.Payments {
		if p.Status == models.PaymentStatusCompleted {
			gatewayPaymentID = p.GatewayPaymentID
		}
	}
	if gatewayPaymentID == "" {
		refundsTotal.WithLabelValues("failed").Inc()
		return order, &RefundFailedError{OrderNumber: order.OrderNumber,
			Err: fmt.Errorf("no completed payment on record")}
	}

	// Full refund only; the amount is bounded by what was actually charged.
	res, err := s.gateway.Refund(ctx, gatewayPaymentID, gateway.MinorUnits(order.FinalAmount), map[string]string{
		"reason":       "Order cancellation",
		"order_number": order.OrderNumber,
	})
	if err != nil {
		refundsTotal.WithLabelValues("failed").Inc()
		s.logger.Error("refund failed, manual reconciliation required",
			zap.String("order_number", order.OrderNumber),
			zap.String("gateway_payment_id", gatewayPaymentID),
			zap.Error(err))
		return order, &RefundFailedError{OrderNumber: order.OrderNumber, Err: err}
	}

	order.RefundID = res.RefundID
	order.OrderStatus = models.OrderStatusRefunded
	order.PaymentStatus = models.PaymentStatusRefunded
	order.Notes = appendNote(order.Notes, "Refund ID: "+res.RefundID)
	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return nil, err
	}

	refundsTotal.WithLabelValues("succeeded").Inc()
	s.emit(order, notify.EventOrderRefunded, "Refund issued: "+res.RefundID)
	return order, nil
}

// forwardStatuses are the transitions a seller may drive by hand.
var forwardStatuses = map[models.OrderStatus]bool{
	models.OrderStatusProcessing: true,
	models.OrderStatusShipped:    true,
	models.OrderStatusDelivered:  true,
}

// UpdateStatus applies a seller-driven forward transition.
func (s *Service) UpdateStatus(ctx context.Context, ref string, status models.OrderStatus, trackingNumber string) (*models.Order, error) {
	if !forwardStatuses[status] {
		return nil, &pricing.ValidationError{Message: "unsupported status: " + string(status)}
	}

	order, err := s.repo.OrderByRef(ctx, ref, "")
	if err != nil {
		return nil, err
	}

	unlock := s.locks.acquire(order.OrderNumber)
	defer unlock()

	order, err = s.repo.OrderByRef(ctx, order.OrderNumber, "")
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.OrderStatus, status) {
		return nil, &InvalidTransitionError{From: order.OrderStatus, To: status}
	}

	order.OrderStatus = status
	if trackingNumber != "" {
		order.TrackingNumber = trackingNumber
	}
	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return nil, err
	}

	s.emit(order, notify.EventOrderStatus, models.StatusMessage(status))
	return order, nil
}

// Get returns one order scoped to its owner.
func (s *Service) Get(ctx context.Context, ref, userID string) (*models.Order, error) {
	return s.repo.OrderByRef(ctx, ref, userID)
}

// List returns a page of the user's orders, optionally filtered by status.
func (s *Service) List(ctx context.Context, userID string, status models.OrderStatus, page, limit int) ([]models.Order, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.repo.ListOrders(ctx, userID, status, page, limit)
}

func (s *Service) lookupPayment(ctx context.Context, gatewayOrderID string) (*models.Payment, error) {
	var payment *models.Payment
	var err error
	for attempt := 0; attempt < s.lookupRetries; attempt++ {
		payment, err = s.repo.PaymentByGatewayOrderID(ctx, gatewayOrderID)
		if err == nil {
			return payment, nil
		}
		if err != ErrNotFound {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.lookupBackoff):
		}
	}
	return nil, err
}

func (s *Service) emit(order *models.Order, kind notify.EventKind, message string) {
	s.dispatch.Notify(order.UserID, notify.OrderEvent{
		Kind:        kind,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      string(order.OrderStatus),
		Message:     message,
		At:          time.Now(),
	})
}

func validateMethod(m models.PaymentMethod) error {
	switch m {
	case models.PaymentMethodCOD, models.PaymentMethodCard, models.PaymentMethodUPI,
		models.PaymentMethodNetBanking, models.PaymentMethodWallet:
		return nil
	}
	return &pricing.ValidationError{Message: "unsupported payment method: " + string(m)}
}

func appendNote(notes, extra string) string {
	if notes == "" {
		return extra
	}
	return notes + " | " + extra
}

func newOrderNumber() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return "ORD-" + ts[len(ts)-8:] + "-" + suffix
}
