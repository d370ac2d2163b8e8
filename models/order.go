package models

import "time"

type OrderStatus string
type PaymentStatus string
type PaymentMethod string

const (
	// Order statuses
	OrderStatusPending    OrderStatus = "PENDING"    // Order placed, awaiting payment/confirmation
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"  // Payment done (or COD accepted)
	OrderStatusProcessing OrderStatus = "PROCESSING" // Being packed
	OrderStatusShipped    OrderStatus = "SHIPPED"    // Out for delivery
	OrderStatusDelivered  OrderStatus = "DELIVERED"  // Customer received the item
	OrderStatusCancelled  OrderStatus = "CANCELLED"  // Cancelled before shipping
	OrderStatusRefunded   OrderStatus = "REFUNDED"   // Cancelled after payment, money returned

	// Payment statuses
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"

	// Payment methods
	PaymentMethodCOD        PaymentMethod = "COD"
	PaymentMethodCard       PaymentMethod = "CARD"
	PaymentMethodUPI        PaymentMethod = "UPI"
	PaymentMethodNetBanking PaymentMethod = "NET_BANKING"
	PaymentMethodWallet     PaymentMethod = "WALLET"
)

// allowedTransitions is the forward edge set of the order lifecycle.
// DELIVERED and REFUNDED are terminal; CANCELLED may still move to REFUNDED
// once a pending refund settles.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusProcessing: {OrderStatusShipped},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusCancelled:  {OrderStatusRefunded},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(s OrderStatus) bool {
	return s == OrderStatusDelivered || s == OrderStatusRefunded
}

// StatusMessage returns the customer-facing description for a status.
func StatusMessage(s OrderStatus) string {
	switch s {
	case OrderStatusPending:
		return "Order received and being processed"
	case OrderStatusConfirmed:
		return "Order confirmed and being prepared"
	case OrderStatusProcessing:
		return "Order is being packed"
	case OrderStatusShipped:
		return "Order shipped and on the way"
	case OrderStatusDelivered:
		return "Order delivered successfully"
	case OrderStatusCancelled:
		return "Order has been cancelled"
	case OrderStatusRefunded:
		return "Order refunded"
	}
	return "Status unknown"
}

type Order struct {
	ID                uint          `gorm:"primaryKey" json:"id"`
	OrderNumber       string        `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID            string        `gorm:"index;not null" json:"user_id"`
	User              User          `gorm:"foreignKey:UserID" json:"-"`
	ShippingAddressID uint          `json:"shipping_address_id"`
	ShippingAddress   Address       `gorm:"foreignKey:ShippingAddressID" json:"shipping_address"`
	BillingAddressID  uint          `json:"billing_address_id"`
	Items             []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal          float64       `json:"subtotal"`
	Discount          float64       `json:"discount"`
	ShippingCost      float64       `json:"shipping_cost"`
	Tax               float64       `json:"tax"`
	FinalAmount       float64       `json:"final_amount"`
	OrderStatus       OrderStatus   `gorm:"type:VARCHAR(20);default:'PENDING'" json:"order_status"`
	PaymentStatus     PaymentStatus `gorm:"type:VARCHAR(20);default:'PENDING'" json:"payment_status"`
	PaymentMethod     PaymentMethod `gorm:"type:VARCHAR(20)" json:"payment_method"`
	CouponCode        string        `json:"coupon_code,omitempty"`
	TrackingNumber    string        `json:"tracking_number,omitempty"`
	EstimatedDelivery *time.Time    `json:"estimated_delivery,omitempty"`
	RefundID          string        `json:"refund_id,omitempty"`
	Notes             string        `json:"notes,omitempty"`
	Payments          []Payment     `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// OrderItem snapshots the price at order time; later catalog price changes
// never alter past orders.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `gorm:"index" json:"order_id"`
	ProductID uint    `gorm:"not null" json:"product_id"`
	VariantID *uint   `json:"variant_id,omitempty"`
	Name      string  `json:"name"`
	Image     string  `json:"image,omitempty"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Payment is one gateway attempt against an order. An order may accumulate
// several attempts; at most one ever reaches COMPLETED. Rows are never deleted.
type Payment struct {
	ID               uint          `gorm:"primaryKey" json:"id"`
	OrderID          uint          `gorm:"index;not null" json:"order_id"`
	Amount           float64       `json:"amount"`
	Method           PaymentMethod `gorm:"type:VARCHAR(20)" json:"method"`
	Status           PaymentStatus `gorm:"type:VARCHAR(20);default:'PENDING'" json:"status"`
	GatewayOrderID   string        `gorm:"index" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string        `json:"gateway_payment_id,omitempty"`
	GatewaySignature string        `json:"-"`
	FailureReason    string        `json:"failure_reason,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}
