package orderControllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/akm47777/feriwala-backend-new/gateway"
	"github.com/akm47777/feriwala-backend-new/inventory"
	"github.com/akm47777/feriwala-backend-new/models"
	"github.com/akm47777/feriwala-backend-new/orders"
	"github.com/akm47777/feriwala-backend-new/pricing"
)

// -------- Request Structs --------

type OrderItemRequest struct {
	ProductID uint  `json:"product_id" binding:"required"`
	VariantID *uint `json:"variant_id"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

type AddressRequest struct {
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone" binding:"required"`
	AddressLine1 string `json:"address" binding:"required"`
	AddressLine2 string `json:"address2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	Pincode      string `json:"pincode" binding:"required"`
	Country      string `json:"country"`
}

type PlaceOrderRequest struct {
	Items           []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	ShippingAddress AddressRequest     `json:"shipping_address" binding:"required"`
	PaymentMethod   string             `json:"payment_method" binding:"required"`
	CouponCode      string             `json:"coupon_code"`
	Notes           string             `json:"notes"`
}

type UpdateOrderStatusRequest struct {
	OrderStatus    string `json:"order_status" binding:"required"`
	TrackingNumber string `json:"tracking_number"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// RespondError translates the pipeline's error taxonomy to HTTP statuses.
func RespondError(c *gin.Context, err error) {
	var validation *pricing.ValidationError
	var stock *inventory.InsufficientStockError
	var transition *orders.InvalidTransitionError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
	case errors.As(err, &stock):
		c.JSON(http.StatusConflict, gin.H{
			"error":      stock.Error(),
			"product_id": stock.ProductID,
			"available":  stock.Available,
		})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{
			"error":            transition.Error(),
			"current_status":   transition.From,
			"requested_status": transition.To,
		})
	case errors.Is(err, orders.ErrInvalidSignature):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment signature"})
	case errors.Is(err, orders.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, gateway.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// -------- Handlers --------

// PlaceOrderHandler creates a new order from the submitted cart.
func PlaceOrderHandler(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		lines := make([]pricing.Line, len(req.Items))
		for i, item := range req.Items {
			lines[i] = pricing.Line{ProductID: item.ProductID, VariantID: item.VariantID, Quantity: item.Quantity}
		}

		result, err := svc.Place(c.Request.Context(), orders.PlaceOrderInput{
			UserID: c.GetString("user_id"),
			Items:  lines,
			ShippingAddress: orders.AddressInput{
				FirstName:    req.ShippingAddress.FirstName,
				LastName:     req.ShippingAddress.LastName,
				Phone:        req.ShippingAddress.Phone,
				AddressLine1: req.ShippingAddress.AddressLine1,
				AddressLine2: req.ShippingAddress.AddressLine2,
				City:         req.ShippingAddress.City,
				State:        req.ShippingAddress.State,
				Pincode:      req.ShippingAddress.Pincode,
				Country:      req.ShippingAddress.Country,
			},
			PaymentMethod: models.PaymentMethod(req.PaymentMethod),
			CouponCode:    req.CouponCode,
			Notes:         req.Notes,
		})
		if err != nil {
			// The order may already exist when only the gateway call failed;
			// hand its number back so the client can retry payment.
			if errors.Is(err, gateway.ErrUnavailable) && result != nil {
				c.JSON(http.StatusBadGateway, gin.H{
					"error":        "payment gateway unavailable, retry payment for this order",
					"order_number": result.Order.OrderNumber,
				})
				return
			}
			RespondError(c, err)
			return
		}

		resp := gin.H{"success": true, "order": result.Order, "message": "Order placed successfully"}
		if result.Intent != nil {
			resp["payment"] = result.Intent
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// RetryPaymentHandler opens a fresh gateway intent for a pending order.
func RetryPaymentHandler(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.RetryPayment(c.Request.Context(), c.Param("orderID"), c.GetString("user_id"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "payment": result.Intent})
	}
}

// GetUserOrdersHandler lists the caller's orders with optional status filter.
func GetUserOrdersHandler(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
		if limit < 1 {
			limit = 10
		}
		status := models.OrderStatus(c.Query("status"))

		list, total, err := svc.List(c.Request.Context(), c.GetString("user_id"), status, page, limit)
		if err != nil {
			RespondError(c, err)
			return
		}

		totalPages := total / int64(limit)
		if total%int64(limit) != 0 {
			totalPages++
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"orders":  list,
			"pagination": gin.H{
				"current_page": page,
				"total_pages":  totalPages,
				"total_orders": total,
			},
		})
	}
}

// GetOrderHandler returns a single order, scoped to its owner.
func GetOrderHandler(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Get(c.Request.Context(), c.Param("orderID"), c.GetString("user_id"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}

// GetTrackingHandler returns the order's timeline projection.
func GetTrackingHandler(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tracking, err := svc.Tracking(c.Request.Context(), c.Param("orderID"), c.GetString("user_id"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "tracking": tracking})
	}
}

// UpdateOrderStatusHandler applies seller-driven forward transitions.
func UpdateOrderStatusHandler(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		order, err := svc.UpdateStatus(c.Request.Context(), c.Param("orderID"),
			models.OrderStatus(req.OrderStatus), req.TrackingNumber)
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "order": order, "message": "Order status updated"})
	}
}

// CancelOrderHandler cancels an order on the customer's behalf; paid orders
// go through the refund workflow.
func CancelOrderHandler(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CancelOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		order, err := svc.Cancel(c.Request.Context(), c.Param("orderID"), c.GetString("user_id"), req.Reason)
		if err != nil {
			var refundErr *orders.RefundFailedError
			if errors.As(err, &refundErr) {
				// The cancellation stands; the refund goes to the manual
				// reconciliation queue instead of silently disappearing.
				c.JSON(http.StatusAccepted, gin.H{
					"success":        true,
					"order":          order,
					"refund_pending": true,
					"message":        "Order cancelled; refund will be processed manually",
				})
				return
			}
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "order": order, "message": "Order cancelled successfully"})
	}
}
