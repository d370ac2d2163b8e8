package paymentControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	orderControllers "github.com/akm47777/feriwala-backend-new/controllers/order"
	"github.com/akm47777/feriwala-backend-new/orders"
)

type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"razorpay_order_id" binding:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature        string `json:"razorpay_signature" binding:"required"`
}

type PaymentFailureRequest struct {
	GatewayOrderID string `json:"razorpay_order_id" binding:"required"`
	Error          struct {
		Description string `json:"description"`
	} `json:"error"`
}

// VerifyPaymentHandler processes the gateway's success callback. Replays of
// the same payload come back 200 without side effects.
func VerifyPaymentHandler(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		order, err := svc.VerifyPayment(c.Request.Context(),
			req.GatewayOrderID, req.GatewayPaymentID, req.Signature)
		if err != nil {
			orderControllers.RespondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Payment verified successfully",
			"data": gin.H{
				"order_number": order.OrderNumber,
				"status":       order.OrderStatus,
			},
		})
	}
}

// PaymentFailureHandler records a gateway-reported payment failure.
func PaymentFailureHandler(svc *orders.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PaymentFailureRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		order, err := svc.FailPayment(c.Request.Context(), req.GatewayOrderID, req.Error.Description)
		if err != nil {
			orderControllers.RespondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Payment failure recorded",
			"data": gin.H{
				"order_number": order.OrderNumber,
				"status":       order.OrderStatus,
			},
		})
	}
}
