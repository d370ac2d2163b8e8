package routes

import (
	"github.com/gin-gonic/gin"

	paymentControllers "github.com/akm47777/feriwala-backend-new/controllers/payment"
	"github.com/akm47777/feriwala-backend-new/orders"
)

// Gateway callbacks carry no user session; the HMAC signature check inside
// the pipeline authenticates them.
func SetupPaymentRoutes(r *gin.Engine, svc *orders.Service) {
	payment := r.Group("/orders/payment")
	{
		payment.POST("/verify", paymentControllers.VerifyPaymentHandler(svc))
		payment.POST("/failure", paymentControllers.PaymentFailureHandler(svc))
	}
}
