package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/akm47777/feriwala-backend-new/config"
	orderControllers "github.com/akm47777/feriwala-backend-new/controllers/order"
	"github.com/akm47777/feriwala-backend-new/middleware"
	"github.com/akm47777/feriwala-backend-new/orders"
)

func SetupOrderRoutes(r *gin.Engine, svc *orders.Service, cfg *config.Config) {
	group := r.Group("/orders")
	group.Use(middleware.Authenticate(cfg.JWTSecret))
	{
		// Create a new order
		group.POST("", orderControllers.PlaceOrderHandler(svc))

		// Fetch the caller's orders
		group.GET("", orderControllers.GetUserOrdersHandler(svc))

		// Single order and its tracking timeline
		group.GET("/:orderID", orderControllers.GetOrderHandler(svc))
		group.GET("/:orderID/tracking", orderControllers.GetTrackingHandler(svc))

		// Retry payment for a pending order
		group.POST("/:orderID/payment/retry", orderControllers.RetryPaymentHandler(svc))

		// Customer cancel (refund workflow when paid)
		group.POST("/:orderID/cancel", orderControllers.CancelOrderHandler(svc))
	}

	// Seller/admin forward transitions (CONFIRMED -> ... -> DELIVERED)
	r.PUT("/orders/:orderID/status",
		middleware.RequireAPIKey(cfg.AdminAPIKey),
		orderControllers.UpdateOrderStatusHandler(svc),
	)
}
