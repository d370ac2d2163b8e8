package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akm47777/feriwala-backend-new/config"
	"github.com/akm47777/feriwala-backend-new/middleware"
	"github.com/akm47777/feriwala-backend-new/notify"
	"github.com/akm47777/feriwala-backend-new/orders"
)

// SetupRoutes is the single entry-point that wires up the order pipeline's
// HTTP surface.
func SetupRoutes(r *gin.Engine, svc *orders.Service, hub *notify.Hub, cfg *config.Config) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", middleware.PrometheusHandler())

	SetupOrderRoutes(r, svc, cfg)
	SetupPaymentRoutes(r, svc)

	// live order feed for the seller dashboard
	r.GET("/orders/ws", middleware.RequireAPIKey(cfg.AdminAPIKey), func(c *gin.Context) {
		hub.Serve(c.Writer, c.Request)
	})
}
