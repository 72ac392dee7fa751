package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vridhi-nahata/ServeGo-Backend/handlers"
	"github.com/vridhi-nahata/ServeGo-Backend/middleware"
	"github.com/vridhi-nahata/ServeGo-Backend/utils"
)

// RegisterBookingRoutes sets up the endpoints for the booking lifecycle.
func RegisterBookingRoutes(r *gin.Engine, bh *handlers.BookingHandler) {
	api := r.Group("/api/bookings")
	{
		// Occupied slots are public so customers can pick a free time
		// before authenticating.
		api.GET("/booked-slots", bh.BookedSlots)

		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", bh.CreateBooking)
		api.GET("/provider", bh.ListProviderRequests)
		api.GET("/customer", bh.ListCustomerBookings)
		api.PATCH("/:id/status", bh.UpdateStatus)
		api.PATCH("/:id/respond", bh.CustomerRespond)
		api.POST("/:id/otp", bh.GenerateCode)
		api.POST("/:id/otp/verify", bh.VerifyCode)
		api.POST("/:id/complete", bh.MarkComplete)
		api.POST("/:id/feedback", bh.SubmitFeedback)
	}
}

// RegisterPaymentRoutes sets up payment collection endpoints. The webhook
// endpoint stays outside the auth group because the gateway authenticates
// with its own signature header.
func RegisterPaymentRoutes(r *gin.Engine, ph *handlers.PaymentHandler) {
	api := r.Group("/api/payments")
	{
		api.POST("/webhook", ph.Webhook)

		api.Use(middleware.JWTAuthMiddleware())
		api.POST("/create-order", ph.CreateOrder)
		api.POST("/verify", ph.VerifyPayment)
		api.POST("/split-link", ph.SplitLink)
		api.POST("/cash/initiate", ph.InitiateCash)
		api.POST("/cash/confirm", ph.ConfirmCash)
	}
}

// RegisterHealthRoute registers a health-check endpoint backed by the
// periodic dependency monitor.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		health := utils.GetHealthStatus()
		code := http.StatusOK
		if !health.Mongo {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": "ok", "dependencies": health})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, bh *handlers.BookingHandler, ph *handlers.PaymentHandler) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Razorpay-Signature", "X-Razorpay-Event-Id"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, bh)
	RegisterPaymentRoutes(r, ph)
}
