package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/spaces/controllers/booking_controller"
	middleware "github.com/joy095/spaces/middlewares"
	"github.com/joy095/spaces/middlewares/auth"
)

func RegisterBookingRoutes(router *gin.Engine, deps *Deps) {
	bookingController := booking_controller.NewBookingController(booking_controller.NewPgStore(deps.DB, deps.Taxes))

	// Quotes are public so the space page can show prices before login.
	router.POST("/bookings/quote", middleware.NewRateLimiter("30-1m", "booking-quote"), bookingController.Quote)

	protected := router.Group("/bookings")
	protected.Use(auth.AuthMiddleware(deps.Config.JWTSecretBytes()))
	{
		protected.POST("/redeem", middleware.CombinedRateLimiter("booking-redeem", "10-1m", "200-60m"), bookingController.Redeem)
		protected.GET("/:booking_id", middleware.NewRateLimiter("30-1m", "booking-get"), bookingController.GetBooking)
		protected.PATCH("/:booking_id/cancel", middleware.NewRateLimiter("10-1m", "booking-cancel"), bookingController.CancelBooking)
	}
}
