package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/spaces/controllers/booking_controller"
	"github.com/joy095/spaces/controllers/business_payment_controller"
	"github.com/joy095/spaces/controllers/payment_verification_controller"
	middleware "github.com/joy095/spaces/middlewares"
	"github.com/joy095/spaces/middlewares/auth"
)

func RegisterPaymentRoutes(router *gin.Engine, deps *Deps) {
	service := &payment_verification_controller.Service{
		Store:      payment_verification_controller.NewPgStore(deps.DB, deps.Taxes),
		Gateway:    deps.Gateway,
		Mailer:     deps.Mailer,
		Events:     deps.Events,
		Secret:     deps.Config.Razorpay.KeySecret,
		Currency:   deps.Config.Currency,
		PlanPrices: deps.PlanPrices,
	}
	verifyController := payment_verification_controller.NewPaymentVerificationController(service, deps.Config.SupportEmail)
	orderController := business_payment_controller.NewOrderController(
		booking_controller.NewPgStore(deps.DB, deps.Taxes), deps.Gateway, deps.PlanPrices, deps.Config.Currency)

	payments := router.Group("/payments")
	payments.Use(auth.AuthMiddleware(deps.Config.JWTSecretBytes()))
	{
		payments.POST("/orders", middleware.CombinedRateLimiter("create-order", "5-10s", "60-10m"), orderController.CreateOrder)
		payments.POST("/verify", middleware.CombinedRateLimiter("verify-payment", "10-1m", "100-60m"), verifyController.VerifyPayment)
	}
}
