package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/spaces/controllers/business_controller"
	middleware "github.com/joy095/spaces/middlewares"
	"github.com/joy095/spaces/middlewares/auth"
)

func RegisterBusinessRoutes(router *gin.Engine, deps *Deps) {
	businessController := business_controller.NewBusinessController(deps.DB)

	protected := router.Group("/")
	protected.Use(auth.AuthMiddleware(deps.Config.JWTSecretBytes()))
	{
		protected.GET("/business/balance", middleware.NewRateLimiter("30-1m", "business-balance"), businessController.GetBalance)
		protected.GET("/subscriptions/me", middleware.NewRateLimiter("30-1m", "subscription-me"), businessController.GetSubscription)
	}
}
