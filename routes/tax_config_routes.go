package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/joy095/spaces/controllers/tax_config_controller"
	middleware "github.com/joy095/spaces/middlewares"
	"github.com/joy095/spaces/middlewares/auth"
)

func RegisterTaxConfigRoutes(router *gin.Engine, deps *Deps) {
	var cache tax_config_controller.Invalidator
	if deps.Taxes != nil {
		cache = deps.Taxes
	}
	taxController := tax_config_controller.NewTaxConfigController(&tax_config_controller.PgStore{DB: deps.DB}, cache)

	admin := router.Group("/admin/tax-configurations")
	admin.Use(auth.AuthMiddleware(deps.Config.JWTSecretBytes()), auth.AdminMiddleware(deps.Config))
	{
		admin.GET("", middleware.NewRateLimiter("60-1m", "tax-config-list"), taxController.List)
		admin.POST("", middleware.NewRateLimiter("10-1m", "tax-config-write"), taxController.Create)
		admin.PUT("/:id", middleware.NewRateLimiter("10-1m", "tax-config-write"), taxController.Update)
	}
}
