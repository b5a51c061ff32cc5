package http

import (
	"github.com/allerlens/backend/config"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxBodyBytes leaves room for multipart framing around a full-size upload.
const maxBodyBytes = maxUploadBytes + 1<<20

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(requestid.New())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	router.Use(BodySizeLimit(maxBodyBytes))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/ingredients/parse", handler.ParseIngredients)

		allergens := v1.Group("/allergens")
		{
			allergens.GET("", handler.ListAllergens)
			allergens.GET("/search", handler.SearchAllergens)
			allergens.POST("/check", handler.CheckAllergens)
		}

		scans := v1.Group("/scans")
		{
			scans.POST("", handler.CreateScan)
			scans.GET("", handler.ListScans)
			scans.GET("/export", handler.ExportScans)
			scans.GET("/:id", handler.GetScan)
			scans.DELETE("/:id", handler.DeleteScan)
			scans.POST("/:id/recheck", handler.RecheckScan)
		}

		realtime := v1.Group("/realtime")
		{
			realtime.POST("/:session/frames", handler.OfferFrame)
			realtime.DELETE("/:session", handler.EndSession)
		}
	}

	return router
}
