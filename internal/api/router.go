package api

import (
	"github.com/gin-gonic/gin"

	"github.com/smukkama/symptom-intel/internal/logger"
)

type RouterConfig struct {
	Handler      *Handler
	Logger       *logger.Logger
	AllowOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(cfg.Logger), CORS(cfg.AllowOrigins))

	router.GET("/healthcheck", HealthCheck)

	h := cfg.Handler
	api := router.Group("/api")
	{
		api.POST("/reports", h.SubmitReport)

		api.GET("/escalations", h.GetEscalations)
		api.POST("/escalations/:reportId/respond", h.RespondToEscalation)

		api.GET("/outbreaks", h.GetOutbreaks)
		api.POST("/outbreaks/:id/resolve", h.ResolveOutbreak)

		api.POST("/subscriptions", h.Subscribe)
		api.POST("/subscriptions/unsubscribe", h.Unsubscribe)

		api.GET("/stats", h.Stats)
	}
	return router
}
