package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/orio/graphbook-backend/internal/http/handlers"
	httpMW "github.com/orio/graphbook-backend/internal/http/middleware"
	"github.com/orio/graphbook-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	DocumentHandler *httpH.DocumentHandler
	TextHandler     *httpH.TextHandler
	ConceptHandler  *httpH.ConceptHandler
	ChartHandler    *httpH.ChartHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Documents
		if cfg.DocumentHandler != nil {
			api.POST("/add/file", cfg.DocumentHandler.Upload)
			api.GET("/get/file", cfg.DocumentHandler.Download)
			api.PUT("/delete/file", cfg.DocumentHandler.Delete)
			api.GET("/get/text/all", cfg.DocumentHandler.ListTitles)
		}

		// Graph texts
		if cfg.TextHandler != nil {
			api.POST("/add/text", cfg.TextHandler.Add)
			api.PUT("/delete/text", cfg.TextHandler.Delete)
		}

		// Concepts
		if cfg.ConceptHandler != nil {
			api.POST("/add/concept", cfg.ConceptHandler.Add)
			api.PUT("/delete/concept", cfg.ConceptHandler.Delete)
			api.GET("/get/concept/all", cfg.ConceptHandler.List)
		}

		// Charts
		if cfg.ChartHandler != nil {
			api.POST("/add/chart", cfg.ChartHandler.Add)
			api.GET("/get/chart", cfg.ChartHandler.Get)
			api.PUT("/delete/chart", cfg.ChartHandler.Delete)
		}
	}

	return r
}
