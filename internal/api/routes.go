package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewRouter returns an engine with recovery, request logging, CORS and the
// API routes. An empty origins list allows every origin.
func NewRouter(handler *Handler, origins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(handler.logger))

	corsConfig := cors.DefaultConfig()
	if len(origins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "X-Report-Id", "X-Report-Pages", "X-Report-Placeholders"}
	router.Use(cors.New(corsConfig))

	SetupRoutes(router, handler)
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.POST("/reports", handler.GenerateReport)
		api.POST("/reports/jobs", handler.SubmitJob)
		api.GET("/reports/jobs", handler.ListJobs)
		api.GET("/reports/jobs/:id", handler.GetJob)
		api.POST("/metrics", handler.ComputeMetrics)
		api.POST("/classify", handler.ClassifyImages)
		api.GET("/location", handler.LookupLocation)
		api.GET("/cities", handler.ListCities)
		api.GET("/cities/:name", handler.GetCity)
		api.GET("/telegram/config", handler.GetTelegramConfig)
		api.PUT("/telegram/config", handler.UpdateTelegramConfig)
		api.POST("/telegram/test", handler.TestTelegramConfig)
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("Handled request")
	}
}
