package delivery

import (
	"time"

	"adspy/internal/delivery/middleware"
	"adspy/pkg/logger"
	"adspy/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type HTTPRouter struct {
	handlers       *HTTPHandlers
	logger         *logger.Logger
	metrics        *metrics.Metrics
	gatherer       prometheus.Gatherer
	requestTimeout time.Duration
}

func NewHTTPRouter(handlers *HTTPHandlers, logger *logger.Logger, metrics *metrics.Metrics, gatherer prometheus.Gatherer, requestTimeout time.Duration) *HTTPRouter {
	return &HTTPRouter{
		handlers:       handlers,
		logger:         logger,
		metrics:        metrics,
		gatherer:       gatherer,
		requestTimeout: requestTimeout,
	}
}

func (r *HTTPRouter) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.Timeout(r.requestTimeout))

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-User-ID"}
	config.ExposeHeaders = []string{"X-Request-ID"}

	router.Use(cors.New(config))

	// Health endpoint
	router.GET("/health", r.handlers.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/", r.handlers.GetAPIInfo)
		v1.GET("", r.handlers.GetAPIInfo)

		authed := v1.Group("", middleware.Session())

		// Search endpoints
		search := authed.Group("/search")
		{
			search.POST("", r.handlers.RunSearch)
			search.GET("/history", r.handlers.GetSearchHistory)
			search.GET("/:id", r.handlers.GetSearch)
		}

		authed.POST("/normalize", r.handlers.Normalize)

		// Saved ad endpoints
		saved := authed.Group("/saved-ads")
		{
			saved.GET("", r.handlers.ListSavedAds)
			saved.POST("", r.handlers.SaveAd)
			saved.DELETE("/:id", r.handlers.RemoveSavedAd)
		}

		authed.GET("/dashboard/summary", r.handlers.GetDashboardSummary)
	}

	// Prometheus metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler(r.gatherer))

	return router
}
