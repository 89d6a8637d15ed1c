package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/vet-benchmarks-api/internal/handler"
	"github.com/noah-isme/vet-benchmarks-api/internal/middleware"
)

type routeHandlers struct {
	uploads    *handler.UploadHandler
	benchmarks *handler.BenchmarkHandler
	reports    *handler.ReportHandler
	metrics    *handler.MetricsHandler
}

type routeOptions struct {
	apiPrefix string
	docs      bool
}

func registerRoutes(r *gin.Engine, h routeHandlers, opts routeOptions) {
	r.GET("/health", h.metrics.Health)
	r.GET("/metrics", h.metrics.Prometheus)
	if opts.docs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(opts.apiPrefix)
	api.Use(middleware.WithResponseMeta())

	uploads := api.Group("/uploads")
	uploads.POST("", h.uploads.Create)
	uploads.POST("/import", h.uploads.Import)
	uploads.GET("/:id", h.uploads.Get)
	uploads.DELETE("/:id", h.uploads.Delete)
	uploads.GET("/:id/metrics", h.benchmarks.Metrics)
	uploads.GET("/:id/metrics/:metricId/rows", h.benchmarks.MetricRows)
	uploads.GET("/:id/metrics/:metricId/export", h.benchmarks.ExportMetric)
	uploads.GET("/:id/summary/export", h.benchmarks.ExportSummary)
	uploads.POST("/:id/reports", h.reports.Create)

	api.POST("/metrics", h.benchmarks.Evaluate)
	api.GET("/metrics/system", h.metrics.System)
	api.GET("/reports/:id", h.reports.Status)
	api.GET("/export/:token", h.reports.Download)
}
