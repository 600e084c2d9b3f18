package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/powerwolf1/bigData/config"
	"github.com/powerwolf1/bigData/delivery/http/handlers"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/pkg/metrics"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Health    *handlers.HealthHandler
	Pipeline  *handlers.PipelineHandler
	Documents *handlers.DocumentsHandler
	Analytics *handlers.AnalyticsHandler
	Export    *handlers.ExportHandler
}

// NewRouter wires all routes. Route names follow the historical dashboard
// API so existing frontends keep working unchanged.
func NewRouter(cfg *config.Config, logger *logging.Logger, collector *metrics.Collector, h Handlers) *gin.Engine {
	if cfg.Service.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	if cfg.Metrics.Enabled {
		router.Use(collector.GinMiddleware())
		router.GET(cfg.Metrics.Path, gin.WrapH(collector.Handler()))
	}

	router.GET("/health", h.Health.Health)
	router.GET("/ready", h.Health.Ready)

	// Decode pipeline and reconciliation.
	router.GET("/parsing_id_bon", h.Pipeline.ParseReceipts)
	router.GET("/parsing_id_bon_zilnic", h.Pipeline.ParseDailySummaries)
	router.GET("/parsing_id_produs", h.Pipeline.ParseLineItems)
	router.GET("/aggregate_data", h.Pipeline.Reconcile)

	// Generic document surface.
	router.GET("/data", h.Documents.Page)
	router.POST("/add", h.Documents.Add)
	router.POST("/add_bulk", h.Documents.AddBulk)
	router.POST("/update", h.Documents.Update)
	router.POST("/delete", h.Documents.Delete)
	router.POST("/delete_collection", h.Documents.DropCollection)
	router.GET("/schema", h.Documents.Schema)
	router.GET("/collection_counts", h.Documents.CollectionCounts)

	// Typed dashboard lookups.
	router.GET("/get_produs_documents", h.Documents.ListLineItems)
	router.GET("/get_bon_by_id", h.Documents.GetReceipt)
	router.POST("/get_bon_zilnic", h.Documents.FindDailySummary)
	router.POST("/create_bon_zilnic", h.Documents.CreateDailySummary)
	router.PUT("/update_bon_zilnic", h.Documents.UpdateDailySummary)

	// Analytics.
	router.POST("/convert_data_to_timestamp", h.Analytics.ConvertDateToTimestamp)
	router.GET("/filter_by_nui", h.Analytics.FilterByDevice)
	router.GET("/nr_z_reports", h.Analytics.ZReports)
	router.GET("/tva_stats", h.Analytics.VATStats)
	router.GET("/sums_by_hour", h.Analytics.SumsByHour)
	router.GET("/sums_by_day_of_week", h.Analytics.SumsByDayOfWeek)
	router.GET("/daily_transactions", h.Analytics.DailyTransactions)
	router.GET("/filtered_bon_zilnic", h.Analytics.FilteredSummaries)

	// Exports.
	router.GET("/export/aggregated.xlsx", h.Export.AggregatesXLSX)

	return router
}

// requestLogger logs one line per request.
func requestLogger(logger *logging.Logger) gin.HandlerFunc {
	log := logger.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("Request handled",
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("duration", time.Since(start)))
	}
}
