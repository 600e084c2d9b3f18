package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/powerwolf1/bigData/domain/entity"
	"github.com/powerwolf1/bigData/domain/repository"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/shared/common"
)

// AnalyticsHandler serves the dashboard aggregation endpoints.
type AnalyticsHandler struct {
	analytics repository.AnalyticsRepository
	devices   repository.DeviceRepository
	logger    *logging.Logger
}

// NewAnalyticsHandler creates an analytics handler.
func NewAnalyticsHandler(analytics repository.AnalyticsRepository, devices repository.DeviceRepository, logger *logging.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		devices:   devices,
		logger:    logger.WithComponent("analytics_handler"),
	}
}

type convertRequest struct {
	Collection string `json:"collection" binding:"required"`
}

// ConvertDateToTimestamp backfills the timestamp field of a collection.
func (h *AnalyticsHandler) ConvertDateToTimestamp(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrInvalidInput("body"))
		return
	}

	if err := h.analytics.ConvertDateToTimestamp(c.Request.Context(), req.Collection); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Converting processed successfully!"})
}

// FilterByDevice counts documents per date for one organization's devices
// or for an explicitly named device id.
func (h *AnalyticsHandler) FilterByDevice(c *gin.Context) {
	collection := c.Query("collection")
	organization := c.Query("firma")
	deviceID := c.Query("nui_id")

	if organization == "" && deviceID == "" {
		respondError(c, common.ErrInvalidInput("firma or nui_id"))
		return
	}

	var deviceIDs []string
	if organization != "" {
		ids, err := h.devices.ListIDsByOrganizationName(c.Request.Context(), organization)
		if err != nil {
			respondError(c, err)
			return
		}
		deviceIDs = ids
	}
	if deviceID != "" {
		deviceIDs = append(deviceIDs, deviceID)
	}

	if len(deviceIDs) == 0 {
		respondError(c, common.ErrNotFound("device registrations for organization"))
		return
	}

	from, to, err := dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	counts, err := h.analytics.CountsByDateForDevices(c.Request.Context(), collection, deviceIDs, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"collection_count": counts})
}

// ZReports lists Z-report sequence numbers in a date range.
func (h *AnalyticsHandler) ZReports(c *gin.Context) {
	from, to, err := requiredDateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	rows, err := h.analytics.ZReports(c.Request.Context(), c.Query("collection"), from, to, c.Query("nr_z"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"nr_z_data": rows})
}

// VATStats sums the VAT buckets of receipts or daily summaries.
func (h *AnalyticsHandler) VATStats(c *gin.Context) {
	collection := c.Query("collection")
	if collection == "" {
		respondError(c, common.ErrInvalidInput("collection"))
		return
	}

	from, to, err := dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	stats, err := h.analytics.VATStats(c.Request.Context(), collection, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// SumsByHour totals sales per hour per day.
func (h *AnalyticsHandler) SumsByHour(c *gin.Context) {
	from, to, err := requiredDateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	sums, err := h.analytics.SumsByHour(c.Request.Context(), c.Query("collection"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sums)
}

// SumsByDayOfWeek totals sales per day of week.
func (h *AnalyticsHandler) SumsByDayOfWeek(c *gin.Context) {
	from, to, err := requiredDateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	sums, err := h.analytics.SumsByDayOfWeek(c.Request.Context(), c.Query("collection"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sums)
}

// DailyTransactions groups daily summaries by date and declared receipt
// count.
func (h *AnalyticsHandler) DailyTransactions(c *gin.Context) {
	from, to, err := requiredDateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	counts, err := h.analytics.DailyReceiptCounts(c.Request.Context(), c.Query("collection"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

// FilteredSummaries lists daily summaries in a date range, optionally by
// sequence number.
func (h *AnalyticsHandler) FilteredSummaries(c *gin.Context) {
	from, to, err := requiredDateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	docs, err := h.analytics.FilteredSummaries(c.Request.Context(), c.Query("collection"), from, to, c.Query("nr_b"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, docs)
}

// requiredDateRange reads the mandatory wire-form from/to parameters.
func requiredDateRange(c *gin.Context) (time.Time, time.Time, error) {
	from, err := entity.ParseWireDate(c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, common.ErrInvalidInput("from")
	}
	to, err := entity.ParseWireDate(c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, common.ErrInvalidInput("to")
	}
	return from, to, nil
}
