package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/usecase"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler serves spreadsheet downloads of the aggregated data.
type ExportHandler struct {
	export *usecase.ExportUsecase
	logger *logging.Logger
}

// NewExportHandler creates an export handler.
func NewExportHandler(export *usecase.ExportUsecase, logger *logging.Logger) *ExportHandler {
	return &ExportHandler{
		export: export,
		logger: logger.WithComponent("export_handler"),
	}
}

// AggregatesXLSX streams the aggregated collection as an XLSX workbook,
// optionally bounded by the wire-form from/to parameters.
func (h *ExportHandler) AggregatesXLSX(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := h.export.ExportAggregatesXLSX(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("aggregated-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
