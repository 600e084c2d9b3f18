package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/usecase"
)

// PipelineHandler exposes the decode pipeline and the reconciliation
// engine.
type PipelineHandler struct {
	parse     *usecase.ParseUsecase
	reconcile *usecase.ReconcileUsecase
	logger    *logging.Logger
}

// NewPipelineHandler creates a pipeline handler.
func NewPipelineHandler(parse *usecase.ParseUsecase, reconcile *usecase.ReconcileUsecase, logger *logging.Logger) *PipelineHandler {
	return &PipelineHandler{
		parse:     parse,
		reconcile: reconcile,
		logger:    logger.WithComponent("pipeline_handler"),
	}
}

// ParseReceipts rebuilds the parsed receipts collection.
func (h *PipelineHandler) ParseReceipts(c *gin.Context) {
	count, err := h.parse.RebuildReceipts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parsing processed successfully!", "documents": count})
}

// ParseDailySummaries rebuilds the parsed daily summaries collection.
func (h *PipelineHandler) ParseDailySummaries(c *gin.Context) {
	count, err := h.parse.RebuildDailySummaries(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parsing processed successfully!", "documents": count})
}

// ParseLineItems rebuilds the parsed line items collection.
func (h *PipelineHandler) ParseLineItems(c *gin.Context) {
	count, err := h.parse.RebuildLineItems(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Parsing processed successfully!", "documents": count})
}

// Reconcile runs the reconciliation engine and returns the per-organization
// staged results.
func (h *PipelineHandler) Reconcile(c *gin.Context) {
	result, err := h.reconcile.Run(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
