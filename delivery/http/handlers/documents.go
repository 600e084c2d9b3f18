package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/powerwolf1/bigData/domain/entity"
	"github.com/powerwolf1/bigData/domain/repository"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/shared/common"
)

// DocumentsHandler serves the generic document CRUD surface plus the
// typed lookups the dashboard forms use.
type DocumentsHandler struct {
	store     repository.DocumentStore
	summaries repository.SummaryRepository
	receipts  repository.ReceiptRepository
	lineItems repository.LineItemRepository
	logger    *logging.Logger
}

// NewDocumentsHandler creates a documents handler.
func NewDocumentsHandler(
	store repository.DocumentStore,
	summaries repository.SummaryRepository,
	receipts repository.ReceiptRepository,
	lineItems repository.LineItemRepository,
	logger *logging.Logger,
) *DocumentsHandler {
	return &DocumentsHandler{
		store:     store,
		summaries: summaries,
		receipts:  receipts,
		lineItems: lineItems,
		logger:    logger.WithComponent("documents_handler"),
	}
}

// Page returns a page of documents from any collection, optionally
// bounded by the backfilled timestamp range.
func (h *DocumentsHandler) Page(c *gin.Context) {
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

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "15000"), 10, 64)
	if err != nil {
		respondError(c, common.ErrInvalidInput("limit"))
		return
	}
	skip, err := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	if err != nil {
		respondError(c, common.ErrInvalidInput("skip"))
		return
	}

	docs, err := h.store.FindPage(c.Request.Context(), collection, from, to, limit, skip)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, docs)
}

type addRequest struct {
	Collection  string `json:"collection" binding:"required"`
	NewDocument bson.M `json:"new_document" binding:"required"`
}

// Add inserts one document.
func (h *DocumentsHandler) Add(c *gin.Context) {
	var req addRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrInvalidInput("body"))
		return
	}

	id, err := h.store.Insert(c.Request.Context(), req.Collection, req.NewDocument)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document added successfully", "id": id})
}

type addBulkRequest struct {
	Collection   string   `json:"collection" binding:"required"`
	NewDocuments []bson.M `json:"new_documents" binding:"required"`
}

// AddBulk inserts a batch of documents.
func (h *DocumentsHandler) AddBulk(c *gin.Context) {
	var req addBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrInvalidInput("body"))
		return
	}

	docs := make([]interface{}, 0, len(req.NewDocuments))
	for _, doc := range req.NewDocuments {
		docs = append(docs, doc)
	}

	ids, err := h.store.InsertMany(c.Request.Context(), req.Collection, docs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Documents added successfully", "ids": ids})
}

type updateRequest struct {
	Collection   string `json:"collection" binding:"required"`
	ID           string `json:"id" binding:"required"`
	UpdateFields bson.M `json:"update_fields" binding:"required"`
}

// Update applies a partial update to one document.
func (h *DocumentsHandler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrInvalidInput("body"))
		return
	}

	err := h.store.UpdateByID(c.Request.Context(), req.Collection, documentID(req.ID), req.UpdateFields)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document updated successfully"})
}

type deleteRequest struct {
	Collection string `json:"collection" binding:"required"`
	ID         string `json:"id" binding:"required"`
}

// Delete removes one document.
func (h *DocumentsHandler) Delete(c *gin.Context) {
	var req deleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrInvalidInput("body"))
		return
	}

	if err := h.store.DeleteByID(c.Request.Context(), req.Collection, documentID(req.ID)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}

type dropCollectionRequest struct {
	Collection string `json:"collection" binding:"required"`
}

// DropCollection removes a whole collection.
func (h *DocumentsHandler) DropCollection(c *gin.Context) {
	var req dropCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrInvalidInput("body"))
		return
	}

	if err := h.store.DropCollection(c.Request.Context(), req.Collection); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Collection '" + req.Collection + "' deleted successfully."})
}

// Schema returns the field names of one sampled document.
func (h *DocumentsHandler) Schema(c *gin.Context) {
	collection := c.Query("collection")
	if collection == "" {
		respondError(c, common.ErrInvalidInput("collection"))
		return
	}

	fields, err := h.store.FieldNames(c.Request.Context(), collection)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fields": fields})
}

// CollectionCounts returns document counts per collection.
func (h *DocumentsHandler) CollectionCounts(c *gin.Context) {
	counts, err := h.store.CollectionCounts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}

// ListLineItems returns every line item.
func (h *DocumentsHandler) ListLineItems(c *gin.Context) {
	items, err := h.lineItems.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

// GetReceipt returns a receipt by its encoded identifier.
func (h *DocumentsHandler) GetReceipt(c *gin.Context) {
	id := c.Query("bon_id")
	if id == "" {
		respondError(c, common.ErrInvalidInput("bon_id"))
		return
	}

	receipt, err := h.receipts.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

type findSummaryRequest struct {
	SequenceNumber string `json:"nr" binding:"required"`
	Date           string `json:"DATA" binding:"required"`
	TotalSales     string `json:"total_vanzari"`
	TotalA         string `json:"total_a"`
	TotalB         string `json:"total_b"`
	TotalC         string `json:"total_c"`
	TotalD         string `json:"total_d"`
}

// FindDailySummary matches one raw daily summary by exact field equality,
// the way the dashboard verification form checks a Z-report against the
// stored data.
func (h *DocumentsHandler) FindDailySummary(c *gin.Context) {
	var req findSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, common.ErrInvalidInput("body"))
		return
	}

	summary, err := h.summaries.FindOne(c.Request.Context(), bson.M{
		"nr":            req.SequenceNumber,
		"DATA":          req.Date,
		"total_vanzari": req.TotalSales,
		"total_a":       req.TotalA,
		"total_b":       req.TotalB,
		"total_c":       req.TotalC,
		"total_d":       req.TotalD,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// CreateDailySummary inserts a raw daily summary from the dashboard form.
// Every field is coerced to a string against the collection's sampled
// schema, matching how the ingestion side writes raw documents.
func (h *DocumentsHandler) CreateDailySummary(c *gin.Context) {
	var body bson.M
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, common.ErrInvalidInput("body"))
		return
	}
	if id, ok := body["_id"]; ok && id == "" {
		delete(body, "_id")
	}

	doc := h.coerceSummaryFields(c, body)

	id, err := h.store.Insert(c.Request.Context(), repository.CollDailySummaries, doc)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"_id": id})
}

// UpdateDailySummary updates a raw daily summary from the dashboard form,
// with the same string coercion as CreateDailySummary.
func (h *DocumentsHandler) UpdateDailySummary(c *gin.Context) {
	var body bson.M
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, common.ErrInvalidInput("body"))
		return
	}

	rawID, ok := body["_id"].(string)
	if !ok || rawID == "" {
		respondError(c, common.ErrInvalidInput("_id"))
		return
	}
	delete(body, "_id")

	doc := h.coerceSummaryFields(c, body)

	err := h.store.UpdateByID(c.Request.Context(), repository.CollDailySummaries, documentID(rawID), doc)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document updated successfully"})
}

// coerceSummaryFields maps the request body onto the sampled schema of
// the raw summaries collection, stringifying every value. An empty
// collection leaves the body as-is.
func (h *DocumentsHandler) coerceSummaryFields(c *gin.Context, body bson.M) bson.M {
	fields, err := h.store.FieldNames(c.Request.Context(), repository.CollDailySummaries)
	if err != nil {
		return body
	}

	doc := bson.M{}
	if id, ok := body["_id"]; ok {
		doc["_id"] = id
	}
	for _, field := range fields {
		if field == "_id" || field == "timestamp" {
			continue
		}
		if v, ok := body[field]; ok && v != nil {
			doc[field] = fmt.Sprintf("%v", v)
		} else {
			doc[field] = ""
		}
	}
	return doc
}

// documentID turns a request id into the stored _id form: a valid
// ObjectID hex becomes an ObjectID, anything else stays a string. The
// encoded-identifier collections use plain string keys.
func documentID(id string) interface{} {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

// dateRange reads the optional wire-form from/to query parameters.
func dateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time

	if s := c.Query("from"); s != "" {
		d, err := entity.ParseWireDate(s)
		if err != nil {
			return nil, nil, common.ErrInvalidInput("from")
		}
		from = &d
	}
	if s := c.Query("to"); s != "" {
		d, err := entity.ParseWireDate(s)
		if err != nil {
			return nil, nil, common.ErrInvalidInput("to")
		}
		to = &d
	}

	return from, to, nil
}
