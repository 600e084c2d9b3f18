package usecase

import (
	"context"

	"github.com/powerwolf1/bigData/domain/entity"
	"github.com/powerwolf1/bigData/domain/repository"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/pkg/metrics"
)

// ParseUsecase rebuilds the parsed collections by decoding the encoded
// identifiers of the raw ones. A rebuild is all-or-nothing: any single
// identifier that fails to decode fails the whole batch before anything
// is written.
type ParseUsecase struct {
	summaries repository.SummaryRepository
	receipts  repository.ReceiptRepository
	lineItems repository.LineItemRepository
	writer    repository.ParsedWriter

	logger  *logging.Logger
	metrics *metrics.Collector
}

// NewParseUsecase creates the identifier decode pipeline.
func NewParseUsecase(
	summaries repository.SummaryRepository,
	receipts repository.ReceiptRepository,
	lineItems repository.LineItemRepository,
	writer repository.ParsedWriter,
	logger *logging.Logger,
	collector *metrics.Collector,
) *ParseUsecase {
	return &ParseUsecase{
		summaries: summaries,
		receipts:  receipts,
		lineItems: lineItems,
		writer:    writer,
		logger:    logger.WithComponent("parse"),
		metrics:   collector,
	}
}

// RebuildReceipts decodes every receipt identifier, receipt number
// included, into the parsed receipts collection.
func (u *ParseUsecase) RebuildReceipts(ctx context.Context) (int, error) {
	ids, err := u.receipts.ListIdentifiers(ctx)
	if err != nil {
		return 0, err
	}
	return u.rebuild(ctx, repository.CollReceiptsParsed, ids, true)
}

// RebuildDailySummaries decodes every daily summary identifier, which
// carries no receipt number, into the parsed summaries collection.
func (u *ParseUsecase) RebuildDailySummaries(ctx context.Context) (int, error) {
	ids, err := u.summaries.ListIdentifiers(ctx)
	if err != nil {
		return 0, err
	}
	return u.rebuild(ctx, repository.CollDailySummariesParsed, ids, false)
}

// RebuildLineItems decodes the receipt identifier carried by every line
// item into the parsed line items collection. Line items reference
// receipt-level identifiers, so the receipt number is included.
func (u *ParseUsecase) RebuildLineItems(ctx context.Context) (int, error) {
	ids, err := u.lineItems.ListReceiptIDs(ctx)
	if err != nil {
		return 0, err
	}
	return u.rebuild(ctx, repository.CollLineItemsParsed, ids, true)
}

// rebuild decodes and normalizes every identifier, then replaces the
// target collection in one shot.
func (u *ParseUsecase) rebuild(ctx context.Context, collection string, ids []string, includeReceiptNumber bool) (int, error) {
	docs := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		fields, err := entity.DecodeIdentifier(id, includeReceiptNumber)
		if err != nil {
			u.metrics.RecordError("decode_error", "parse")
			u.logger.Error("Failed to decode identifier",
				logging.String("collection", collection),
				logging.String("identifier", id))
			return 0, err
		}

		record, err := fields.Normalize()
		if err != nil {
			u.metrics.RecordError("normalize_error", "parse")
			return 0, err
		}

		doc, err := record.WireDocument()
		if err != nil {
			return 0, err
		}
		docs = append(docs, doc)
	}

	if err := u.writer.Rebuild(ctx, collection, docs); err != nil {
		return 0, err
	}

	u.metrics.DocumentsParsed.WithLabelValues(collection).Add(float64(len(docs)))
	u.logger.Info("Parsed collection rebuilt",
		logging.String("collection", collection),
		logging.Int("documents", len(docs)))

	return len(docs), nil
}
