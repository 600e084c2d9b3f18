package database

import (
	"context"
	"time"

	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/pkg/metrics"
	"github.com/powerwolf1/bigData/shared/common"
)

// MongoParsedWriter implements repository.ParsedWriter. A rebuild drops
// the target collection first so stale parsed documents never survive a
// re-run over the raw data.
type MongoParsedWriter struct {
	client  *Client
	logger  *logging.Logger
	metrics *metrics.Collector
}

// NewMongoParsedWriter creates a parsed collection writer.
func NewMongoParsedWriter(client *Client, logger *logging.Logger, collector *metrics.Collector) *MongoParsedWriter {
	return &MongoParsedWriter{
		client:  client,
		logger:  logger.WithComponent("parsed_writer"),
		metrics: collector,
	}
}

// Rebuild drops the collection and bulk inserts the new documents.
func (w *MongoParsedWriter) Rebuild(ctx context.Context, collection string, docs []interface{}) error {
	start := time.Now()
	defer func() {
		w.metrics.RecordDatabaseQuery("rebuild", collection, time.Since(start))
	}()

	coll := w.client.Collection(collection)

	_, err := w.client.Execute(func() (interface{}, error) {
		if err := coll.Drop(ctx); err != nil {
			return nil, err
		}
		if len(docs) == 0 {
			return nil, nil
		}
		return coll.InsertMany(ctx, docs)
	})
	if err != nil {
		w.metrics.RecordError("database_insert_error", "parsed_writer")
		return common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to rebuild "+collection)
	}

	w.logger.Info("Rebuilt parsed collection",
		logging.String("collection", collection),
		logging.Int("documents", len(docs)))

	return nil
}
