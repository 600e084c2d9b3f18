package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/powerwolf1/bigData/domain/entity"
	"github.com/powerwolf1/bigData/domain/repository"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/pkg/metrics"
	"github.com/powerwolf1/bigData/shared/common"
)

// MongoReceiptRepository implements repository.ReceiptRepository.
type MongoReceiptRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
	metrics    *metrics.Collector
}

// NewMongoReceiptRepository creates a receipt repository.
func NewMongoReceiptRepository(client *Client, logger *logging.Logger, collector *metrics.Collector) *MongoReceiptRepository {
	return &MongoReceiptRepository{
		collection: client.Collection(repository.CollReceipts),
		logger:     logger.WithComponent("receipt_repository"),
		metrics:    collector,
	}
}

// ListIdentifiers returns the encoded identifier of every receipt.
func (r *MongoReceiptRepository) ListIdentifiers(ctx context.Context) ([]string, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("find", repository.CollReceipts, time.Since(start))
	}()

	return listIdentifiers(ctx, r.collection, "receipts")
}

// FindByID returns a receipt by its encoded identifier.
func (r *MongoReceiptRepository) FindByID(ctx context.Context, id string) (*entity.Receipt, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("findOne", repository.CollReceipts, time.Since(start))
	}()

	var receipt entity.Receipt
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&receipt)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, common.ErrNotFound("receipt")
		}
		r.metrics.RecordError("database_query_error", "receipt_repository")
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to find receipt")
	}

	return &receipt, nil
}

// FindByDateAndSequence returns every receipt whose stored DATA and Z
// fields equal the given wire strings.
func (r *MongoReceiptRepository) FindByDateAndSequence(ctx context.Context, date, sequence string) ([]*entity.Receipt, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("find", repository.CollReceipts, time.Since(start))
	}()

	cursor, err := r.collection.Find(ctx, bson.M{"DATA": date, "Z": sequence})
	if err != nil {
		r.metrics.RecordError("database_query_error", "receipt_repository")
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to find receipts")
	}
	defer cursor.Close(ctx)

	var receipts []*entity.Receipt
	if err := cursor.All(ctx, &receipts); err != nil {
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to decode receipts")
	}

	return receipts, nil
}
