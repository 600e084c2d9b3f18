package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/powerwolf1/bigData/domain/entity"
	"github.com/powerwolf1/bigData/domain/repository"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/pkg/metrics"
	"github.com/powerwolf1/bigData/shared/common"
)

// MongoLineItemRepository implements repository.LineItemRepository.
type MongoLineItemRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
	metrics    *metrics.Collector
}

// NewMongoLineItemRepository creates a line item repository.
func NewMongoLineItemRepository(client *Client, logger *logging.Logger, collector *metrics.Collector) *MongoLineItemRepository {
	return &MongoLineItemRepository{
		collection: client.Collection(repository.CollLineItems),
		logger:     logger.WithComponent("lineitem_repository"),
		metrics:    collector,
	}
}

// ListReceiptIDs returns the receipt identifier carried by every line item.
func (r *MongoLineItemRepository) ListReceiptIDs(ctx context.Context) ([]string, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("find", repository.CollLineItems, time.Since(start))
	}()

	opts := options.Find().SetProjection(bson.M{"bon_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.metrics.RecordError("database_query_error", "lineitem_repository")
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to list line item receipt ids")
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ReceiptID string `bson:"bon_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to decode line item")
		}
		ids = append(ids, doc.ReceiptID)
	}
	if err := cursor.Err(); err != nil {
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "cursor error listing line items")
	}

	return ids, nil
}

// ListAll returns every line item.
func (r *MongoLineItemRepository) ListAll(ctx context.Context) ([]*entity.LineItem, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("find", repository.CollLineItems, time.Since(start))
	}()

	return r.find(ctx, bson.M{})
}

// FindByReceiptID returns every line item on the given receipt.
func (r *MongoLineItemRepository) FindByReceiptID(ctx context.Context, receiptID string) ([]*entity.LineItem, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("find", repository.CollLineItems, time.Since(start))
	}()

	return r.find(ctx, bson.M{"bon_id": receiptID})
}

func (r *MongoLineItemRepository) find(ctx context.Context, filter bson.M) ([]*entity.LineItem, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		r.metrics.RecordError("database_query_error", "lineitem_repository")
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to find line items")
	}
	defer cursor.Close(ctx)

	var items []*entity.LineItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to decode line items")
	}

	return items, nil
}
