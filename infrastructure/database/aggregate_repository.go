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

// MongoAggregateRepository implements repository.AggregateRepository.
// Writes go through the circuit breaker: the aggregated collection is the
// only one this service appends to continuously.
type MongoAggregateRepository struct {
	client     *Client
	collection *mongo.Collection
	logger     *logging.Logger
	metrics    *metrics.Collector
}

// NewMongoAggregateRepository creates an aggregate output repository.
func NewMongoAggregateRepository(client *Client, logger *logging.Logger, collector *metrics.Collector) *MongoAggregateRepository {
	return &MongoAggregateRepository{
		client:     client,
		collection: client.Collection(repository.CollAggregated),
		logger:     logger.WithComponent("aggregate_repository"),
		metrics:    collector,
	}
}

// Insert appends one aggregate record.
func (r *MongoAggregateRepository) Insert(ctx context.Context, record *entity.AggregateRecord) error {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("insert", repository.CollAggregated, time.Since(start))
	}()

	_, err := r.client.Execute(func() (interface{}, error) {
		return r.collection.InsertOne(ctx, record)
	})
	if err != nil {
		r.metrics.RecordError("database_insert_error", "aggregate_repository")
		return common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to insert aggregate record")
	}

	return nil
}

// Count returns the number of aggregate records.
func (r *MongoAggregateRepository) Count(ctx context.Context) (int64, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("count", repository.CollAggregated, time.Since(start))
	}()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		r.metrics.RecordError("database_query_error", "aggregate_repository")
		return 0, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to count aggregate records")
	}

	return count, nil
}

// ListByDateRange returns aggregate records whose wire-form date falls in
// the given range. Nil bounds are open.
func (r *MongoAggregateRepository) ListByDateRange(ctx context.Context, from, to *time.Time) ([]*entity.AggregateRecord, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("find", repository.CollAggregated, time.Since(start))
	}()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		r.metrics.RecordError("database_query_error", "aggregate_repository")
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to list aggregate records")
	}
	defer cursor.Close(ctx)

	var records []*entity.AggregateRecord
	for cursor.Next(ctx) {
		var record entity.AggregateRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to decode aggregate record")
		}
		if from != nil || to != nil {
			date, err := entity.ParseWireDate(record.Date)
			if err != nil {
				continue
			}
			if from != nil && date.Before(*from) {
				continue
			}
			if to != nil && date.After(*to) {
				continue
			}
		}
		records = append(records, &record)
	}
	if err := cursor.Err(); err != nil {
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "cursor error listing aggregate records")
	}

	return records, nil
}
