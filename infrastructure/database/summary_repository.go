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

// MongoSummaryRepository implements repository.SummaryRepository over the
// raw and parsed daily summary collections.
type MongoSummaryRepository struct {
	raw     *mongo.Collection
	parsed  *mongo.Collection
	logger  *logging.Logger
	metrics *metrics.Collector
}

// NewMongoSummaryRepository creates a daily summary repository.
func NewMongoSummaryRepository(client *Client, logger *logging.Logger, collector *metrics.Collector) *MongoSummaryRepository {
	return &MongoSummaryRepository{
		raw:     client.Collection(repository.CollDailySummaries),
		parsed:  client.Collection(repository.CollDailySummariesParsed),
		logger:  logger.WithComponent("summary_repository"),
		metrics: collector,
	}
}

// ListIdentifiers returns the encoded identifier of every raw summary.
func (r *MongoSummaryRepository) ListIdentifiers(ctx context.Context) ([]string, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("find", repository.CollDailySummaries, time.Since(start))
	}()

	return listIdentifiers(ctx, r.raw, "daily summaries")
}

// FindParsedByDeviceID returns one parsed summary for the given device.
func (r *MongoSummaryRepository) FindParsedByDeviceID(ctx context.Context, deviceID int64) (*entity.DailySummaryParsed, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("findOne", repository.CollDailySummariesParsed, time.Since(start))
	}()

	var summary entity.DailySummaryParsed
	err := r.parsed.FindOne(ctx, bson.M{"nui": deviceID}).Decode(&summary)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, common.ErrNotFound("parsed daily summary")
		}
		r.metrics.RecordError("database_query_error", "summary_repository")
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to find parsed daily summary")
	}

	return &summary, nil
}

// FindRawByBusinessKey matches a raw summary by identifier prefix plus the
// stored date and sequence fields. The identifier prefix stands in for the
// device id, which raw documents only carry inside their encoded key.
func (r *MongoSummaryRepository) FindRawByBusinessKey(ctx context.Context, deviceID, date, sequence string) (*entity.DailySummary, error) {
	return r.FindOne(ctx, bson.M{
		"_id":  bson.M{"$regex": "^" + deviceID},
		"DATA": date,
		"nr":   sequence,
	})
}

// FindOne matches a raw summary by exact field equality.
func (r *MongoSummaryRepository) FindOne(ctx context.Context, filter bson.M) (*entity.DailySummary, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("findOne", repository.CollDailySummaries, time.Since(start))
	}()

	var summary entity.DailySummary
	err := r.raw.FindOne(ctx, filter).Decode(&summary)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, common.ErrNotFound("daily summary")
		}
		r.metrics.RecordError("database_query_error", "summary_repository")
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to find daily summary")
	}

	return &summary, nil
}

// listIdentifiers streams only the _id field of every document.
func listIdentifiers(ctx context.Context, collection *mongo.Collection, what string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to list "+what)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to decode "+what)
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "cursor error listing "+what)
	}

	return ids, nil
}
