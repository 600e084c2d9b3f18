package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/powerwolf1/bigData/domain/repository"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/pkg/metrics"
	"github.com/powerwolf1/bigData/shared/common"
)

// MongoAnalyticsRepository implements repository.AnalyticsRepository with
// aggregation pipelines. Every date filter works on the millisecond
// timestamp field that ConvertDateToTimestamp maintains, so collections
// must be backfilled before the range queries return anything.
type MongoAnalyticsRepository struct {
	client  *Client
	logger  *logging.Logger
	metrics *metrics.Collector
}

// NewMongoAnalyticsRepository creates an analytics repository.
func NewMongoAnalyticsRepository(client *Client, logger *logging.Logger, collector *metrics.Collector) *MongoAnalyticsRepository {
	return &MongoAnalyticsRepository{
		client:  client,
		logger:  logger.WithComponent("analytics_repository"),
		metrics: collector,
	}
}

// ConvertDateToTimestamp backfills the timestamp field of every document
// from its wire-form DATA string, merging in place.
func (r *MongoAnalyticsRepository) ConvertDateToTimestamp(ctx context.Context, collection string) error {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("aggregate", collection, time.Since(start))
	}()

	pipeline := mongo.Pipeline{
		{{Key: "$addFields", Value: bson.M{
			"timestamp": bson.M{
				"$dateFromString": bson.M{
					"dateString": "$DATA",
					"format":     "%d-%m-%Y",
				},
			},
		}}},
		{{Key: "$addFields", Value: bson.M{
			"timestamp": bson.M{"$toLong": "$timestamp"},
		}}},
		{{Key: "$merge", Value: bson.M{
			"into":        collection,
			"whenMatched": "merge",
		}}},
	}

	cursor, err := r.client.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		r.metrics.RecordError("database_query_error", "analytics_repository")
		return common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to backfill timestamps")
	}
	defer cursor.Close(ctx)

	r.logger.Info("Backfilled timestamps", logging.String("collection", collection))
	return nil
}

// timestampRange builds the millisecond epoch range filter.
func timestampRange(from, to time.Time) bson.M {
	return bson.M{
		"$gte": from.UnixMilli(),
		"$lte": to.UnixMilli(),
	}
}

// CountsByDateForDevices counts documents per date for the given devices.
// Parsed collections carry the device id in their nui field; raw
// collections only carry it as the prefix of the encoded identifier.
func (r *MongoAnalyticsRepository) CountsByDateForDevices(ctx context.Context, collection string, deviceIDs []string, from, to *time.Time) ([]repository.DateCount, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("aggregate", collection, time.Since(start))
	}()

	field := "_id"
	if collection == repository.CollReceiptsParsed || collection == repository.CollDailySummariesParsed {
		field = "nui"
	}

	patterns := make([]bson.M, 0, len(deviceIDs))
	for _, id := range deviceIDs {
		patterns = append(patterns, bson.M{field: bson.M{"$regex": "^" + id}})
	}

	and := []bson.M{{"$or": patterns}}
	if from != nil && to != nil {
		and = append(and, bson.M{"timestamp": timestampRange(*from, *to)})
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$and": and}}},
		{{Key: "$project", Value: bson.M{"_id": 1, "DATA": 1}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$DATA",
			"count": bson.M{"$sum": 1},
		}}},
	}

	var counts []repository.DateCount
	if err := r.aggregate(ctx, collection, pipeline, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// ZReports lists Z-report sequence numbers with their dates. Parsed
// collections carry nr_z directly; raw ones have it cut out of the
// encoded identifier in the pipeline.
func (r *MongoAnalyticsRepository) ZReports(ctx context.Context, collection string, from, to time.Time, sequence string) ([]repository.ZReportRow, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("aggregate", collection, time.Since(start))
	}()

	match := bson.M{"timestamp": timestampRange(from, to)}
	if sequence != "" {
		match["nr_z"] = sequence
	}

	var pipeline mongo.Pipeline
	switch collection {
	case repository.CollReceiptsParsed, repository.CollDailySummariesParsed:
		pipeline = mongo.Pipeline{
			{{Key: "$match", Value: match}},
			{{Key: "$project", Value: bson.M{"_id": 0, "nr_z": 1, "DATA": 1}}},
		}
	default:
		pipeline = mongo.Pipeline{
			{{Key: "$addFields", Value: bson.M{
				"nr_z": bson.M{"$substr": bson.A{"$_id", 24, 4}},
			}}},
			{{Key: "$match", Value: match}},
			{{Key: "$project", Value: bson.M{
				"_id":  0,
				"nr_z": bson.M{"$substr": bson.A{"$_id", 24, 4}},
				"DATA": 1,
			}}},
		}
	}

	var rows []repository.ZReportRow
	if err := r.aggregate(ctx, collection, pipeline, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// VATStats sums the four VAT bucket totals of a collection. Receipts and
// daily summaries name the buckets differently.
func (r *MongoAnalyticsRepository) VATStats(ctx context.Context, collection string, from, to *time.Time) (*repository.VATStats, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("aggregate", collection, time.Since(start))
	}()

	var fields [4]string
	switch collection {
	case repository.CollReceipts:
		fields = [4]string{"totA", "totB", "totC", "totD"}
	case repository.CollDailySummaries:
		fields = [4]string{"total_a", "total_b", "total_c", "total_d"}
	default:
		return nil, common.ErrInvalidInput("collection")
	}

	match := bson.M{}
	if from != nil && to != nil {
		match["timestamp"] = timestampRange(*from, *to)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$addFields", Value: bson.M{
			fields[0]: bson.M{"$toDouble": "$" + fields[0]},
			fields[1]: bson.M{"$toDouble": "$" + fields[1]},
			fields[2]: bson.M{"$toDouble": "$" + fields[2]},
			fields[3]: bson.M{"$toDouble": "$" + fields[3]},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":        nil,
			"total_totA": bson.M{"$sum": "$" + fields[0]},
			"total_totB": bson.M{"$sum": "$" + fields[1]},
			"total_totC": bson.M{"$sum": "$" + fields[2]},
			"total_totD": bson.M{"$sum": "$" + fields[3]},
		}}},
	}

	var results []repository.VATStats
	if err := r.aggregate(ctx, collection, pipeline, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &repository.VATStats{}, nil
	}
	return &results[0], nil
}

// SumsByHour totals sales per hour per calendar day.
func (r *MongoAnalyticsRepository) SumsByHour(ctx context.Context, collection string, from, to time.Time) ([]repository.HourlySum, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("aggregate", collection, time.Since(start))
	}()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": timestampRange(from, to)}}},
		{{Key: "$addFields", Value: bson.M{
			"hour": bson.M{"$toInt": bson.M{"$substr": bson.A{"$ORA", 0, 2}}},
			"date": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   bson.M{"$toDate": "$timestamp"},
			}},
			"total_double": bson.M{"$toDouble": "$total"},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":       bson.M{"hour": "$hour", "date": "$date"},
			"total_sum": bson.M{"$sum": "$total_double"},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "_id.date", Value: 1},
			{Key: "_id.hour", Value: 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":       0,
			"hour":      "$_id.hour",
			"date":      "$_id.date",
			"total_sum": 1,
		}}},
	}

	var sums []repository.HourlySum
	if err := r.aggregate(ctx, collection, pipeline, &sums); err != nil {
		return nil, err
	}
	return sums, nil
}

// SumsByDayOfWeek totals sales per day of week.
func (r *MongoAnalyticsRepository) SumsByDayOfWeek(ctx context.Context, collection string, from, to time.Time) ([]repository.WeekdaySum, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("aggregate", collection, time.Since(start))
	}()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": timestampRange(from, to)}}},
		{{Key: "$addFields", Value: bson.M{
			"date": bson.M{"$dateFromString": bson.M{
				"dateString": "$DATA",
				"format":     "%d-%m-%Y",
			}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":       bson.M{"day_of_week": bson.M{"$dayOfWeek": "$date"}},
			"total_sum": bson.M{"$sum": bson.M{"$toDouble": "$total"}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id.day_of_week", Value: 1}}}},
		{{Key: "$project", Value: bson.M{
			"_id":       "$_id.day_of_week",
			"total_sum": 1,
		}}},
	}

	var sums []repository.WeekdaySum
	if err := r.aggregate(ctx, collection, pipeline, &sums); err != nil {
		return nil, err
	}
	return sums, nil
}

// DailyReceiptCounts groups daily summaries by date and declared receipt
// count.
func (r *MongoAnalyticsRepository) DailyReceiptCounts(ctx context.Context, collection string, from, to time.Time) ([]repository.DailyReceiptCount, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("aggregate", collection, time.Since(start))
	}()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": timestampRange(from, to)}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"nr_bonuri": "$nr_bonuri", "date": "$DATA"},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":       0,
			"date":      "$_id.date",
			"nr_bonuri": "$_id.nr_bonuri",
			"count":     1,
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: 1}}}},
	}

	var counts []repository.DailyReceiptCount
	if err := r.aggregate(ctx, collection, pipeline, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

// FilteredSummaries returns daily summaries in a date range, optionally
// narrowed to one sequence number, with the sales total coerced to a
// number.
func (r *MongoAnalyticsRepository) FilteredSummaries(ctx context.Context, collection string, from, to time.Time, sequence string) ([]bson.M, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("aggregate", collection, time.Since(start))
	}()

	match := bson.M{"timestamp": timestampRange(from, to)}
	if sequence != "" {
		match["nr"] = sequence
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$project", Value: bson.M{
			"_id":           1,
			"nr":            1,
			"numerar":       1,
			"card":          1,
			"DATA":          1,
			"ORA":           1,
			"total_vanzari": bson.M{"$toDouble": "$total_vanzari"},
		}}},
	}

	var docs []bson.M
	if err := r.aggregate(ctx, collection, pipeline, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// aggregate runs a pipeline and decodes all results.
func (r *MongoAnalyticsRepository) aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline, results interface{}) error {
	cursor, err := r.client.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		r.metrics.RecordError("database_query_error", "analytics_repository")
		return common.WrapError(err, common.ErrCodeDatabaseQuery, "aggregation failed on "+collection)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, results); err != nil {
		return common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to decode aggregation results")
	}
	return nil
}
