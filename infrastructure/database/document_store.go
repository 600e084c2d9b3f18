package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/powerwolf1/bigData/domain/repository"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/pkg/metrics"
	"github.com/powerwolf1/bigData/shared/common"
)

// MongoDocumentStore implements repository.DocumentStore, the schemaless
// passthrough surface behind the dashboard CRUD endpoints. Mutations go
// through the circuit breaker.
type MongoDocumentStore struct {
	client  *Client
	logger  *logging.Logger
	metrics *metrics.Collector
}

// NewMongoDocumentStore creates a generic document store.
func NewMongoDocumentStore(client *Client, logger *logging.Logger, collector *metrics.Collector) *MongoDocumentStore {
	return &MongoDocumentStore{
		client:  client,
		logger:  logger.WithComponent("document_store"),
		metrics: collector,
	}
}

// Insert adds one document and returns its id as a string.
func (s *MongoDocumentStore) Insert(ctx context.Context, collection string, doc bson.M) (string, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordDatabaseQuery("insert", collection, time.Since(start))
	}()

	res, err := s.client.Execute(func() (interface{}, error) {
		return s.client.Collection(collection).InsertOne(ctx, doc)
	})
	if err != nil {
		s.metrics.RecordError("database_insert_error", "document_store")
		return "", common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to insert document")
	}

	return renderID(res.(*mongo.InsertOneResult).InsertedID), nil
}

// InsertMany adds a batch of documents and returns their ids.
func (s *MongoDocumentStore) InsertMany(ctx context.Context, collection string, docs []interface{}) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	start := time.Now()
	defer func() {
		s.metrics.RecordDatabaseQuery("insertMany", collection, time.Since(start))
	}()

	res, err := s.client.Execute(func() (interface{}, error) {
		return s.client.Collection(collection).InsertMany(ctx, docs)
	})
	if err != nil {
		s.metrics.RecordError("database_insert_error", "document_store")
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to insert documents")
	}

	inserted := res.(*mongo.InsertManyResult).InsertedIDs
	ids := make([]string, 0, len(inserted))
	for _, id := range inserted {
		ids = append(ids, renderID(id))
	}
	return ids, nil
}

// UpdateByID applies a $set of the given fields to one document.
func (s *MongoDocumentStore) UpdateByID(ctx context.Context, collection string, id interface{}, fields bson.M) error {
	start := time.Now()
	defer func() {
		s.metrics.RecordDatabaseQuery("updateOne", collection, time.Since(start))
	}()

	res, err := s.client.Execute(func() (interface{}, error) {
		return s.client.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	})
	if err != nil {
		s.metrics.RecordError("database_update_error", "document_store")
		return common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to update document")
	}
	if res.(*mongo.UpdateResult).MatchedCount == 0 {
		return common.ErrNotFound("document")
	}

	return nil
}

// DeleteByID removes one document.
func (s *MongoDocumentStore) DeleteByID(ctx context.Context, collection string, id interface{}) error {
	start := time.Now()
	defer func() {
		s.metrics.RecordDatabaseQuery("deleteOne", collection, time.Since(start))
	}()

	res, err := s.client.Execute(func() (interface{}, error) {
		return s.client.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	})
	if err != nil {
		s.metrics.RecordError("database_delete_error", "document_store")
		return common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to delete document")
	}
	if res.(*mongo.DeleteResult).DeletedCount == 0 {
		return common.ErrNotFound("document")
	}

	return nil
}

// DropCollection removes a whole collection.
func (s *MongoDocumentStore) DropCollection(ctx context.Context, collection string) error {
	start := time.Now()
	defer func() {
		s.metrics.RecordDatabaseQuery("drop", collection, time.Since(start))
	}()

	_, err := s.client.Execute(func() (interface{}, error) {
		return nil, s.client.Collection(collection).Drop(ctx)
	})
	if err != nil {
		s.metrics.RecordError("database_delete_error", "document_store")
		return common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to drop collection")
	}

	s.logger.Info("Dropped collection", logging.String("collection", collection))
	return nil
}

// FindByID returns one document as a raw map.
func (s *MongoDocumentStore) FindByID(ctx context.Context, collection string, id interface{}) (bson.M, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordDatabaseQuery("findOne", collection, time.Since(start))
	}()

	var doc bson.M
	err := s.client.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, common.ErrNotFound("document")
		}
		s.metrics.RecordError("database_query_error", "document_store")
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to find document")
	}

	return doc, nil
}

// FindPage returns a page of documents, optionally bounded by the
// millisecond timestamp field the date backfill maintains.
func (s *MongoDocumentStore) FindPage(ctx context.Context, collection string, from, to *time.Time, limit, skip int64) ([]bson.M, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordDatabaseQuery("find", collection, time.Since(start))
	}()

	filter := bson.M{}
	if from != nil || to != nil {
		ts := bson.M{}
		if from != nil {
			ts["$gte"] = from.UnixMilli()
		}
		if to != nil {
			ts["$lte"] = to.UnixMilli()
		}
		filter["timestamp"] = ts
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	if skip > 0 {
		opts.SetSkip(skip)
	}

	cursor, err := s.client.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		s.metrics.RecordError("database_query_error", "document_store")
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to find documents")
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to decode documents")
	}

	return docs, nil
}

// FieldNames returns the field names of one sampled document, the closest
// thing a schemaless collection has to a schema.
func (s *MongoDocumentStore) FieldNames(ctx context.Context, collection string) ([]string, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordDatabaseQuery("findOne", collection, time.Since(start))
	}()

	var doc bson.D
	err := s.client.Collection(collection).FindOne(ctx, bson.M{}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, common.ErrNotFound("collection sample")
		}
		s.metrics.RecordError("database_query_error", "document_store")
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to sample collection")
	}

	fields := make([]string, 0, len(doc))
	for _, elem := range doc {
		fields = append(fields, elem.Key)
	}
	return fields, nil
}

// CollectionCounts returns the document count of every known collection.
func (s *MongoDocumentStore) CollectionCounts(ctx context.Context) (map[string]int64, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecordDatabaseQuery("count", "all", time.Since(start))
	}()

	collections := []string{
		repository.CollOrganizations,
		repository.CollDevices,
		repository.CollReceipts,
		repository.CollReceiptsParsed,
		repository.CollDailySummaries,
		repository.CollDailySummariesParsed,
		repository.CollLineItems,
		repository.CollLineItemsParsed,
		repository.CollAggregated,
	}

	counts := make(map[string]int64, len(collections))
	for _, name := range collections {
		count, err := s.client.Collection(name).CountDocuments(ctx, bson.M{})
		if err != nil {
			s.metrics.RecordError("database_query_error", "document_store")
			return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to count "+name)
		}
		counts[name] = count
	}

	return counts, nil
}

// renderID renders an inserted id in its string form.
func renderID(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return ""
	}
}
