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

// MongoOrganizationRepository implements repository.OrganizationRepository.
type MongoOrganizationRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
	metrics    *metrics.Collector
}

// NewMongoOrganizationRepository creates an organization repository over
// the merchant registry collection.
func NewMongoOrganizationRepository(client *Client, logger *logging.Logger, collector *metrics.Collector) *MongoOrganizationRepository {
	return &MongoOrganizationRepository{
		collection: client.Collection(repository.CollOrganizations),
		logger:     logger.WithComponent("organization_repository"),
		metrics:    collector,
	}
}

// List returns every registered organization.
func (r *MongoOrganizationRepository) List(ctx context.Context) ([]*entity.Organization, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("find", repository.CollOrganizations, time.Since(start))
	}()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		r.metrics.RecordError("database_query_error", "organization_repository")
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to list organizations")
	}
	defer cursor.Close(ctx)

	var orgs []*entity.Organization
	if err := cursor.All(ctx, &orgs); err != nil {
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to decode organizations")
	}

	return orgs, nil
}
