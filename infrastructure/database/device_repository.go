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

// MongoDeviceRepository implements repository.DeviceRepository.
type MongoDeviceRepository struct {
	collection *mongo.Collection
	logger     *logging.Logger
	metrics    *metrics.Collector
}

// NewMongoDeviceRepository creates a device registration repository.
func NewMongoDeviceRepository(client *Client, logger *logging.Logger, collector *metrics.Collector) *MongoDeviceRepository {
	return &MongoDeviceRepository{
		collection: client.Collection(repository.CollDevices),
		logger:     logger.WithComponent("device_repository"),
		metrics:    collector,
	}
}

// FindByOrganizationName returns the device registered under the given
// organization name, or a not found error.
func (r *MongoDeviceRepository) FindByOrganizationName(ctx context.Context, name string) (*entity.DeviceRegistration, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("findOne", repository.CollDevices, time.Since(start))
	}()

	var device entity.DeviceRegistration
	err := r.collection.FindOne(ctx, bson.M{"firma": name}).Decode(&device)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, common.ErrNotFound("device registration")
		}
		r.metrics.RecordError("database_query_error", "device_repository")
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to find device registration")
	}

	return &device, nil
}

// ListIDsByOrganizationName returns every device id registered under the
// given organization name.
func (r *MongoDeviceRepository) ListIDsByOrganizationName(ctx context.Context, name string) ([]string, error) {
	start := time.Now()
	defer func() {
		r.metrics.RecordDatabaseQuery("find", repository.CollDevices, time.Since(start))
	}()

	cursor, err := r.collection.Find(ctx, bson.M{"firma": name})
	if err != nil {
		r.metrics.RecordError("database_query_error", "device_repository")
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to list device registrations")
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var device entity.DeviceRegistration
		if err := cursor.Decode(&device); err != nil {
			return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "failed to decode device registration")
		}
		ids = append(ids, device.DeviceID)
	}
	if err := cursor.Err(); err != nil {
		return nil, common.WrapError(err, common.ErrCodeDatabaseQuery, "cursor error listing device registrations")
	}

	return ids, nil
}
