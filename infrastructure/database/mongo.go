package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/powerwolf1/bigData/config"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/shared/common"
)

// Client wraps the MongoDB connection shared by every repository. All
// database calls go through the circuit breaker so a dead cluster fails
// fast instead of stacking up timed-out queries.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *logging.Logger
	breaker  *gobreaker.CircuitBreaker
}

// NewClient connects to MongoDB and verifies the connection with a ping.
func NewClient(cfg config.MongoDBConfig, logger *logging.Logger) (*Client, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI)
	clientOpts.SetMaxPoolSize(cfg.MaxPoolSize)
	clientOpts.SetMinPoolSize(cfg.MinPoolSize)
	clientOpts.SetConnectTimeout(cfg.ConnectTimeout)
	clientOpts.SetSocketTimeout(cfg.SocketTimeout)
	clientOpts.SetServerSelectionTimeout(cfg.ServerSelectionTimeout)

	if cfg.Username != "" {
		clientOpts.SetAuth(options.Credential{
			AuthSource: cfg.AuthSource,
			Username:   cfg.Username,
			Password:   cfg.Password,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, common.WrapError(err, common.ErrCodeDatabaseConnection, "failed to connect to MongoDB")
	}

	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		return nil, common.WrapError(err, common.ErrCodeDatabaseConnection, "failed to ping MongoDB")
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "mongodb",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				logging.String("name", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()))
		},
	})

	logger.Info("MongoDB client initialized",
		logging.String("database", cfg.Database))

	return &Client{
		client:   mongoClient,
		database: mongoClient.Database(cfg.Database),
		logger:   logger,
		breaker:  breaker,
	}, nil
}

// Database returns the underlying database handle.
func (c *Client) Database() *mongo.Database {
	return c.database
}

// Collection returns a collection handle by name.
func (c *Client) Collection(name string) *mongo.Collection {
	return c.database.Collection(name)
}

// Execute runs a database operation through the circuit breaker.
func (c *Client) Execute(op func() (interface{}, error)) (interface{}, error) {
	return c.breaker.Execute(op)
}

// Health reports whether the cluster responds to a ping.
func (c *Client) Health(ctx context.Context) bool {
	return c.client.Ping(ctx, nil) == nil
}

// Close disconnects from MongoDB.
func (c *Client) Close(ctx context.Context) error {
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect MongoDB client: %w", err)
	}
	c.logger.Info("MongoDB client closed")
	return nil
}
