package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/pkg/metrics"
)

// Config represents the configuration for the ECR reporting service.
type Config struct {
	Service        ServiceConfig        `mapstructure:"service"`
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Reconciliation ReconciliationConfig `mapstructure:"reconciliation"`
	Logging        logging.Config       `mapstructure:"logging"`
	Metrics        metrics.Config       `mapstructure:"metrics"`
}

// ServiceConfig contains service-specific configuration.
type ServiceConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig contains database configuration.
type DatabaseConfig struct {
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
}

// MongoDBConfig contains MongoDB configuration.
type MongoDBConfig struct {
	URI                    string        `mapstructure:"uri"`
	Database               string        `mapstructure:"database"`
	Username               string        `mapstructure:"username"`
	Password               string        `mapstructure:"password"`
	AuthSource             string        `mapstructure:"auth_source"`
	MaxPoolSize            uint64        `mapstructure:"max_pool_size"`
	MinPoolSize            uint64        `mapstructure:"min_pool_size"`
	ConnectTimeout         time.Duration `mapstructure:"connect_timeout"`
	SocketTimeout          time.Duration `mapstructure:"socket_timeout"`
	ServerSelectionTimeout time.Duration `mapstructure:"server_selection_timeout"`
}

// ReconciliationConfig contains reconciliation engine configuration.
type ReconciliationConfig struct {
	// StopOnFirstFailure preserves the historical behavior where a single
	// broken linkage aborts the run for every remaining organization. Set to
	// false to skip the broken organization and continue.
	StopOnFirstFailure bool          `mapstructure:"stop_on_first_failure"`
	QueryTimeout       time.Duration `mapstructure:"query_timeout"`
}

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("ECR")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("service.name", "ecr-reporting")
	viper.SetDefault("service.version", "1.0.0")
	viper.SetDefault("service.environment", "development")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	viper.SetDefault("database.mongodb.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.mongodb.database", "bigDataDB")
	viper.SetDefault("database.mongodb.auth_source", "admin")
	viper.SetDefault("database.mongodb.max_pool_size", 100)
	viper.SetDefault("database.mongodb.min_pool_size", 5)
	viper.SetDefault("database.mongodb.connect_timeout", "30s")
	viper.SetDefault("database.mongodb.socket_timeout", "30s")
	viper.SetDefault("database.mongodb.server_selection_timeout", "30s")

	viper.SetDefault("reconciliation.stop_on_first_failure", true)
	viper.SetDefault("reconciliation.query_timeout", "30s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.namespace", "ecr")
	viper.SetDefault("metrics.path", "/metrics")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return fmt.Errorf("service name is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.Port)
	}
	if c.Database.MongoDB.URI == "" {
		return fmt.Errorf("mongodb uri is required")
	}
	if c.Database.MongoDB.Database == "" {
		return fmt.Errorf("mongodb database is required")
	}
	if c.Reconciliation.QueryTimeout <= 0 {
		return fmt.Errorf("reconciliation query timeout must be positive")
	}
	return nil
}
