package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPPort        string        `envconfig:"HTTP_PORT" default:"8080"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`

	MongoURI        string        `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDBName     string        `envconfig:"MONGO_DB_NAME" default:"acai_store"`
	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"1m"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"720h"`

	// Order events are not published when no brokers are set.
	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS"`
	OrderEventsTopic string   `envconfig:"ORDER_EVENTS_TOPIC" default:"order-events"`

	// The order archive is disabled when DB_HOST is empty.
	DBHost         string `envconfig:"DB_HOST"`
	DBPort         int    `envconfig:"DB_PORT" default:"5432"`
	DBUser         string `envconfig:"DB_USER" default:"postgres"`
	DBPassword     string `envconfig:"DB_PASSWORD"`
	DBName         string `envconfig:"DB_NAME" default:"acai_store"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH" default:"internal/repository/migrations"`

	StatusTick time.Duration `envconfig:"STATUS_TICK" default:"1m"`
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if cfg.StatusTick <= 0 {
		return nil, fmt.Errorf("STATUS_TICK must be positive, got %s", cfg.StatusTick)
	}
	return &cfg, nil
}
