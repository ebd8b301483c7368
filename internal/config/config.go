package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Database holds MySQL connection settings.
type Database struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	User     string `envconfig:"DB_USER" default:"commerce"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME" default:"commerce"`
}

// Config is the full runtime configuration for both the API and the worker.
type Config struct {
	// RunLocal switches from the Lambda runtime to a plain process.
	RunLocal bool   `envconfig:"RUN_LOCAL"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	AWSRegion        string `envconfig:"AWS_REGION" default:"us-east-1"`
	IdempotencyTable string `envconfig:"IDEMPOTENCY_TABLE"`
	OrdersQueueURL   string `envconfig:"ORDERS_QUEUE_URL"`
	MetricsNamespace string `envconfig:"METRICS_NAMESPACE" default:"CommerceBackend"`

	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"48h"`
	MigrationsDir  string        `envconfig:"MIGRATIONS_DIR" default:"migrations"`

	Database Database
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
