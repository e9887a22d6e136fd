package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Payment   PaymentConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Env             string        `envconfig:"APP_ENV" default:"development"`
	LogLevel        string        `envconfig:"LOG_LEVEL"`
	Port            string        `envconfig:"APP_PORT" default:"8080"`
	FrontendURL     string        `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

type DBConfig struct {
	DSN      string `envconfig:"DB_URL"`
	Host     string `envconfig:"DB_HOST"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER"`
	Password string `envconfig:"DB_PASSWORD"`
	Name     string `envconfig:"DB_NAME"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

// ConnString returns DSN when set, otherwise a key/value connection string
// built from the discrete fields.
func (d DBConfig) ConnString() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

// RedisConfig is optional; an empty URL keeps order locks in-process.
type RedisConfig struct {
	URL     string        `envconfig:"REDIS_URL"`
	LockTTL time.Duration `envconfig:"REDIS_LOCK_TTL" default:"30s"`
}

// KafkaConfig is optional; no brokers disables event publication.
type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"storefront.events"`
}

type PaymentConfig struct {
	BaseURL         string        `envconfig:"PAYMENT_BASE_URL" default:"https://api.paystack.co"`
	SecretKey       string        `envconfig:"PAYMENT_SECRET_KEY"`
	SecretKeyFile   string        `envconfig:"PAYMENT_SECRET_KEY_FILE"`
	Currency        string        `envconfig:"PAYMENT_CURRENCY" default:"GHS"`
	Timeout         time.Duration `envconfig:"PAYMENT_TIMEOUT" default:"15s"`
	CredentialTTL   time.Duration `envconfig:"PAYMENT_CREDENTIAL_TTL" default:"5m"`
	VerifyAttempts  uint64        `envconfig:"PAYMENT_VERIFY_ATTEMPTS" default:"3"`
	VerifyBaseDelay time.Duration `envconfig:"PAYMENT_VERIFY_BASE_DELAY" default:"200ms"`
}

type JWTConfig struct {
	Secret string        `envconfig:"SECRET_KEY"`
	TTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`
}

type RateLimitConfig struct {
	InternalKey string `envconfig:"INTERNAL_SECRET_KEY"`
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DB.DSN == "" && c.DB.Host == "" {
		return errors.New("database not configured: set DB_URL or DB_HOST")
	}
	if c.Payment.SecretKey == "" && c.Payment.SecretKeyFile == "" {
		return errors.New("payment secret not configured: set PAYMENT_SECRET_KEY or PAYMENT_SECRET_KEY_FILE")
	}
	if c.IsProduction() && c.JWT.Secret == "" {
		return errors.New("SECRET_KEY is required in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
