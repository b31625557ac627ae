package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	aws_pkg "storefront-service/pkg/aws"

	"github.com/joho/godotenv"
)

const (
	dbCredentialsSecret = "storefront/DB_CREDENTIALS"
	jwtSecretName       = "storefront/JWT_SECRET"
)

type Config struct {
	Port   string
	AppEnv string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	MongoURL string
	MongoDB  string

	RedisURL        string
	CartTTL         time.Duration
	ProductCacheTTL time.Duration

	AWSEndpoint         string
	ProductsTable       string
	CountersTable       string
	ProductImagesBucket string
	OrderSNSTopicArn    string
	CheckoutQueueURL    string
	CloudWatchEnabled   bool
	MetricsEnabled      bool
	MetricsNamespace    string

	KafkaBrokers     []string
	OrderEventsTopic string

	JWTSecret      string
	OrderIDPrefix  string
	AllowedOrigins []string

	RateLimitPerMinute int
	RateLimitBurst     int
	RequestTimeout     time.Duration
}

// SecretSource is the subset of the Secrets Manager client used for overrides.
type SecretSource interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
	GetSecret(ctx context.Context, name string) (string, error)
}

// Load reads configuration from the environment (and an optional .env file). When
// AWS_USE_SECRETS=true, database credentials and the JWT secret come from Secrets Manager.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := FromEnv()

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
		if err != nil {
			return nil, err
		}
		ApplySecrets(context.Background(), cfg, aws_pkg.NewSecretsClient(awsCfg))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables and defaults only.
func FromEnv() *Config {
	return &Config{
		Port:   getEnv("PORT", "8092"),
		AppEnv: getEnv("APP_ENV", "development"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),

		MongoURL: getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "storefront"),

		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379"),
		CartTTL:         getDuration("CART_TTL", 7*24*time.Hour),
		ProductCacheTTL: getDuration("PRODUCT_CACHE_TTL", 10*time.Minute),

		AWSEndpoint:         os.Getenv("AWS_ENDPOINT"),
		ProductsTable:       getEnv("DYNAMODB_PRODUCTS_TABLE", "storefront-products"),
		CountersTable:       getEnv("DYNAMODB_COUNTERS_TABLE", "storefront-counters"),
		ProductImagesBucket: os.Getenv("PRODUCT_IMAGES_BUCKET"),
		OrderSNSTopicArn:    os.Getenv("ORDER_SNS_TOPIC_ARN"),
		CheckoutQueueURL:    os.Getenv("CHECKOUT_QUEUE_URL"),
		CloudWatchEnabled:   os.Getenv("CLOUDWATCH_ENABLED") == "true",
		MetricsEnabled:      os.Getenv("METRICS_ENABLED") == "true",
		MetricsNamespace:    getEnv("METRICS_NAMESPACE", "Storefront"),

		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic: getEnv("ORDER_EVENTS_TOPIC", "order.events"),

		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		OrderIDPrefix: getEnv("ORDER_ID_PREFIX", "ORD"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS",
			"http://localhost:3000,http://localhost:5173")),

		RateLimitPerMinute: getInt("RATE_LIMIT_PER_MINUTE", 30),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", 5),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
	}
}

// ApplySecrets overrides credentials from src. Missing secrets leave the env values in place.
func ApplySecrets(ctx context.Context, cfg *Config, src SecretSource) {
	if m, err := src.GetSecretMap(ctx, dbCredentialsSecret); err == nil {
		override := func(dst *string, key string) {
			if v, ok := m[key]; ok && v != "" {
				*dst = v
			}
		}
		override(&cfg.PostgresUser, "POSTGRES_USER")
		override(&cfg.PostgresPassword, "POSTGRES_PASSWORD")
		override(&cfg.PostgresDB, "POSTGRES_DB")
		override(&cfg.PostgresHost, "POSTGRES_HOST")
		override(&cfg.PostgresPort, "POSTGRES_PORT")
	}
	if s, err := src.GetSecret(ctx, jwtSecretName); err == nil && strings.TrimSpace(s) != "" {
		cfg.JWTSecret = strings.TrimSpace(s)
	}
}

// Validate reports configuration the service cannot start without.
func (c *Config) Validate() error {
	if c.PostgresUser == "" || c.PostgresPassword == "" || c.PostgresDB == "" || c.PostgresHost == "" {
		return fmt.Errorf("database config incomplete")
	}
	if c.CartTTL <= 0 || c.ProductCacheTTL <= 0 {
		return fmt.Errorf("CART_TTL and PRODUCT_CACHE_TTL must be positive")
	}
	return nil
}

// PostgresDSN renders the gorm postgres DSN.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB,
		c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
