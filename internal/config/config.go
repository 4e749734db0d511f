package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix namespaces every environment variable, e.g. GEOTRACK_DATABASE_URL.
const Prefix = "GEOTRACK"

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	Debug     bool   `envconfig:"DEBUG" default:"false"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// APIToken protects the HTTP API with a bearer token when set.
	APIToken string `envconfig:"API_TOKEN"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL       string `envconfig:"OPENAI_BASE_URL"`
	OpenAIWebSearch     bool   `envconfig:"OPENAI_WEB_SEARCH" default:"false"`
	OpenAIFallbackModel string `envconfig:"OPENAI_FALLBACK_MODEL" default:"gpt-4.1"`

	AnthropicAPIKey  string `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string `envconfig:"ANTHROPIC_BASE_URL"`
	AnthropicVersion string `envconfig:"ANTHROPIC_VERSION" default:"2023-06-01"`

	GoogleAPIKey  string `envconfig:"GOOGLE_API_KEY"`
	GoogleBaseURL string `envconfig:"GOOGLE_BASE_URL"`

	MistralAPIKey string `envconfig:"MISTRAL_API_KEY"`

	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`

	JobConcurrency int64         `envconfig:"JOB_CONCURRENCY" default:"2"`
	JobRetention   int           `envconfig:"JOB_RETENTION" default:"1000"`
	RedisURL       string        `envconfig:"REDIS_URL"`
	JobTTL         time.Duration `envconfig:"JOB_TTL" default:"24h"`

	TopicsPollInterval time.Duration `envconfig:"TOPICS_POLL_INTERVAL" default:"30s"`
	TopicsBatchSize    int           `envconfig:"TOPICS_BATCH_SIZE" default:"20"`
	DefaultSector      string        `envconfig:"DEFAULT_SECTOR" default:"tech_general"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"geotrack-raw"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if cfg.JobConcurrency < 1 {
		return nil, fmt.Errorf("%s_JOB_CONCURRENCY must be at least 1", Prefix)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasAnthropic() bool {
	return c.AnthropicAPIKey != ""
}

func (c *Config) HasGoogle() bool {
	return c.GoogleAPIKey != ""
}

// TracesSampleRate samples every transaction in development and 10% elsewhere.
func (c *Config) TracesSampleRate() float64 {
	if c.Environment == "development" {
		return 1.0
	}
	return 0.1
}
