package config

import (
	"errors"
	"fmt"
	"time"

	"go-simpler.org/env"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" default:"dev"`
	LogLevel string `env:"LOG_LEVEL" default:"info"`

	Reddit RedditConfig
	Filter FilterConfig

	DataDir        string `env:"DATA_DIR" default:"data"`
	CollectionFile string `env:"COLLECTION_FILE" default:"reddit_data_pull.csv"`
	SourcesFile    string `env:"SOURCES_FILE"`
	Sources        string `env:"SOURCES"`
	SearchTerms    string `env:"SEARCH_TERMS"`

	Archive ArchiveConfig
	Sinks   SinkConfig
	Valkey  ValkeyConfig
}

type RedditConfig struct {
	ClientID          string        `env:"REDDIT_CLIENT_ID"`
	ClientSecret      string        `env:"REDDIT_CLIENT_SECRET"`
	UserAgent         string        `env:"REDDIT_USER_AGENT" default:"postsentiment-bot/0.1"`
	AuthURL           string        `env:"REDDIT_AUTH_URL" default:"https://www.reddit.com/api/v1/access_token"`
	APIURL            string        `env:"REDDIT_API_URL" default:"https://oauth.reddit.com"`
	RequestsPerSecond float64       `env:"REDDIT_REQUESTS_PER_SECOND" default:"1"`
	RequestTimeout    time.Duration `env:"REDDIT_REQUEST_TIMEOUT" default:"30s"`
}

type FilterConfig struct {
	MinLength  int `env:"FILTER_MIN_LENGTH" default:"10"`
	MaxRecords int `env:"FILTER_MAX_RECORDS" default:"3"`
}

type ArchiveConfig struct {
	Bucket   string `env:"ARCHIVE_BUCKET"`
	Region   string `env:"AWS_REGION" default:"us-west-2"`
	Endpoint string `env:"AWS_ENDPOINT"`
}

type SinkConfig struct {
	DynamoDBTable string `env:"DYNAMODB_TABLE"`
	KafkaBroker   string `env:"KAFKA_BROKER"`
	KafkaTopic    string `env:"KAFKA_TOPIC" default:"reddit.sentiment.results"`
}

type ValkeyConfig struct {
	InitAddress string        `env:"VALKEY_INIT_ADDRESS"`
	Password    string        `env:"VALKEY_PASSWORD"`
	UseTLS      bool          `env:"VALKEY_TLS" default:"false"`
	SeenTTL     time.Duration `env:"VALKEY_SEEN_TTL" default:"24h"`
}

// Load reads the configuration from the environment. Call LoadEnv first when
// an env file should be honoured.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("[Config] failed to load environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return errors.New("[Config] DATA_DIR must not be empty")
	}
	if c.Filter.MinLength < 0 {
		return fmt.Errorf("[Config] FILTER_MIN_LENGTH must be >= 0, got %d", c.Filter.MinLength)
	}
	if c.Reddit.RequestsPerSecond <= 0 {
		return fmt.Errorf("[Config] REDDIT_REQUESTS_PER_SECOND must be > 0, got %v", c.Reddit.RequestsPerSecond)
	}
	return nil
}

// RequireReddit reports whether the Reddit credentials needed for collection are set.
func (c *Config) RequireReddit() error {
	required := map[string]string{
		"REDDIT_CLIENT_ID":     c.Reddit.ClientID,
		"REDDIT_CLIENT_SECRET": c.Reddit.ClientSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("[Config] %s is required", name)
		}
	}
	return nil
}
