package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Airtable AirtableConfig
	Auth     AuthConfig
	Ingest   IngestConfig
}

type ServerConfig struct {
	Port string
	Host string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RabbitMQConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	VHost    string
}

// AirtableConfig holds everything needed to talk to the Airtable API:
// the OAuth application credentials used for user login and the personal
// access token used for webhook registration and payload fetches.
type AirtableConfig struct {
	APIBaseURL       string
	AuthURL          string
	TokenURL         string
	ClientID         string
	ClientSecret     string
	RedirectURI      string
	PersonalToken    string
	BaseID           string
	TableID          string
	WebhookPublicURL string
}

type AuthConfig struct {
	JWTSecret string
}

// IngestConfig controls the webhook ingestion pipeline.
type IngestConfig struct {
	Queue          string
	Exchange       string
	RoutingKey     string
	PrefetchCount  int
	HTTPTimeout    int // seconds
	MaxPagesPerRun int
}

func Load() (*Config, error) {
	var missing []string

	get := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			missing = append(missing, key)
		}
		return val
	}

	getDefault := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	getInt := func(key string, fallback int) int {
		if val := os.Getenv(key); val != "" {
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				return n
			}
		}
		return fallback
	}

	config := &Config{
		Server: ServerConfig{
			Port: get("SERVER_PORT"),
			Host: get("SERVER_HOST"),
		},
		Database: DatabaseConfig{
			Host:     get("DB_HOST"),
			Port:     get("DB_PORT"),
			User:     get("DB_USER"),
			Password: get("DB_PASSWORD"),
			DBName:   get("DB_NAME"),
			SSLMode:  get("DB_SSLMODE"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      os.Getenv("RABBITMQ_URL"),
			Host:     get("RABBITMQ_HOST"),
			Port:     get("RABBITMQ_PORT"),
			User:     get("RABBITMQ_USER"),
			Password: get("RABBITMQ_PASSWORD"),
			VHost:    get("RABBITMQ_VHOST"),
		},
		Airtable: AirtableConfig{
			APIBaseURL:       getDefault("AIRTABLE_API_BASE_URL", "https://api.airtable.com/v0"),
			AuthURL:          getDefault("AIRTABLE_AUTH_URL", "https://airtable.com/oauth2/v1/authorize"),
			TokenURL:         getDefault("AIRTABLE_TOKEN_URL", "https://airtable.com/oauth2/v1/token"),
			ClientID:         get("AIRTABLE_CLIENT_ID"),
			ClientSecret:     get("AIRTABLE_CLIENT_SECRET"),
			RedirectURI:      get("AIRTABLE_REDIRECT_URI"),
			PersonalToken:    get("AIRTABLE_PAT"),
			BaseID:           get("AIRTABLE_BASE_ID"),
			TableID:          os.Getenv("AIRTABLE_TABLE_ID"),
			WebhookPublicURL: get("WEBHOOK_PUBLIC_URL"),
		},
		Auth: AuthConfig{
			JWTSecret: get("JWT_SECRET"),
		},
		Ingest: IngestConfig{
			Queue:          getDefault("INGEST_QUEUE", "airtable.ingest"),
			Exchange:       os.Getenv("INGEST_EXCHANGE"),
			RoutingKey:     getDefault("INGEST_ROUTING_KEY", "airtable.ingest"),
			PrefetchCount:  getInt("INGEST_PREFETCH_COUNT", 1),
			HTTPTimeout:    getInt("INGEST_HTTP_TIMEOUT", 20),
			MaxPagesPerRun: getInt("INGEST_MAX_PAGES_PER_RUN", 50),
		},
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return config, nil
}

// ConnectionString returns a DSN string for GORM
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

func (c *RabbitMQConfig) ConnectionURL() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%s%s",
		c.User, c.Password, c.Host, c.Port, c.VHost)
}
