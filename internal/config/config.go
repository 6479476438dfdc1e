package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTSecret     []byte
	JWTAlgorithm  string
	JWTExpiration time.Duration

	RedisURL               string
	CacheTTL               time.Duration
	CacheSize              int
	CacheInvalidateOnWrite bool

	Mail MailConfig

	KafkaBrokers    []string
	KafkaEmailTopic string
	KafkaGroupID    string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	S3 S3Config

	RateLimitMePerMinute int
	CORSOrigins          []string
	AdminEmails          []string
}

type MailConfig struct {
	Transport      string
	Username       string
	Password       string
	From           string
	FromName       string
	Port           int
	Server         string
	StartTLS       bool
	SSLTLS         bool
	UseCredentials bool
	ValidateCerts  bool
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

var ErrMissingSecret = errors.New("missing required env JWT_SECRET")

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "contacts_api"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: EnvDefault("DATABASE_URL", "sqlite://contacts.db"),

		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		JWTAlgorithm:  EnvDefault("JWT_ALGORITHM", "HS256"),
		JWTExpiration: time.Duration(EnvIntDefault("JWT_EXPIRATION_SECONDS", 3600)) * time.Second,

		RedisURL:               os.Getenv("REDIS_URL"),
		CacheTTL:               time.Duration(EnvIntDefault("CACHE_TTL_SECONDS", 600)) * time.Second,
		CacheSize:              EnvIntDefault("CACHE_SIZE", 1024),
		CacheInvalidateOnWrite: EnvBoolDefault("CACHE_INVALIDATE_ON_WRITE", false),

		Mail: MailConfig{
			Transport:      strings.ToLower(EnvDefault("MAIL_TRANSPORT", "log")),
			Username:       os.Getenv("MAIL_USERNAME"),
			Password:       os.Getenv("MAIL_PASSWORD"),
			From:           EnvDefault("MAIL_FROM", "user@example.com"),
			FromName:       EnvDefault("MAIL_FROM_NAME", "Contacts API"),
			Port:           EnvIntDefault("MAIL_PORT", 465),
			Server:         os.Getenv("MAIL_SERVER"),
			StartTLS:       EnvBoolDefault("MAIL_STARTTLS", false),
			SSLTLS:         EnvBoolDefault("MAIL_SSL_TLS", true),
			UseCredentials: EnvBoolDefault("MAIL_USE_CREDENTIALS", true),
			ValidateCerts:  EnvBoolDefault("MAIL_VALIDATE_CERTS", true),
		},

		KafkaBrokers:    CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaEmailTopic: EnvDefault("KAFKA_EMAIL_TOPIC", "email_events"),
		KafkaGroupID:    EnvDefault("KAFKA_GROUP_ID", "mailer"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "contacts"),

		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    EnvDefault("S3_REGION", "us-east-1"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    EnvDefault("S3_BUCKET", "avatars"),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
		},

		RateLimitMePerMinute: EnvIntDefault("RATE_LIMIT_ME_PER_MINUTE", 5),
		CORSOrigins:          CSV(EnvDefault("CORS_ORIGINS", "http://localhost,http://localhost:3000,http://localhost:8000")),
		AdminEmails:          CSV(strings.ToLower(os.Getenv("ADMIN_EMAILS"))),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.JWTSecret) == 0 {
		return ErrMissingSecret
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM %q", c.JWTAlgorithm)
	}
	if c.JWTExpiration <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_SECONDS must be positive")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive")
	}
	return nil
}

func (c *Config) S3Enabled() bool {
	return c.S3.Endpoint != "" && c.S3.AccessKey != ""
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
