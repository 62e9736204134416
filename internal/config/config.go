// Package config loads service configuration from the environment and an
// optional config.yaml using viper.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting used by the services. Each binary reads only the
// sections it needs and validates them with Require.
type Config struct {
	Service  string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	NATS     NATSConfig
	S3       S3Config
	Consul   ConsulConfig
	Refresh  RefreshConfig
	Session  SessionConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	AllowOrigins []string
}

type DatabaseConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MigrateOnStart  bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers      string
	RefreshTopic string
	Acks         string
}

type NATSConfig struct {
	URL string
}

type S3Config struct {
	Endpoint       string
	PublicEndpoint string
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	UseSSL         bool
}

type ConsulConfig struct {
	Addr  string
	Token string
}

// RefreshConfig selects the broker used for view-refresh events: "kafka",
// "nats" or "none".
type RefreshConfig struct {
	Broker string
}

// SessionConfig controls the gateway session cookie. DevLogin enables the
// local sign-in endpoint that mints sessions without an identity provider.
type SessionConfig struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
	DevLogin   bool
}

func setDefaults(v *viper.Viper, port int) {
	v.SetDefault("SERVICE_HOST", "localhost")
	v.SetDefault("PORT", port)
	v.SetDefault("SERVER_READ_TIMEOUT", "15s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "60s")
	v.SetDefault("SERVER_IDLE_TIMEOUT", "120s")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173,http://localhost:3000,http://localhost:8080")

	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 1)
	v.SetDefault("DB_MAX_CONN_LIFETIME", "30m")
	v.SetDefault("DB_MIGRATE_ON_START", true)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("KAFKA_TOPIC_VIEW_REFRESH", "view-refresh")
	v.SetDefault("KAFKA_ACKS", "all")

	v.SetDefault("NATS_URL", "nats://localhost:4222")

	v.SetDefault("S3_REGION", "us-east-1")

	v.SetDefault("CONSUL_HTTP_ADDR", "localhost:8500")

	v.SetDefault("REFRESH_BROKER", "none")

	v.SetDefault("SESSION_COOKIE_NAME", "session_id")
	v.SetDefault("SESSION_MAX_AGE", "168h")
	v.SetDefault("SESSION_DEV_LOGIN", false)
}

// Load reads configuration for the named service. port is the default
// listening port when PORT is unset.
func Load(service string, port int) *Config {
	v := viper.New()
	setDefaults(v, port)

	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig() // optional

	return &Config{
		Service: service,
		Server: ServerConfig{
			Host:         v.GetString("SERVICE_HOST"),
			Port:         v.GetInt("PORT"),
			ReadTimeout:  parseDuration(v.GetString("SERVER_READ_TIMEOUT"), 15*time.Second),
			WriteTimeout: parseDuration(v.GetString("SERVER_WRITE_TIMEOUT"), 60*time.Second),
			IdleTimeout:  parseDuration(v.GetString("SERVER_IDLE_TIMEOUT"), 120*time.Second),
			AllowOrigins: splitList(v.GetString("CORS_ALLOW_ORIGINS")),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxConns:        v.GetInt32("DB_MAX_CONNS"),
			MinConns:        v.GetInt32("DB_MIN_CONNS"),
			MaxConnLifetime: parseDuration(v.GetString("DB_MAX_CONN_LIFETIME"), 30*time.Minute),
			MigrateOnStart:  v.GetBool("DB_MIGRATE_ON_START"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Kafka: KafkaConfig{
			Brokers:      v.GetString("KAFKA_BROKERS"),
			RefreshTopic: v.GetString("KAFKA_TOPIC_VIEW_REFRESH"),
			Acks:         v.GetString("KAFKA_ACKS"),
		},
		NATS: NATSConfig{
			URL: v.GetString("NATS_URL"),
		},
		S3: S3Config{
			Endpoint:       v.GetString("S3_ENDPOINT"),
			PublicEndpoint: v.GetString("S3_PUBLIC_ENDPOINT"),
			AccessKey:      v.GetString("S3_ACCESS_KEY"),
			SecretKey:      v.GetString("S3_SECRET_KEY"),
			Bucket:         v.GetString("S3_BUCKET_NAME"),
			Region:         v.GetString("S3_REGION"),
			UseSSL:         v.GetBool("S3_USE_SSL"),
		},
		Consul: ConsulConfig{
			Addr:  v.GetString("CONSUL_HTTP_ADDR"),
			Token: v.GetString("CONSUL_HTTP_TOKEN"),
		},
		Refresh: RefreshConfig{
			Broker: strings.ToLower(v.GetString("REFRESH_BROKER")),
		},
		Session: SessionConfig{
			CookieName: v.GetString("SESSION_COOKIE_NAME"),
			MaxAge:     parseDuration(v.GetString("SESSION_MAX_AGE"), 7*24*time.Hour),
			Secure:     v.GetBool("SESSION_COOKIE_SECURE"),
			DevLogin:   v.GetBool("SESSION_DEV_LOGIN"),
		},
	}
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
