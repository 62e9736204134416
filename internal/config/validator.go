package config

import (
	"fmt"
	"strings"
)

// Section names accepted by Require.
const (
	SectionDatabase = "database"
	SectionRedis    = "redis"
	SectionKafka    = "kafka"
	SectionS3       = "s3"
	SectionConsul   = "consul"
)

// Require checks that the settings of the given sections are present and
// reports every missing environment variable at once.
func (c *Config) Require(sections ...string) error {
	var missing []string

	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	for _, s := range sections {
		switch s {
		case SectionDatabase:
			check("DATABASE_URL", c.Database.URL)
		case SectionRedis:
			check("REDIS_ADDR", c.Redis.Addr)
		case SectionKafka:
			check("KAFKA_BROKERS", c.Kafka.Brokers)
		case SectionS3:
			check("S3_ENDPOINT", c.S3.Endpoint)
			check("S3_ACCESS_KEY", c.S3.AccessKey)
			check("S3_SECRET_KEY", c.S3.SecretKey)
			check("S3_BUCKET_NAME", c.S3.Bucket)
		case SectionConsul:
			check("CONSUL_HTTP_ADDR", c.Consul.Addr)
		default:
			return fmt.Errorf("unknown config section %q", s)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
