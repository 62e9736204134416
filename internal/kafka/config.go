package kafka

import (
	"fmt"
	"strings"

	"socialgraph/internal/config"
)

// Config holds Kafka producer configuration
type Config struct {
	Brokers           string
	EnableIdempotence bool
	Acks              string
}

// NewConfig builds the producer configuration from the service config.
func NewConfig(cfg config.KafkaConfig) (*Config, error) {
	if strings.TrimSpace(cfg.Brokers) == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}

	acks := cfg.Acks
	if acks == "" {
		acks = "all"
	}

	return &Config{
		Brokers:           cfg.Brokers,
		EnableIdempotence: acks == "all",
		Acks:              acks,
	}, nil
}

// GetBrokersList returns brokers as a slice
func (c *Config) GetBrokersList() []string {
	parts := strings.Split(c.Brokers, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
