package kafka

import (
	"testing"

	"socialgraph/internal/config"
)

func TestNewConfig(t *testing.T) {
	if _, err := NewConfig(config.KafkaConfig{}); err == nil {
		t.Error("expected error when brokers are missing")
	}

	cfg, err := NewConfig(config.KafkaConfig{Brokers: "k1:9092, k2:9092,"})
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Acks != "all" || !cfg.EnableIdempotence {
		t.Errorf("expected acks=all with idempotence, got %+v", cfg)
	}

	got := cfg.GetBrokersList()
	if len(got) != 2 || got[0] != "k1:9092" || got[1] != "k2:9092" {
		t.Errorf("GetBrokersList() = %v", got)
	}

	cfg, _ = NewConfig(config.KafkaConfig{Brokers: "k1:9092", Acks: "1"})
	if cfg.EnableIdempotence {
		t.Error("idempotence must be off unless acks=all")
	}
}
