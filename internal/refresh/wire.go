package refresh

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"socialgraph/internal/config"
	"socialgraph/internal/kafka"
)

// Broker names accepted in REFRESH_BROKER.
const (
	BrokerNone  = "none"
	BrokerKafka = "kafka"
	BrokerNATS  = "nats"
)

// FromConfig builds the notifier for a service: Redis cache invalidation
// through patterns plus the broker selected by cfg.Refresh.Broker. The
// returned close function flushes and releases the broker connection.
func FromConfig(ctx context.Context, cfg *config.Config, rdb redis.UniversalClient, patterns func(Signal) []string, log *slog.Logger) (Notifier, func(), error) {
	sinks := []Sink{}
	if rdb != nil && patterns != nil {
		sinks = append(sinks, NewCacheSink(rdb, patterns))
	}
	closeFn := func() {}

	switch cfg.Refresh.Broker {
	case "", BrokerNone:
	case BrokerKafka:
		kcfg, err := kafka.NewConfig(cfg.Kafka)
		if err != nil {
			return nil, nil, err
		}
		producer, err := kafka.NewProducer(kcfg, log)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, NewKafkaSink(producer, cfg.Kafka.RefreshTopic))
		closeFn = producer.Close
	case BrokerNATS:
		nc, err := nats.Connect(cfg.NATS.URL, nats.Name(cfg.Service), nats.MaxReconnects(-1))
		if err != nil {
			return nil, nil, fmt.Errorf("nats connect %s: %w", cfg.NATS.URL, err)
		}
		sink, err := NewNATSSink(ctx, nc)
		if err != nil {
			nc.Close()
			return nil, nil, err
		}
		sinks = append(sinks, sink)
		closeFn = func() {
			if err := nc.Drain(); err != nil {
				log.Warn("NATS drain failed", "error", err)
			}
		}
	default:
		return nil, nil, fmt.Errorf("unknown refresh broker %q", cfg.Refresh.Broker)
	}

	log.Info("View refresh configured", "broker", cfg.Refresh.Broker, "sinks", len(sinks))
	return NewMulti(log, sinks...), closeFn, nil
}
