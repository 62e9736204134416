package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"socialgraph/internal/cache"
	"socialgraph/internal/kafka"
)

// JetStream stream and subject refresh signals are published on.
const (
	StreamName = "SOCIAL_REFRESH"
	Subject    = "social.view.refresh"
)

// CacheSink deletes cached views in Redis. patterns maps a signal onto the
// key patterns it invalidates.
type CacheSink struct {
	rdb      redis.UniversalClient
	patterns func(Signal) []string
}

func NewCacheSink(rdb redis.UniversalClient, patterns func(Signal) []string) *CacheSink {
	return &CacheSink{rdb: rdb, patterns: patterns}
}

func (s *CacheSink) Name() string { return "redis" }

func (s *CacheSink) Send(ctx context.Context, sig Signal) error {
	var errs []error
	for _, p := range s.patterns(sig) {
		if _, err := cache.DeleteByPattern(ctx, s.rdb, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// KafkaSink publishes signals to a Kafka topic keyed by the first user id.
type KafkaSink struct {
	pub   kafka.Publisher
	topic string
}

func NewKafkaSink(pub kafka.Publisher, topic string) *KafkaSink {
	return &KafkaSink{pub: pub, topic: topic}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Send(ctx context.Context, sig Signal) error {
	var key string
	if len(sig.UserIDs) > 0 {
		key = sig.UserIDs[0].String()
	}
	return s.pub.Publish(ctx, s.topic, key, sig)
}

// NATSSink publishes signals to a JetStream stream with the trace context
// in the message headers.
type NATSSink struct {
	js jetstream.JetStream
}

// NewNATSSink ensures the stream exists and returns a sink publishing to it.
func NewNATSSink(ctx context.Context, nc *nats.Conn) (*NATSSink, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{Subject},
		Storage:  jetstream.FileStorage,
		MaxAge:   24 * time.Hour,
		Replicas: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NATSSink{js: js}, nil
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Send(ctx context.Context, sig Signal) error {
	data, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}

	msg := &nats.Msg{
		Subject: Subject,
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))

	if _, err := s.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}
