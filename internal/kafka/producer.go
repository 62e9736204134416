package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	HeaderContentType = "content-type"
	HeaderEventType   = "event-type"

	closeFlushTimeoutMs = 10000
)

// Publisher publishes JSON events to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// Typed events carry their type in the event-type header.
type Typed interface {
	EventType() string
}

// Producer publishes JSON events through the confluent client. Delivery is
// asynchronous; failures surface in the delivery report log.
type Producer struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

func NewProducer(config *Config, logger *slog.Logger) (*Producer, error) {
	producerConfig := &kafka.ConfigMap{
		"bootstrap.servers":  config.Brokers,
		"enable.idempotence": config.EnableIdempotence,
		"acks":               config.Acks,
		"linger.ms":          5,
	}
	if config.EnableIdempotence {
		_ = producerConfig.SetKey("max.in.flight.requests.per.connection", 5)
	}

	p, err := kafka.NewProducer(producerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	producer := &Producer{producer: p, logger: logger}
	go producer.handleDeliveryReports()

	logger.Info("Kafka producer initialized",
		"brokers", config.GetBrokersList(),
		"idempotence", config.EnableIdempotence)

	return producer, nil
}

// Publish enqueues event without waiting for the broker. The trace context
// of ctx travels in the message headers.
func (p *Producer) Publish(ctx context.Context, topic, key string, event any) error {
	msg, err := newMessage(ctx, topic, key, event)
	if err != nil {
		return err
	}

	if err := p.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}

	p.logger.DebugContext(ctx, "Event queued",
		"topic", topic,
		"key", key,
		"size", len(msg.Value))

	return nil
}

func newMessage(ctx context.Context, topic, key string, event any) (*kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: kafka.PartitionAny,
		},
		Value:   data,
		Headers: []kafka.Header{{Key: HeaderContentType, Value: []byte("application/json")}},
	}
	if key != "" {
		msg.Key = []byte(key)
	}
	if t, ok := event.(Typed); ok {
		msg.Headers = append(msg.Headers, kafka.Header{Key: HeaderEventType, Value: []byte(t.EventType())})
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{msg: msg})

	return msg, nil
}

// headerCarrier adapts Kafka message headers to the otel propagator.
type headerCarrier struct {
	msg *kafka.Message
}

func (c headerCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}

var _ propagation.TextMapCarrier = headerCarrier{}

func (p *Producer) handleDeliveryReports() {
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				p.logger.Error("Delivery failed",
					"topic", *ev.TopicPartition.Topic,
					"key", string(ev.Key),
					"error", ev.TopicPartition.Error)
			}
		case kafka.Error:
			p.logger.Warn("Kafka client error", "error", ev, "fatal", ev.IsFatal())
		}
	}
}

// Flush waits up to timeoutMs for queued messages and returns how many are
// still outstanding.
func (p *Producer) Flush(timeoutMs int) int {
	remaining := p.producer.Flush(timeoutMs)
	if remaining > 0 {
		p.logger.Warn("Failed to flush all messages", "remaining", remaining)
	}
	return remaining
}

// Close flushes pending messages and closes the producer.
func (p *Producer) Close() {
	if remaining := p.Flush(closeFlushTimeoutMs); remaining > 0 {
		p.logger.Error("Dropping undelivered messages", "count", remaining)
	}
	p.producer.Close()
	p.logger.Info("Kafka producer closed")
}
