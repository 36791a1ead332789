package eventlog

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink fans committed events out to a Kafka topic for downstream audit
// consumers. Publishing is asynchronous and lossy by design: the event store
// is the source of truth, so a failed produce is logged, never retried into
// the caller's request path.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaSink(brokers []string, topic string, logger *slog.Logger) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaSink{client: client, topic: topic, logger: logger}, nil
}

func (s *KafkaSink) Publish(ctx context.Context, event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to encode event for kafka",
			"kind", event.Kind,
			"log_index", event.LogIndex,
			"error", err,
		)
		return
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Actor.String()),
		Value: value,
	}
	s.client.Produce(context.WithoutCancel(ctx), record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.logger.Error("failed to publish event to kafka",
				"kind", event.Kind,
				"log_index", event.LogIndex,
				"error", err,
			)
		}
	})
}

// Close flushes outstanding produces and releases the client.
func (s *KafkaSink) Close() {
	s.client.Close()
}
