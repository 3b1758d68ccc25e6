package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

// Observer is told about every publish attempt.
type Observer interface {
	EventPublished(domain string, err error)
}

// message is the wire form: the envelope plus its audience.
type message struct {
	model.Envelope
	Recipients []uuid.UUID `json:"recipients"`
}

// KafkaPublisher writes envelopes to a topic keyed by entity id.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	observer Observer
	logger   *slog.Logger
}

// NewSyncProducer dials brokers with idempotent, fully acknowledged delivery.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers required")
	}
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_7_0_0
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Retry.Backoff = 250 * time.Millisecond

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}
	return producer, nil
}

// NewKafkaPublisher wraps producer. observer may be nil.
func NewKafkaPublisher(producer sarama.SyncProducer, topic string, observer Observer, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, observer: observer, logger: logger}
}

// Publish sends event for recipients. Events for one entity share a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, recipients []uuid.UUID, event model.Envelope) error {
	err := p.publish(ctx, recipients, event)
	if p.observer != nil {
		p.observer.EventPublished(event.Domain, err)
	}
	return err
}

func (p *KafkaPublisher) publish(ctx context.Context, recipients []uuid.UUID, event model.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(message{Envelope: event, Recipients: recipients})
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.EntityID.String()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_id"), Value: []byte(event.EventID.String())},
			{Key: []byte("event_type"), Value: []byte(event.Domain + "." + event.Action)},
		},
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Error("kafka publish failed",
			slog.String("topic", p.topic),
			slog.String("event", event.Domain+"."+event.Action),
			slog.String("error", err.Error()),
		)
		return errors.Wrap(err, "kafka publish")
	}
	p.logger.Debug("event published",
		slog.String("event", event.Domain+"."+event.Action),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset),
	)
	return nil
}

// Close shuts the producer down.
func (p *KafkaPublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// LogPublisher records events in the log when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event and never fails.
func (p *LogPublisher) Publish(_ context.Context, recipients []uuid.UUID, event model.Envelope) error {
	p.logger.Info("event",
		slog.String("event", event.Domain+"."+event.Action),
		slog.String("entity_id", event.EntityID.String()),
		slog.Int("recipients", len(recipients)),
	)
	return nil
}
