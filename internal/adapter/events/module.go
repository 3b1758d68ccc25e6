package events

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/config"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/metrics"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

// Module provides the realtime publisher: Kafka when brokers are configured, the log otherwise.
var Module = fx.Provide(newPublisher)

type publisherParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

func newPublisher(p publisherParams) (usecase.Publisher, error) {
	if len(p.Config.KafkaBrokers) == 0 {
		p.Logger.Info("kafka not configured, events go to the log")
		return NewLogPublisher(p.Logger), nil
	}
	producer, err := NewSyncProducer(p.Config.KafkaBrokers)
	if err != nil {
		return nil, err
	}
	publisher := NewKafkaPublisher(producer, p.Config.KafkaTopic, p.Metrics, p.Logger)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error { return publisher.Close() },
	})
	return publisher, nil
}
