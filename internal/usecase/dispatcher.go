package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

// Message is a notification addressed to one user.
type Message struct {
	UserID uuid.UUID
	Type   string
	Title  string
	Text   string
	Data   map[string]any
}

// Dispatcher sends notifications and realtime events after a commit.
// Failures are logged and never reach the caller.
type Dispatcher struct {
	notifier  Notifier
	publisher Publisher
	logger    *slog.Logger
	timeout   time.Duration
}

// NewDispatcher constructs Dispatcher.
func NewDispatcher(notifier Notifier, publisher Publisher, logger *slog.Logger, policy Policy) *Dispatcher {
	timeout := policy.NotifyTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{notifier: notifier, publisher: publisher, logger: logger, timeout: timeout}
}

// Dispatch delivers messages and publishes the event to audience.
func (d *Dispatcher) Dispatch(ctx context.Context, event *model.Envelope, audience []uuid.UUID, messages ...Message) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	for _, m := range messages {
		if d.notifier == nil {
			break
		}
		if err := d.notifier.Notify(ctx, m.UserID, m.Type, m.Title, m.Text, m.Data); err != nil {
			d.logger.Warn("notification failed",
				slog.String("type", m.Type),
				slog.String("user_id", m.UserID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	if event == nil || d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ctx, audience, *event); err != nil {
		d.logger.Warn("event publish failed",
			slog.String("domain", event.Domain),
			slog.String("action", event.Action),
			slog.String("entity_id", event.EntityID.String()),
			slog.String("error", err.Error()),
		)
	}
}
