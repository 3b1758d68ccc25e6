package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error)
}

// ReminderRepository remembers which one-shot reminders were sent.
type ReminderRepository interface {
	// MarkSent records the reminder and reports false if it was already recorded.
	MarkSent(ctx context.Context, orderID uuid.UUID, kind model.ReminderKind, at time.Time) (bool, error)
}
