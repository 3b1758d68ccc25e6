package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/repository"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

// InboxNotifier stores notifications for the in-app inbox.
type InboxNotifier struct {
	repos  repository.Factory
	now    usecase.Clock
	logger *slog.Logger
}

// NewInboxNotifier constructs InboxNotifier.
func NewInboxNotifier(repos repository.Transactor, now usecase.Clock, logger *slog.Logger) *InboxNotifier {
	return &InboxNotifier{repos: repos, now: now, logger: logger}
}

// Notify persists one unread notification for userID.
func (n *InboxNotifier) Notify(ctx context.Context, userID uuid.UUID, kind, title, message string, data map[string]any) error {
	if userID == uuid.Nil {
		return errors.New("notification recipient is required")
	}
	if strings.TrimSpace(kind) == "" {
		return errors.New("notification type is required")
	}
	record := &model.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: n.now(),
	}
	if err := n.repos.Notifications().Create(ctx, record); err != nil {
		return errors.Wrapf(err, "store %s notification", kind)
	}
	n.logger.Debug("notification stored",
		slog.String("type", kind),
		slog.String("user_id", userID.String()),
	)
	return nil
}
