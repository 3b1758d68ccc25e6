package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/repository"
)

// InboxUseCase reads persisted notifications.
type InboxUseCase struct {
	repos repository.Factory
}

// NewInboxUseCase constructs InboxUseCase.
func NewInboxUseCase(repos repository.Transactor) *InboxUseCase {
	return &InboxUseCase{repos: repos}
}

// List returns the newest notifications of userID.
func (u *InboxUseCase) List(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return u.repos.Notifications().ListByUser(ctx, userID, limit)
}
