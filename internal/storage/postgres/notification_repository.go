package postgres

import (
	"context"
	"encoding/json"
	"time"

	crerrors "github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

type notificationRepository struct {
	db querier
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return crerrors.Wrap(err, "encode notification data")
	}
	const query = `INSERT INTO notifications (id, user_id, type, title, message, data, is_read, created_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.Exec(ctx, query, n.ID, n.UserID, n.Type, n.Title, n.Message, data, n.IsRead, n.CreatedAt); err != nil {
		return crerrors.Wrap(err, "insert notification")
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	const query = `SELECT id, user_id, type, title, message, data, is_read, created_at
                   FROM notifications WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, crerrors.Wrap(err, "list notifications")
	}
	return collect(rows, func(row rowScanner) (*model.Notification, error) {
		var (
			n    model.Notification
			data []byte
		)
		if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &data, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &n.Data); err != nil {
				return nil, crerrors.Wrap(err, "decode notification data")
			}
		}
		return &n, nil
	})
}

type reminderRepository struct {
	db querier
}

func (r *reminderRepository) MarkSent(ctx context.Context, orderID uuid.UUID, kind model.ReminderKind, at time.Time) (bool, error) {
	const query = `INSERT INTO order_reminders (order_id, kind, sent_at) VALUES ($1, $2, $3)
                   ON CONFLICT (order_id, kind) DO NOTHING`
	tag, err := r.db.Exec(ctx, query, orderID, kind, at)
	if err != nil {
		return false, crerrors.Wrap(err, "record reminder")
	}
	return tag.RowsAffected() == 1, nil
}
