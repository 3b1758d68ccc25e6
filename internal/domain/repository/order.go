package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID uuid.UUID
	Party  model.Party
	Status *model.OrderStatus
}

// OrderPage selects one keyset page of a scheduler scan: orders with an id after After, in id order.
type OrderPage struct {
	After uuid.UUID
	Limit int
}

// OrderRepository persists orders and answers scheduler queries.
type OrderRepository interface {
	// Create inserts the order unless one already exists for its offer.
	Create(ctx context.Context, order *model.Order) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetByOfferID(ctx context.Context, offerID uuid.UUID) (*model.Order, error)
	Update(ctx context.Context, order *model.Order) error
	List(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	// NextSequence allocates the next order number sequence for a calendar year.
	NextSequence(ctx context.Context, year int) (int64, error)
	CountCompletedByDesigner(ctx context.Context, designerID uuid.UUID) (int, error)

	ListInTransit(ctx context.Context, page OrderPage) ([]model.Order, error)
	ListDueForAutoConfirm(ctx context.Context, now time.Time, page OrderPage) ([]model.Order, error)
	ListAutoConfirmBetween(ctx context.Context, from, to time.Time, page OrderPage) ([]model.Order, error)
	ListWithOpenDeadline(ctx context.Context, page OrderPage) ([]model.Order, error)
}
