package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

// OfferFilter narrows offer listings.
type OfferFilter struct {
	UserID uuid.UUID
	Party  model.Party
	Status *model.OfferStatus
}

// OfferRepository persists offers.
type OfferRepository interface {
	Create(ctx context.Context, offer *model.Offer) error
	Get(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	// GetForUpdate loads the offer and holds its row lock until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Offer, error)
	Update(ctx context.Context, offer *model.Offer) error
	List(ctx context.Context, filter OfferFilter) ([]model.Offer, error)
	// ExpireOverdue marks open offers past their expiry as EXPIRED and returns them.
	ExpireOverdue(ctx context.Context, now time.Time, limit int) ([]model.Offer, error)
}
