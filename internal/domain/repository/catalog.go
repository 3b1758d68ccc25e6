package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

// CatalogRepository reads catalog items and addresses owned by neighbouring services.
type CatalogRepository interface {
	Item(ctx context.Context, id uuid.UUID) (*model.CatalogItem, error)
	Address(ctx context.Context, id uuid.UUID) (*model.Address, error)
}
