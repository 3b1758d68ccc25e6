package postgres

import (
	"context"
	"encoding/json"
	"errors"

	crerrors "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

type catalogRepository struct {
	db querier
}

func (r *catalogRepository) Item(ctx context.Context, id uuid.UUID) (*model.CatalogItem, error) {
	const query = `SELECT id, designer_id, title, list_price::text, production_steps FROM catalog_items WHERE id=$1`
	var (
		item      model.CatalogItem
		listPrice string
		steps     []byte
	)
	err := r.db.QueryRow(ctx, query, id).Scan(&item.ID, &item.DesignerID, &item.Title, &listPrice, &steps)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.NotFound("catalog_item_not_found", "catalog item %s not found", id)
		}
		return nil, crerrors.Wrap(err, "select catalog item")
	}
	if item.ListPrice, err = parseDecimal(listPrice); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(steps, &item.ProductionSteps); err != nil {
		return nil, crerrors.Wrap(err, "decode catalog production steps")
	}
	return &item, nil
}

func (r *catalogRepository) Address(ctx context.Context, id uuid.UUID) (*model.Address, error) {
	const query = `SELECT id, user_id FROM addresses WHERE id=$1`
	var a model.Address
	if err := r.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.UserID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.NotFound("address_not_found", "address %s not found", id)
		}
		return nil, crerrors.Wrap(err, "select address")
	}
	return &a, nil
}
