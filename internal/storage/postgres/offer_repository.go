package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	crerrors "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/repository"
)

type offerRepository struct {
	db querier
}

const offerColumns = `id, customer_id, designer_id, catalog_item_id, customer_price::text, designer_price::text,
       final_price::text, status, notes, designer_notes, measurements, try_on_image_url, expires_at,
       deadline, awaiting_response_from, accepted_at, created_at, updated_at`

func scanOffer(row rowScanner) (*model.Offer, error) {
	var (
		o                         model.Offer
		customerPrice             string
		designerPrice, finalPrice *string
		awaiting                  *string
		measurements              []byte
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.DesignerID, &o.CatalogItemID, &customerPrice, &designerPrice,
		&finalPrice, &o.Status, &o.Notes, &o.DesignerNotes, &measurements, &o.TryOnImageURL, &o.ExpiresAt,
		&o.Deadline, &awaiting, &o.AcceptedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if o.CustomerPrice, err = parseDecimal(customerPrice); err != nil {
		return nil, err
	}
	if o.DesignerPrice, err = parseNullDecimal(designerPrice); err != nil {
		return nil, err
	}
	if o.FinalPrice, err = parseNullDecimal(finalPrice); err != nil {
		return nil, err
	}
	o.AwaitingResponseFrom = typedPtr[model.Party](awaiting)
	o.Measurements = measurements
	return &o, nil
}

func (r *offerRepository) Create(ctx context.Context, o *model.Offer) error {
	const query = `INSERT INTO offers (id, customer_id, designer_id, catalog_item_id, customer_price, designer_price,
                       final_price, status, notes, designer_notes, measurements, try_on_image_url, expires_at,
                       deadline, awaiting_response_from, accepted_at, created_at, updated_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.db.Exec(ctx, query, o.ID, o.CustomerID, o.DesignerID, o.CatalogItemID,
		decimalArg(o.CustomerPrice), nullDecimalArg(o.DesignerPrice), nullDecimalArg(o.FinalPrice), o.Status,
		o.Notes, o.DesignerNotes, []byte(o.Measurements), o.TryOnImageURL, o.ExpiresAt, o.Deadline,
		stringPtr(o.AwaitingResponseFrom), o.AcceptedAt, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return crerrors.Wrap(err, "insert offer")
	}
	return nil
}

func (r *offerRepository) get(ctx context.Context, id uuid.UUID, lock bool) (*model.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id=$1`
	if lock {
		query += ` FOR UPDATE`
	}
	offer, err := scanOffer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.NotFound("offer_not_found", "offer %s not found", id)
		}
		return nil, crerrors.Wrap(err, "select offer")
	}
	return offer, nil
}

func (r *offerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	return r.get(ctx, id, false)
}

func (r *offerRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Offer, error) {
	return r.get(ctx, id, true)
}

func (r *offerRepository) Update(ctx context.Context, o *model.Offer) error {
	const query = `UPDATE offers SET customer_price=$2, designer_price=$3, final_price=$4, status=$5, notes=$6,
                       designer_notes=$7, awaiting_response_from=$8, accepted_at=$9, updated_at=$10
                   WHERE id=$1`
	tag, err := r.db.Exec(ctx, query, o.ID, decimalArg(o.CustomerPrice), nullDecimalArg(o.DesignerPrice),
		nullDecimalArg(o.FinalPrice), o.Status, o.Notes, o.DesignerNotes, stringPtr(o.AwaitingResponseFrom),
		o.AcceptedAt, o.UpdatedAt)
	if err != nil {
		return crerrors.Wrap(err, "update offer")
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.NotFound("offer_not_found", "offer %s not found", o.ID)
	}
	return nil
}

func (r *offerRepository) List(ctx context.Context, filter repository.OfferFilter) ([]model.Offer, error) {
	column := "customer_id"
	if filter.Party == model.PartyDesigner {
		column = "designer_id"
	}
	query := fmt.Sprintf(`SELECT %s FROM offers WHERE %s=$1 AND ($2::text IS NULL OR status=$2)
                          ORDER BY created_at DESC`, offerColumns, column)
	rows, err := r.db.Query(ctx, query, filter.UserID, stringPtr(filter.Status))
	if err != nil {
		return nil, crerrors.Wrap(err, "list offers")
	}
	return collect(rows, scanOffer)
}

func (r *offerRepository) ExpireOverdue(ctx context.Context, now time.Time, limit int) ([]model.Offer, error) {
	query := `UPDATE offers SET status='EXPIRED', awaiting_response_from=NULL, updated_at=$1
              WHERE id IN (
                  SELECT id FROM offers
                  WHERE status IN ('PENDING', 'COUNTERED') AND expires_at < $1
                  ORDER BY expires_at
                  LIMIT $2
                  FOR UPDATE SKIP LOCKED
              )
              RETURNING ` + offerColumns
	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, crerrors.Wrap(err, "expire offers")
	}
	return collect(rows, scanOffer)
}
