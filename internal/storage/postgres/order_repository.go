package postgres

import (
	"context"
	"encoding/json"
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

const paymentReferenceConstraint = "orders_payment_reference_key"

type orderRepository struct {
	db querier
}

const orderColumns = `id, order_number, offer_id, customer_id, designer_id, catalog_item_id, final_price::text,
       status, production_steps, shipping_address_id, payment_reference, deadline, shipped_at, carrier,
       tracking_number, estimated_delivery, delivered_at, confirmation_window_end, auto_confirm_at,
       delivery_confirmed_by, customer_rating, customer_review, payment_released_at, payment_amount::text,
       platform_fee::text, fee_percentage_applied::text, dispute_opened_at, dispute_reason, cancelled_at,
       cancel_reason, buyer_protection_until, created_at, updated_at`

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o                                  model.Order
		finalPrice                         string
		steps                              []byte
		confirmedBy                        *string
		paymentAmount, platformFee, feePct *string
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.OfferID, &o.CustomerID, &o.DesignerID, &o.CatalogItemID, &finalPrice,
		&o.Status, &steps, &o.ShippingAddressID, &o.PaymentReference, &o.Deadline, &o.ShippedAt, &o.Carrier,
		&o.TrackingNumber, &o.EstimatedDelivery, &o.DeliveredAt, &o.ConfirmationWindowEnd, &o.AutoConfirmAt,
		&confirmedBy, &o.CustomerRating, &o.CustomerReview, &o.PaymentReleasedAt, &paymentAmount,
		&platformFee, &feePct, &o.DisputeOpenedAt, &o.DisputeReason, &o.CancelledAt,
		&o.CancelReason, &o.BuyerProtectionUntil, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if o.FinalPrice, err = parseDecimal(finalPrice); err != nil {
		return nil, err
	}
	if o.PaymentAmount, err = parseNullDecimal(paymentAmount); err != nil {
		return nil, err
	}
	if o.PlatformFee, err = parseNullDecimal(platformFee); err != nil {
		return nil, err
	}
	if o.FeePercentageApplied, err = parseNullDecimal(feePct); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(steps, &o.ProductionSteps); err != nil {
		return nil, crerrors.Wrap(err, "decode production steps")
	}
	o.DeliveryConfirmedBy = typedPtr[model.ConfirmedBy](confirmedBy)
	return &o, nil
}

func (r *orderRepository) Create(ctx context.Context, o *model.Order) (bool, error) {
	steps, err := json.Marshal(o.ProductionSteps)
	if err != nil {
		return false, crerrors.Wrap(err, "encode production steps")
	}
	const query = `INSERT INTO orders (id, order_number, offer_id, customer_id, designer_id, catalog_item_id,
                       final_price, status, production_steps, shipping_address_id, payment_reference, deadline,
                       buyer_protection_until, created_at, updated_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
                   ON CONFLICT (offer_id) DO NOTHING`
	tag, err := r.db.Exec(ctx, query, o.ID, o.OrderNumber, o.OfferID, o.CustomerID, o.DesignerID, o.CatalogItemID,
		decimalArg(o.FinalPrice), o.Status, steps, o.ShippingAddressID, o.PaymentReference, o.Deadline,
		o.BuyerProtectionUntil, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if constraint == paymentReferenceConstraint {
				return false, domainErrors.Conflict("payment_already_used", "payment %s already opened another order", o.PaymentReference)
			}
			return false, domainErrors.Conflict("order_number_taken", "order number %s already used", o.OrderNumber)
		}
		return false, crerrors.Wrap(err, "insert order")
	}
	return tag.RowsAffected() == 1, nil
}

func (r *orderRepository) getBy(ctx context.Context, where string, arg any, lock bool) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE ` + where + `=$1`
	if lock {
		query += ` FOR UPDATE`
	}
	order, err := scanOrder(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.NotFound("order_not_found", "order not found")
		}
		return nil, crerrors.Wrap(err, "select order")
	}
	return order, nil
}

func (r *orderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getBy(ctx, "id", id, false)
}

func (r *orderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.getBy(ctx, "id", id, true)
}

func (r *orderRepository) GetByOfferID(ctx context.Context, offerID uuid.UUID) (*model.Order, error) {
	return r.getBy(ctx, "offer_id", offerID, false)
}

func (r *orderRepository) Update(ctx context.Context, o *model.Order) error {
	steps, err := json.Marshal(o.ProductionSteps)
	if err != nil {
		return crerrors.Wrap(err, "encode production steps")
	}
	const query = `UPDATE orders SET status=$2, production_steps=$3, shipped_at=$4, carrier=$5, tracking_number=$6,
                       estimated_delivery=$7, delivered_at=$8, confirmation_window_end=$9, auto_confirm_at=$10,
                       delivery_confirmed_by=$11, customer_rating=$12, customer_review=$13, payment_released_at=$14,
                       payment_amount=$15, platform_fee=$16, fee_percentage_applied=$17, dispute_opened_at=$18,
                       dispute_reason=$19, cancelled_at=$20, cancel_reason=$21, updated_at=$22
                   WHERE id=$1`
	tag, err := r.db.Exec(ctx, query, o.ID, o.Status, steps, o.ShippedAt, o.Carrier, o.TrackingNumber,
		o.EstimatedDelivery, o.DeliveredAt, o.ConfirmationWindowEnd, o.AutoConfirmAt,
		stringPtr(o.DeliveryConfirmedBy), o.CustomerRating, o.CustomerReview, o.PaymentReleasedAt,
		nullDecimalArg(o.PaymentAmount), nullDecimalArg(o.PlatformFee), nullDecimalArg(o.FeePercentageApplied),
		o.DisputeOpenedAt, o.DisputeReason, o.CancelledAt, o.CancelReason, o.UpdatedAt)
	if err != nil {
		return crerrors.Wrap(err, "update order")
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.NotFound("order_not_found", "order %s not found", o.ID)
	}
	return nil
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]model.Order, error) {
	column := "customer_id"
	if filter.Party == model.PartyDesigner {
		column = "designer_id"
	}
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE %s=$1 AND ($2::text IS NULL OR status=$2)
                          ORDER BY created_at DESC`, orderColumns, column)
	return r.list(ctx, query, filter.UserID, stringPtr(filter.Status))
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, crerrors.Wrap(err, "list orders")
	}
	return collect(rows, scanOrder)
}

func (r *orderRepository) NextSequence(ctx context.Context, year int) (int64, error) {
	const query = `INSERT INTO order_sequences (year, last_value) VALUES ($1, 1)
                   ON CONFLICT (year) DO UPDATE SET last_value = order_sequences.last_value + 1
                   RETURNING last_value`
	var seq int64
	if err := r.db.QueryRow(ctx, query, year).Scan(&seq); err != nil {
		return 0, crerrors.Wrap(err, "allocate order sequence")
	}
	return seq, nil
}

func (r *orderRepository) CountCompletedByDesigner(ctx context.Context, designerID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM orders WHERE designer_id=$1 AND status='COMPLETED'`
	var count int
	if err := r.db.QueryRow(ctx, query, designerID).Scan(&count); err != nil {
		return 0, crerrors.Wrap(err, "count completed orders")
	}
	return count, nil
}

func (r *orderRepository) ListInTransit(ctx context.Context, page repository.OrderPage) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE status='SHIPPED' AND delivered_at IS NULL AND tracking_number IS NOT NULL
                AND id > $1
              ORDER BY id
              LIMIT $2`
	return r.list(ctx, query, page.After, page.Limit)
}

func (r *orderRepository) ListDueForAutoConfirm(ctx context.Context, now time.Time, page repository.OrderPage) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE status IN ('DELIVERED', 'AWAITING_CONFIRMATION')
                AND payment_released_at IS NULL
                AND auto_confirm_at <= $1
                AND id > $2
              ORDER BY id
              LIMIT $3`
	return r.list(ctx, query, now, page.After, page.Limit)
}

func (r *orderRepository) ListAutoConfirmBetween(ctx context.Context, from, to time.Time, page repository.OrderPage) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE status IN ('DELIVERED', 'AWAITING_CONFIRMATION')
                AND payment_released_at IS NULL
                AND auto_confirm_at BETWEEN $1 AND $2
                AND id > $3
              ORDER BY id
              LIMIT $4`
	return r.list(ctx, query, from, to, page.After, page.Limit)
}

func (r *orderRepository) ListWithOpenDeadline(ctx context.Context, page repository.OrderPage) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders
              WHERE status IN ('PENDING', 'SOURCING', 'CONSTRUCTION', 'QUALITY_CHECK')
                AND deadline IS NOT NULL
                AND id > $1
              ORDER BY id
              LIMIT $2`
	return r.list(ctx, query, page.After, page.Limit)
}
