package postgres

import (
	"context"

	crerrors "github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

type feeRuleRepository struct {
	db querier
}

func (r *feeRuleRepository) Overrides(ctx context.Context, designerID uuid.UUID) ([]model.DesignerFeeOverride, error) {
	const query = `SELECT id, designer_id, fee_percentage::text, effective_from, effective_until, is_active, reason
                   FROM designer_fee_overrides WHERE designer_id=$1 AND is_active`
	rows, err := r.db.Query(ctx, query, designerID)
	if err != nil {
		return nil, crerrors.Wrap(err, "list fee overrides")
	}
	return collect(rows, func(row rowScanner) (*model.DesignerFeeOverride, error) {
		var (
			o   model.DesignerFeeOverride
			pct string
		)
		if err := row.Scan(&o.ID, &o.DesignerID, &pct, &o.EffectiveFrom, &o.EffectiveUntil, &o.IsActive, &o.Reason); err != nil {
			return nil, err
		}
		var err error
		o.FeePercentage, err = parseDecimal(pct)
		return &o, err
	})
}

func (r *feeRuleRepository) Promotions(ctx context.Context) ([]model.FeePromotionalPeriod, error) {
	const query = `SELECT id, name, fee_percentage::text, start_date, end_date, is_active, applicable_to_all
                   FROM fee_promotional_periods WHERE is_active`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, crerrors.Wrap(err, "list fee promotions")
	}
	return collect(rows, func(row rowScanner) (*model.FeePromotionalPeriod, error) {
		var (
			p   model.FeePromotionalPeriod
			pct string
		)
		if err := row.Scan(&p.ID, &p.Name, &pct, &p.StartDate, &p.EndDate, &p.IsActive, &p.ApplicableToAll); err != nil {
			return nil, err
		}
		var err error
		p.FeePercentage, err = parseDecimal(pct)
		return &p, err
	})
}

func (r *feeRuleRepository) Tiers(ctx context.Context) ([]model.FeeTier, error) {
	const query = `SELECT id, name, min_orders, max_orders, fee_percentage::text, priority, is_active
                   FROM fee_tiers WHERE is_active ORDER BY priority DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, crerrors.Wrap(err, "list fee tiers")
	}
	return collect(rows, func(row rowScanner) (*model.FeeTier, error) {
		var (
			t   model.FeeTier
			pct string
		)
		if err := row.Scan(&t.ID, &t.Name, &t.MinOrders, &t.MaxOrders, &pct, &t.Priority, &t.IsActive); err != nil {
			return nil, err
		}
		var err error
		t.FeePercentage, err = parseDecimal(pct)
		return &t, err
	})
}
