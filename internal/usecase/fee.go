package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/repository"
)

// FeeEngine resolves the platform fee for a designer payout.
type FeeEngine struct {
	repos  repository.Factory
	policy Policy
	now    Clock
}

// NewFeeEngine constructs FeeEngine.
func NewFeeEngine(repos repository.Transactor, policy Policy, now Clock) *FeeEngine {
	return &FeeEngine{repos: repos, policy: policy, now: now}
}

// Resolve loads the fee rules through repos and applies them to total as of asOf.
// Settlement passes its transaction scoped repositories here.
func (e *FeeEngine) Resolve(ctx context.Context, repos repository.Factory, designerID uuid.UUID, total decimal.Decimal, asOf time.Time) (model.FeeBreakdown, error) {
	fc, err := e.loadContext(ctx, repos, designerID)
	if err != nil {
		return model.FeeBreakdown{}, err
	}
	return model.ResolveFee(fc, total, asOf), nil
}

// Preview shows what a designer would receive for amount right now.
func (e *FeeEngine) Preview(ctx context.Context, designerID uuid.UUID, amount decimal.Decimal) (model.FeeBreakdown, error) {
	if !amount.IsPositive() {
		return model.FeeBreakdown{}, domainErrors.Validation("invalid_amount", "amount must be positive")
	}
	return e.Resolve(ctx, e.repos, designerID, amount, e.now())
}

func (e *FeeEngine) loadContext(ctx context.Context, repos repository.Factory, designerID uuid.UUID) (model.FeeContext, error) {
	overrides, err := repos.FeeRules().Overrides(ctx, designerID)
	if err != nil {
		return model.FeeContext{}, err
	}
	promotions, err := repos.FeeRules().Promotions(ctx)
	if err != nil {
		return model.FeeContext{}, err
	}
	tiers, err := repos.FeeRules().Tiers(ctx)
	if err != nil {
		return model.FeeContext{}, err
	}
	completed, err := repos.Orders().CountCompletedByDesigner(ctx, designerID)
	if err != nil {
		return model.FeeContext{}, err
	}
	return model.FeeContext{
		Overrides:         overrides,
		Promotions:        promotions,
		Tiers:             tiers,
		CompletedOrders:   completed,
		DefaultPercentage: e.policy.DefaultFeePercentage,
	}, nil
}
