package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

// FeeRuleRepository reads fee configuration.
type FeeRuleRepository interface {
	Overrides(ctx context.Context, designerID uuid.UUID) ([]model.DesignerFeeOverride, error)
	Promotions(ctx context.Context) ([]model.FeePromotionalPeriod, error)
	Tiers(ctx context.Context) ([]model.FeeTier, error)
}
