package model

import (
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeRule names the rule that produced a fee.
type FeeRule string

const (
	FeeRuleDesignerOverride  FeeRule = "designer_override"
	FeeRulePromotionalPeriod FeeRule = "promotional_period"
	FeeRuleTier              FeeRule = "fee_tier"
	FeeRulePlatformDefault   FeeRule = "platform_default"
)

// FeeTier assigns a percentage to designers by lifetime completed orders.
type FeeTier struct {
	ID            uuid.UUID
	Name          string
	MinOrders     int
	MaxOrders     *int
	FeePercentage decimal.Decimal
	Priority      int
	IsActive      bool
}

// Matches reports whether completed falls in the tier's inclusive range.
func (t FeeTier) Matches(completed int) bool {
	if completed < t.MinOrders {
		return false
	}
	return t.MaxOrders == nil || completed <= *t.MaxOrders
}

// DesignerFeeOverride pins a percentage for one designer over a period.
type DesignerFeeOverride struct {
	ID             uuid.UUID
	DesignerID     uuid.UUID
	FeePercentage  decimal.Decimal
	EffectiveFrom  time.Time
	EffectiveUntil *time.Time
	IsActive       bool
	Reason         *string
}

func (o DesignerFeeOverride) covers(asOf time.Time) bool {
	if !o.IsActive || asOf.Before(o.EffectiveFrom) {
		return false
	}
	return o.EffectiveUntil == nil || !asOf.After(*o.EffectiveUntil)
}

// FeePromotionalPeriod is a platform wide discount window.
type FeePromotionalPeriod struct {
	ID              uuid.UUID
	Name            string
	FeePercentage   decimal.Decimal
	StartDate       time.Time
	EndDate         time.Time
	IsActive        bool
	ApplicableToAll bool
}

func (p FeePromotionalPeriod) covers(asOf time.Time) bool {
	return p.IsActive && p.ApplicableToAll && !asOf.Before(p.StartDate) && !asOf.After(p.EndDate)
}

// FeeContext is everything the resolver needs for one designer.
type FeeContext struct {
	Overrides         []DesignerFeeOverride
	Promotions        []FeePromotionalPeriod
	Tiers             []FeeTier
	CompletedOrders   int
	DefaultPercentage decimal.Decimal
}

// FeeBreakdown is the outcome of fee resolution.
type FeeBreakdown struct {
	Percentage       decimal.Decimal   `json:"percentage"`
	FeeAmount        decimal.Decimal   `json:"feeAmount"`
	DesignerReceives decimal.Decimal   `json:"designerReceives"`
	AppliedRule      FeeRule           `json:"appliedRule"`
	RuleDetails      map[string]string `json:"ruleDetails"`
}

var hundred = decimal.NewFromInt(100)

// ResolveFee applies override, promotion, tier and platform default in that order.
// Exactly one rule contributes the percentage.
func ResolveFee(fc FeeContext, total decimal.Decimal, asOf time.Time) FeeBreakdown {
	percentage, rule, details := selectFeeRule(fc, asOf)
	fee := total.Mul(percentage).Div(hundred).Round(2)
	return FeeBreakdown{
		Percentage:       percentage,
		FeeAmount:        fee,
		DesignerReceives: total.Sub(fee),
		AppliedRule:      rule,
		RuleDetails:      details,
	}
}

func selectFeeRule(fc FeeContext, asOf time.Time) (decimal.Decimal, FeeRule, map[string]string) {
	var override *DesignerFeeOverride
	for i := range fc.Overrides {
		o := &fc.Overrides[i]
		if !o.covers(asOf) {
			continue
		}
		if override == nil || o.EffectiveFrom.After(override.EffectiveFrom) {
			override = o
		}
	}
	if override != nil {
		details := map[string]string{"overrideId": override.ID.String()}
		if override.Reason != nil {
			details["reason"] = *override.Reason
		}
		return override.FeePercentage, FeeRuleDesignerOverride, details
	}

	var promo *FeePromotionalPeriod
	for i := range fc.Promotions {
		p := &fc.Promotions[i]
		if !p.covers(asOf) {
			continue
		}
		if promo == nil || p.FeePercentage.LessThan(promo.FeePercentage) {
			promo = p
		}
	}
	if promo != nil {
		return promo.FeePercentage, FeeRulePromotionalPeriod, map[string]string{
			"promotionId": promo.ID.String(),
			"name":        promo.Name,
		}
	}

	tiers := make([]FeeTier, 0, len(fc.Tiers))
	for _, t := range fc.Tiers {
		if t.IsActive && t.Matches(fc.CompletedOrders) {
			tiers = append(tiers, t)
		}
	}
	if len(tiers) > 0 {
		sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Priority > tiers[j].Priority })
		tier := tiers[0]
		return tier.FeePercentage, FeeRuleTier, map[string]string{
			"tierId":          tier.ID.String(),
			"name":            tier.Name,
			"completedOrders": strconv.Itoa(fc.CompletedOrders),
		}
	}

	return fc.DefaultPercentage, FeeRulePlatformDefault, map[string]string{}
}
