package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func intPtr(v int) *int { return &v }

func TestResolveFeePrecedence(t *testing.T) {
	asOf := testNow
	until := asOf.Add(24 * time.Hour)
	expired := asOf.Add(-time.Hour)
	total := decimal.NewFromInt(9000)

	override := DesignerFeeOverride{ID: uuid.New(), FeePercentage: decimal.NewFromInt(5), EffectiveFrom: asOf.Add(-time.Hour), EffectiveUntil: &until, IsActive: true}
	promo := FeePromotionalPeriod{ID: uuid.New(), Name: "launch", FeePercentage: decimal.NewFromInt(8), StartDate: asOf.Add(-time.Hour), EndDate: until, IsActive: true, ApplicableToAll: true}
	tier := FeeTier{ID: uuid.New(), Name: "pro", MinOrders: 10, MaxOrders: intPtr(49), FeePercentage: decimal.NewFromInt(7), Priority: 1, IsActive: true}
	def := decimal.NewFromInt(10)

	cases := []struct {
		name    string
		fc      FeeContext
		rule    FeeRule
		percent int64
	}{
		{"override beats all", FeeContext{Overrides: []DesignerFeeOverride{override}, Promotions: []FeePromotionalPeriod{promo}, Tiers: []FeeTier{tier}, CompletedOrders: 12, DefaultPercentage: def}, FeeRuleDesignerOverride, 5},
		{"promotion beats tier", FeeContext{Promotions: []FeePromotionalPeriod{promo}, Tiers: []FeeTier{tier}, CompletedOrders: 12, DefaultPercentage: def}, FeeRulePromotionalPeriod, 8},
		{"tier when matched", FeeContext{Tiers: []FeeTier{tier}, CompletedOrders: 12, DefaultPercentage: def}, FeeRuleTier, 7},
		{"tier out of range", FeeContext{Tiers: []FeeTier{tier}, CompletedOrders: 3, DefaultPercentage: def}, FeeRulePlatformDefault, 10},
		{"expired override ignored", FeeContext{Overrides: []DesignerFeeOverride{{FeePercentage: decimal.NewFromInt(1), EffectiveFrom: asOf.Add(-48 * time.Hour), EffectiveUntil: &expired, IsActive: true}}, DefaultPercentage: def}, FeeRulePlatformDefault, 10},
		{"inactive override ignored", FeeContext{Overrides: []DesignerFeeOverride{{FeePercentage: decimal.NewFromInt(1), EffectiveFrom: asOf.Add(-time.Hour)}}, DefaultPercentage: def}, FeeRulePlatformDefault, 10},
		{"targeted promotion ignored", FeeContext{Promotions: []FeePromotionalPeriod{{FeePercentage: decimal.NewFromInt(1), StartDate: asOf.Add(-time.Hour), EndDate: until, IsActive: true}}, DefaultPercentage: def}, FeeRulePlatformDefault, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveFee(tc.fc, total, asOf)
			if got.AppliedRule != tc.rule {
				t.Fatalf("expected rule %s, got %s", tc.rule, got.AppliedRule)
			}
			if !got.Percentage.Equal(decimal.NewFromInt(tc.percent)) {
				t.Fatalf("expected %d%%, got %s", tc.percent, got.Percentage)
			}
			if !got.FeeAmount.Add(got.DesignerReceives).Equal(total) {
				t.Fatalf("fee and payout must sum to total: %s + %s", got.FeeAmount, got.DesignerReceives)
			}
		})
	}
}

func TestResolveFeeHighestPriorityTierWins(t *testing.T) {
	fc := FeeContext{
		Tiers: []FeeTier{
			{Name: "base", MinOrders: 0, FeePercentage: decimal.NewFromInt(9), Priority: 1, IsActive: true},
			{Name: "vip", MinOrders: 5, FeePercentage: decimal.NewFromInt(6), Priority: 5, IsActive: true},
			{Name: "inactive", MinOrders: 0, FeePercentage: decimal.NewFromInt(1), Priority: 10},
		},
		CompletedOrders:   7,
		DefaultPercentage: decimal.NewFromInt(10),
	}
	got := ResolveFee(fc, decimal.NewFromInt(1000), testNow)
	if got.RuleDetails["name"] != "vip" || !got.FeeAmount.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("unexpected breakdown: %+v", got)
	}
}

func TestResolveFeeDefaultArithmetic(t *testing.T) {
	got := ResolveFee(FeeContext{DefaultPercentage: decimal.NewFromInt(10)}, decimal.NewFromInt(9000), testNow)
	if !got.FeeAmount.Equal(decimal.NewFromInt(900)) || !got.DesignerReceives.Equal(decimal.NewFromInt(8100)) {
		t.Fatalf("unexpected breakdown: %+v", got)
	}

	got = ResolveFee(FeeContext{DefaultPercentage: decimal.RequireFromString("12.5")}, decimal.RequireFromString("99.99"), testNow)
	if !got.FeeAmount.Equal(decimal.RequireFromString("12.50")) || !got.DesignerReceives.Equal(decimal.RequireFromString("87.49")) {
		t.Fatalf("unexpected rounding: %+v", got)
	}
}
