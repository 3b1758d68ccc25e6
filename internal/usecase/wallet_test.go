package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/errors"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

func TestLedgerCreditAndDebit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := uuid.New()

	requireDecimal(t, "0", h.balance(t, user))

	credit, err := h.ledger.Credit(ctx, user, decimal.RequireFromString("150.25"), "Payment", nil)
	require.NoError(t, err)
	requireDecimal(t, "0", credit.BalanceBefore)
	requireDecimal(t, "150.25", credit.BalanceAfter)

	debit, err := h.ledger.Withdraw(ctx, user, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.Equal(t, model.TransactionDebit, debit.Type)
	assert.Equal(t, "Withdrawal", debit.Description)
	requireDecimal(t, "100.25", debit.BalanceAfter)
	requireDecimal(t, "100.25", h.balance(t, user))

	_, err = h.ledger.Debit(ctx, user, decimal.RequireFromString("100.26"), "Withdrawal")
	require.ErrorIs(t, err, domainErrors.ErrInsufficientBalance)
	requireDecimal(t, "100.25", h.balance(t, user))

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err = h.ledger.Credit(ctx, user, amount, "Payment", nil)
		require.ErrorIs(t, err, domainErrors.ErrValidation)
	}

	history, err := h.ledger.History(ctx, user, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.TransactionDebit, history[0].Type, "newest first")

	audit, err := h.ledger.Verify(ctx, user)
	require.NoError(t, err)
	assert.True(t, audit.Consistent)
	requireDecimal(t, "100.25", audit.Replayed)
}

func TestLedgerVerifyDetectsDrift(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := h.ledger.Credit(ctx, user, decimal.NewFromInt(100), "Payment", nil)
	require.NoError(t, err)
	require.NoError(t, h.store.Wallets().SetBalance(ctx, user, decimal.NewFromInt(120), testStart))

	audit, err := h.ledger.Verify(ctx, user)
	require.NoError(t, err)
	assert.False(t, audit.Consistent)
	requireDecimal(t, "120", audit.Cached)
	requireDecimal(t, "100", audit.Replayed)
}

func TestFeePreview(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	maxOrders := 10
	h.store.SetFeeRules(nil, nil, []model.FeeTier{
		{ID: uuid.New(), Name: "new", MinOrders: 0, MaxOrders: &maxOrders, FeePercentage: decimal.NewFromInt(12), Priority: 1, IsActive: true},
	})

	fee, err := h.fees.Preview(ctx, h.designer, decimal.RequireFromString("999.99"))
	require.NoError(t, err)
	assert.Equal(t, model.FeeRuleTier, fee.AppliedRule)
	requireDecimal(t, "120", fee.FeeAmount)
	requireDecimal(t, "879.99", fee.DesignerReceives)

	_, err = h.fees.Preview(ctx, h.designer, decimal.Zero)
	require.ErrorIs(t, err, domainErrors.ErrValidation)
}

func TestInboxList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.store.Notifications().Create(ctx, &model.Notification{ID: uuid.New(), UserID: h.customer, Type: "a"}))
	require.NoError(t, h.store.Notifications().Create(ctx, &model.Notification{ID: uuid.New(), UserID: h.customer, Type: "b"}))
	require.NoError(t, h.store.Notifications().Create(ctx, &model.Notification{ID: uuid.New(), UserID: h.designer, Type: "c"}))

	list, err := h.inbox.List(ctx, h.customer, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Type)
}
