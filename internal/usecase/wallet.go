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

const (
	withdrawalDescription = "Withdrawal"
	defaultHistoryLimit   = 50
	maxHistoryLimit       = 500
)

// Ledger is the only writer of wallet balances.
type Ledger struct {
	tx  repository.Transactor
	now Clock
}

// NewLedger constructs Ledger.
func NewLedger(tx repository.Transactor, now Clock) *Ledger {
	return &Ledger{tx: tx, now: now}
}

// WalletAudit compares the cached balance with the replayed transaction log.
type WalletAudit struct {
	UserID     uuid.UUID       `json:"userId"`
	Cached     decimal.Decimal `json:"cachedBalance"`
	Replayed   decimal.Decimal `json:"replayedBalance"`
	Consistent bool            `json:"consistent"`
}

// Credit adds amount to the user's wallet in its own transaction.
func (l *Ledger) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string, orderID *uuid.UUID) (*model.WalletTransaction, error) {
	var result *model.WalletTransaction
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Factory) error {
		tx, err := l.CreditWithin(ctx, repos, userID, amount, description, orderID, l.now())
		if err != nil {
			return err
		}
		result = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreditWithin credits inside a transaction owned by the caller.
func (l *Ledger) CreditWithin(ctx context.Context, repos repository.Factory, userID uuid.UUID, amount decimal.Decimal, description string, orderID *uuid.UUID, at time.Time) (*model.WalletTransaction, error) {
	return l.apply(ctx, repos, userID, model.TransactionCredit, amount, description, orderID, at)
}

// Debit removes amount from the user's wallet. The balance never goes negative.
func (l *Ledger) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*model.WalletTransaction, error) {
	var result *model.WalletTransaction
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Factory) error {
		tx, err := l.apply(ctx, repos, userID, model.TransactionDebit, amount, description, nil, l.now())
		if err != nil {
			return err
		}
		result = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Withdraw pays out part of the balance.
func (l *Ledger) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*model.WalletTransaction, error) {
	return l.Debit(ctx, userID, amount, withdrawalDescription)
}

func (l *Ledger) apply(ctx context.Context, repos repository.Factory, userID uuid.UUID, kind model.TransactionType, amount decimal.Decimal, description string, orderID *uuid.UUID, at time.Time) (*model.WalletTransaction, error) {
	if !amount.IsPositive() {
		return nil, domainErrors.Validation("invalid_amount", "amount must be positive")
	}

	wallet, err := repos.Wallets().GetForUpdate(ctx, userID)
	if err != nil {
		return nil, err
	}

	before := wallet.Balance
	after := before.Add(amount)
	if kind == model.TransactionDebit {
		if amount.GreaterThan(before) {
			return nil, domainErrors.InsufficientBalance("insufficient_balance",
				"balance %s is lower than %s", before.StringFixed(2), amount.StringFixed(2))
		}
		after = before.Sub(amount)
	}

	tx := &model.WalletTransaction{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          kind,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   description,
		OrderID:       orderID,
		CreatedAt:     at,
	}
	if err := repos.Wallets().SetBalance(ctx, userID, after, at); err != nil {
		return nil, err
	}
	if err := repos.Wallets().AppendTransaction(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Balance returns the cached wallet balance. Users without a wallet have zero.
func (l *Ledger) Balance(ctx context.Context, userID uuid.UUID) (*model.Wallet, error) {
	return l.tx.Wallets().Get(ctx, userID)
}

// History lists the newest transactions first.
func (l *Ledger) History(ctx context.Context, userID uuid.UUID, limit int) ([]model.WalletTransaction, error) {
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	return l.tx.Wallets().History(ctx, userID, limit)
}

// Verify replays the transaction log and compares it with the cached balance.
func (l *Ledger) Verify(ctx context.Context, userID uuid.UUID) (*WalletAudit, error) {
	audit := &WalletAudit{UserID: userID}
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Factory) error {
		wallet, err := repos.Wallets().Get(ctx, userID)
		if err != nil {
			return err
		}
		txs, err := repos.Wallets().Ledger(ctx, userID)
		if err != nil {
			return err
		}
		replayed, chained := model.ReplayBalance(txs)
		audit.Cached = wallet.Balance
		audit.Replayed = replayed
		audit.Consistent = chained && replayed.Equal(wallet.Balance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audit, nil
}
