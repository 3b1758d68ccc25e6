package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

// WalletRepository stores cached balances and the transaction log.
type WalletRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*model.Wallet, error)
	// GetForUpdate creates the wallet if needed and locks it.
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*model.Wallet, error)
	SetBalance(ctx context.Context, userID uuid.UUID, balance decimal.Decimal, at time.Time) error
	AppendTransaction(ctx context.Context, tx *model.WalletTransaction) error
	// History returns the newest transactions first.
	History(ctx context.Context, userID uuid.UUID, limit int) ([]model.WalletTransaction, error)
	// Ledger returns every transaction oldest first.
	Ledger(ctx context.Context, userID uuid.UUID) ([]model.WalletTransaction, error)
}
