package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a wallet movement.
type TransactionType string

const (
	TransactionCredit TransactionType = "CREDIT"
	TransactionDebit  TransactionType = "DEBIT"
)

// Wallet is the cached balance of a user.
type Wallet struct {
	UserID    uuid.UUID       `json:"userId"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// WalletTransaction is an append-only ledger row.
type WalletTransaction struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"userId"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	Description   string          `json:"description"`
	OrderID       *uuid.UUID      `json:"orderId,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ReplayBalance folds chronologically ordered transactions into a balance.
// It reports false when a row does not chain onto the previous one.
func ReplayBalance(txs []WalletTransaction) (decimal.Decimal, bool) {
	balance := decimal.Zero
	for _, tx := range txs {
		if !tx.BalanceBefore.Equal(balance) {
			return balance, false
		}
		switch tx.Type {
		case TransactionCredit:
			balance = balance.Add(tx.Amount)
		case TransactionDebit:
			balance = balance.Sub(tx.Amount)
		default:
			return balance, false
		}
		if !tx.BalanceAfter.Equal(balance) || balance.IsNegative() {
			return balance, false
		}
	}
	return balance, true
}
