package postgres

import (
	"context"
	"errors"
	"time"

	crerrors "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/model"
)

type walletRepository struct {
	db querier
}

func scanWallet(row rowScanner) (*model.Wallet, error) {
	var (
		w       model.Wallet
		balance string
	)
	if err := row.Scan(&w.UserID, &balance, &w.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if w.Balance, err = parseDecimal(balance); err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *walletRepository) Get(ctx context.Context, userID uuid.UUID) (*model.Wallet, error) {
	const query = `SELECT user_id, balance::text, updated_at FROM wallets WHERE user_id=$1`
	w, err := scanWallet(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.Wallet{UserID: userID, Balance: decimal.Zero}, nil
		}
		return nil, crerrors.Wrap(err, "select wallet")
	}
	return w, nil
}

func (r *walletRepository) GetForUpdate(ctx context.Context, userID uuid.UUID) (*model.Wallet, error) {
	const ensure = `INSERT INTO wallets (user_id, balance) VALUES ($1, 0) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.Exec(ctx, ensure, userID); err != nil {
		return nil, crerrors.Wrap(err, "ensure wallet")
	}
	const query = `SELECT user_id, balance::text, updated_at FROM wallets WHERE user_id=$1 FOR UPDATE`
	w, err := scanWallet(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, crerrors.Wrap(err, "lock wallet")
	}
	return w, nil
}

func (r *walletRepository) SetBalance(ctx context.Context, userID uuid.UUID, balance decimal.Decimal, at time.Time) error {
	const query = `UPDATE wallets SET balance=$2, updated_at=$3 WHERE user_id=$1`
	if _, err := r.db.Exec(ctx, query, userID, decimalArg(balance), at); err != nil {
		return crerrors.Wrap(err, "update wallet balance")
	}
	return nil
}

func (r *walletRepository) AppendTransaction(ctx context.Context, tx *model.WalletTransaction) error {
	const query = `INSERT INTO wallet_transactions (id, user_id, type, amount, balance_before, balance_after,
                       description, order_id, created_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.Exec(ctx, query, tx.ID, tx.UserID, tx.Type, decimalArg(tx.Amount), decimalArg(tx.BalanceBefore),
		decimalArg(tx.BalanceAfter), tx.Description, tx.OrderID, tx.CreatedAt)
	if err != nil {
		return crerrors.Wrap(err, "insert wallet transaction")
	}
	return nil
}

const walletTxColumns = `id, user_id, type, amount::text, balance_before::text, balance_after::text,
       description, order_id, created_at`

func scanWalletTransaction(row rowScanner) (*model.WalletTransaction, error) {
	var (
		tx                    model.WalletTransaction
		amount, before, after string
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &tx.Type, &amount, &before, &after, &tx.Description, &tx.OrderID, &tx.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if tx.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if tx.BalanceBefore, err = parseDecimal(before); err != nil {
		return nil, err
	}
	if tx.BalanceAfter, err = parseDecimal(after); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *walletRepository) History(ctx context.Context, userID uuid.UUID, limit int) ([]model.WalletTransaction, error) {
	query := `SELECT ` + walletTxColumns + ` FROM wallet_transactions
              WHERE user_id=$1 ORDER BY created_at DESC, balance_after DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, crerrors.Wrap(err, "list wallet transactions")
	}
	return collect(rows, scanWalletTransaction)
}

func (r *walletRepository) Ledger(ctx context.Context, userID uuid.UUID) ([]model.WalletTransaction, error) {
	query := `SELECT ` + walletTxColumns + ` FROM wallet_transactions
              WHERE user_id=$1 ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, crerrors.Wrap(err, "load wallet ledger")
	}
	return collect(rows, scanWalletTransaction)
}
