package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	crerrors "github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/domain/repository"
)

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxPool interface {
	querier
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

const (
	maxTxAttempts = 3
	txRetryDelay  = 50 * time.Millisecond
)

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

// repoSet builds repositories on top of a pool or a transaction.
type repoSet struct {
	db querier
}

func (r repoSet) Offers() repository.OfferRepository     { return &offerRepository{db: r.db} }
func (r repoSet) Orders() repository.OrderRepository     { return &orderRepository{db: r.db} }
func (r repoSet) Wallets() repository.WalletRepository   { return &walletRepository{db: r.db} }
func (r repoSet) FeeRules() repository.FeeRuleRepository { return &feeRuleRepository{db: r.db} }
func (r repoSet) Catalog() repository.CatalogRepository  { return &catalogRepository{db: r.db} }
func (r repoSet) Notifications() repository.NotificationRepository {
	return &notificationRepository{db: r.db}
}
func (r repoSet) Reminders() repository.ReminderRepository { return &reminderRepository{db: r.db} }

var _ repository.Transactor = (*Storage)(nil)

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, crerrors.Wrap(err, "parse dsn")
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, crerrors.Wrap(err, "connect db")
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Storage) set() repoSet { return repoSet{db: s.pool} }

// Factory methods for domain repositories outside of a transaction.
func (s *Storage) Offers() repository.OfferRepository               { return s.set().Offers() }
func (s *Storage) Orders() repository.OrderRepository               { return s.set().Orders() }
func (s *Storage) Wallets() repository.WalletRepository             { return s.set().Wallets() }
func (s *Storage) FeeRules() repository.FeeRuleRepository           { return s.set().FeeRules() }
func (s *Storage) Catalog() repository.CatalogRepository            { return s.set().Catalog() }
func (s *Storage) Notifications() repository.NotificationRepository { return s.set().Notifications() }
func (s *Storage) Reminders() repository.ReminderRepository         { return s.set().Reminders() }

// WithinTransaction executes fn inside a transaction boundary. Serialization
// failures and deadlocks are retried with a fresh transaction.
func (s *Storage) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Factory) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if err == nil || !isRetryable(err) || attempt == maxTxAttempts {
			return err
		}
		s.logger.Warn("retrying transaction",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * txRetryDelay):
		}
	}
	return err
}

func (s *Storage) runTx(ctx context.Context, fn func(ctx context.Context, repos repository.Factory) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return crerrors.Wrap(err, "begin tx")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else if commitErr := tx.Commit(ctx); commitErr != nil {
			err = crerrors.Wrap(commitErr, "commit tx")
		}
	}()

	err = fn(ctx, repoSet{db: tx})
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// uniqueViolation reports the violated constraint of a 23505 error.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
