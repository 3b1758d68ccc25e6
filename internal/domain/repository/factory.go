package repository

import "context"

// Factory exposes repositories bound to one database handle.
type Factory interface {
	Offers() OfferRepository
	Orders() OrderRepository
	Wallets() WalletRepository
	FeeRules() FeeRuleRepository
	Catalog() CatalogRepository
	Notifications() NotificationRepository
	Reminders() ReminderRepository
}

// Transactor runs fn with repositories sharing a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	Factory
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos Factory) error) error
}
