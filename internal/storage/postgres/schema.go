package postgres

import (
	"context"

	crerrors "github.com/cockroachdb/errors"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS catalog_items (
        id UUID PRIMARY KEY,
        designer_id UUID NOT NULL,
        title TEXT NOT NULL,
        list_price NUMERIC(14,2) NOT NULL CHECK (list_price > 0),
        production_steps JSONB NOT NULL DEFAULT '[]'
    )`,
	`CREATE TABLE IF NOT EXISTS addresses (
        id UUID PRIMARY KEY,
        user_id UUID NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS offers (
        id UUID PRIMARY KEY,
        customer_id UUID NOT NULL,
        designer_id UUID NOT NULL,
        catalog_item_id UUID NOT NULL REFERENCES catalog_items(id),
        customer_price NUMERIC(14,2) NOT NULL,
        designer_price NUMERIC(14,2),
        final_price NUMERIC(14,2),
        status TEXT NOT NULL,
        notes TEXT,
        designer_notes TEXT,
        measurements JSONB NOT NULL DEFAULT '{}',
        try_on_image_url TEXT,
        expires_at TIMESTAMPTZ NOT NULL,
        deadline TIMESTAMPTZ,
        awaiting_response_from TEXT,
        accepted_at TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        CONSTRAINT offers_final_price_iff_accepted CHECK ((final_price IS NOT NULL) = (status = 'ACCEPTED'))
    )`,
	`CREATE TABLE IF NOT EXISTS orders (
        id UUID PRIMARY KEY,
        order_number TEXT UNIQUE NOT NULL,
        offer_id UUID UNIQUE NOT NULL REFERENCES offers(id),
        customer_id UUID NOT NULL,
        designer_id UUID NOT NULL,
        catalog_item_id UUID NOT NULL,
        final_price NUMERIC(14,2) NOT NULL,
        status TEXT NOT NULL,
        production_steps JSONB NOT NULL CHECK (jsonb_array_length(production_steps) > 0),
        shipping_address_id UUID NOT NULL,
        payment_reference TEXT UNIQUE NOT NULL,
        deadline TIMESTAMPTZ,
        shipped_at TIMESTAMPTZ,
        carrier TEXT,
        tracking_number TEXT,
        estimated_delivery TIMESTAMPTZ,
        delivered_at TIMESTAMPTZ,
        confirmation_window_end TIMESTAMPTZ,
        auto_confirm_at TIMESTAMPTZ,
        delivery_confirmed_by TEXT,
        customer_rating INT,
        customer_review TEXT,
        payment_released_at TIMESTAMPTZ,
        payment_amount NUMERIC(14,2),
        platform_fee NUMERIC(14,2),
        fee_percentage_applied NUMERIC(5,2),
        dispute_opened_at TIMESTAMPTZ,
        dispute_reason TEXT,
        cancelled_at TIMESTAMPTZ,
        cancel_reason TEXT,
        buyer_protection_until TIMESTAMPTZ NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS order_sequences (
        year INT PRIMARY KEY,
        last_value BIGINT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS order_reminders (
        order_id UUID NOT NULL REFERENCES orders(id),
        kind TEXT NOT NULL,
        sent_at TIMESTAMPTZ NOT NULL,
        PRIMARY KEY (order_id, kind)
    )`,
	`CREATE TABLE IF NOT EXISTS wallets (
        user_id UUID PRIMARY KEY,
        balance NUMERIC(14,2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE TABLE IF NOT EXISTS wallet_transactions (
        id UUID PRIMARY KEY,
        user_id UUID NOT NULL REFERENCES wallets(user_id),
        type TEXT NOT NULL,
        amount NUMERIC(14,2) NOT NULL CHECK (amount > 0),
        balance_before NUMERIC(14,2) NOT NULL,
        balance_after NUMERIC(14,2) NOT NULL,
        description TEXT NOT NULL,
        order_id UUID,
        created_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS fee_tiers (
        id UUID PRIMARY KEY,
        name TEXT NOT NULL,
        min_orders INT NOT NULL,
        max_orders INT,
        fee_percentage NUMERIC(5,2) NOT NULL,
        priority INT NOT NULL DEFAULT 0,
        is_active BOOLEAN NOT NULL DEFAULT TRUE
    )`,
	`CREATE TABLE IF NOT EXISTS designer_fee_overrides (
        id UUID PRIMARY KEY,
        designer_id UUID NOT NULL,
        fee_percentage NUMERIC(5,2) NOT NULL,
        effective_from TIMESTAMPTZ NOT NULL,
        effective_until TIMESTAMPTZ,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        reason TEXT
    )`,
	`CREATE TABLE IF NOT EXISTS fee_promotional_periods (
        id UUID PRIMARY KEY,
        name TEXT NOT NULL,
        fee_percentage NUMERIC(5,2) NOT NULL,
        start_date TIMESTAMPTZ NOT NULL,
        end_date TIMESTAMPTZ NOT NULL,
        is_active BOOLEAN NOT NULL DEFAULT TRUE,
        applicable_to_all BOOLEAN NOT NULL DEFAULT TRUE
    )`,
	`CREATE TABLE IF NOT EXISTS notifications (
        id UUID PRIMARY KEY,
        user_id UUID NOT NULL,
        type TEXT NOT NULL,
        title TEXT NOT NULL,
        message TEXT NOT NULL,
        data JSONB NOT NULL DEFAULT '{}',
        is_read BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_offers_customer ON offers(customer_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_offers_designer ON offers(designer_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_offers_open_expiry ON offers(expires_at) WHERE status IN ('PENDING', 'COUNTERED')`,
	`CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders(customer_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_designer ON orders(designer_id, created_at DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS orders_payment_reference_key ON orders(payment_reference)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_auto_confirm ON orders(auto_confirm_at) WHERE payment_released_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_wallet_transactions_user ON wallet_transactions(user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC)`,
}

func (s *Storage) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return crerrors.Wrap(err, "init schema")
		}
	}
	return nil
}
