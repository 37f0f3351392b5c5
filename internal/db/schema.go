package db

import "context"

// schema is applied at startup. Statements are idempotent; the unique index
// on reversals is the store-level idempotency gate for the reversal engine.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'ordinary',
		is_guest BOOLEAN NOT NULL DEFAULT FALSE,
		allows_negative_balance BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		password_hash TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_unique
		ON accounts (email)
		WHERE email <> '' AND deleted_at IS NULL`,
	`CREATE TABLE IF NOT EXISTS catalog_items (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		price_cents BIGINT NOT NULL,
		purchase_price_cents BIGINT NOT NULL DEFAULT 0,
		stock_quantity INTEGER,
		low_stock_threshold INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		is_mixed_drink BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS item_components (
		item_id BIGINT NOT NULL REFERENCES catalog_items(id),
		component_id BIGINT NOT NULL REFERENCES catalog_items(id),
		quantity INTEGER NOT NULL,
		PRIMARY KEY (item_id, component_id)
	)`,
	`CREATE TABLE IF NOT EXISTS consumptions (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id),
		item_id BIGINT,
		item_name TEXT NOT NULL DEFAULT '',
		price_at_purchase BIGINT NOT NULL,
		source_channel TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS topups (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id),
		amount BIGINT NOT NULL,
		provider TEXT NOT NULL,
		provider_reference TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS topups_provider_reference_unique
		ON topups (provider, provider_reference)
		WHERE provider_reference <> ''`,
	`CREATE TABLE IF NOT EXISTS adjustments (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id),
		delta BIGINT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		created_by BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS reversals (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id),
		original_event_id BIGINT NOT NULL,
		original_event_type TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		reversed_by BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS reversals_original_event_unique
		ON reversals (original_event_id, original_event_type)`,
	`CREATE TABLE IF NOT EXISTS stock_ledger (
		id BIGSERIAL PRIMARY KEY,
		item_id BIGINT NOT NULL REFERENCES catalog_items(id),
		quantity_change INTEGER NOT NULL,
		transaction_type TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		session_id TEXT,
		created_by BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT,
		title TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT 'info',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		read_at TIMESTAMPTZ,
		deleted_at TIMESTAMPTZ
	)`,
}

// EnsureSchema applies the DDL above.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := p.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
