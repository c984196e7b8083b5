package postgres

import "context"

// schema holds the tables the repositories expect. Subscriptions are stored
// as a jsonb document next to the columns used for filtering.
const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id                VARCHAR(50) PRIMARY KEY,
	subscription_key  VARCHAR(50) NOT NULL UNIQUE,
	source            VARCHAR(100) NOT NULL DEFAULT '',
	source_id         VARCHAR(100) NOT NULL DEFAULT '',
	status            VARCHAR(20) NOT NULL,
	next_payment_date TIMESTAMPTZ NULL,
	document          JSONB NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_status_next_payment
	ON subscriptions (status, next_payment_date);
CREATE INDEX IF NOT EXISTS idx_subscriptions_source
	ON subscriptions (source, source_id);
`

// Migrate creates missing tables and indexes
func (db *DB) Migrate(ctx context.Context) error {
	db.logger.Infow("applying database schema")
	_, err := db.GetQuerier(ctx).ExecContext(ctx, schema)
	return err
}

// Schema returns the DDL applied by Migrate
func Schema() string {
	return schema
}
