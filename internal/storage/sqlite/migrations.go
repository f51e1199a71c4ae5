package sqlite

import "database/sql"

// schema sets up the database tables. It runs on startup to ensure tables exist.
// Amounts are stored as base-10 TEXT because they can exceed 64 bits.
// Timestamps are unix nanoseconds.
const schema = `
CREATE TABLE IF NOT EXISTS members (
    id INTEGER PRIMARY KEY,
    account TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pots (
    id INTEGER PRIMARY KEY,
    denomination_asset TEXT NOT NULL,
    interest_rate_bps INTEGER NOT NULL,
    billing_period_seconds INTEGER NOT NULL CHECK (billing_period_seconds > 0),
    last_cut_at INTEGER NOT NULL,
    next_due_at INTEGER NOT NULL,
    last_applied_batch_id INTEGER NOT NULL DEFAULT 0,
    batch_count INTEGER NOT NULL DEFAULT 0,
    liquidity TEXT NOT NULL DEFAULT '0',
    active INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS pot_members (
    pot_id INTEGER NOT NULL,
    member_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    weight_bps INTEGER NOT NULL,
    balance TEXT NOT NULL DEFAULT '0',
    PRIMARY KEY (pot_id, member_id),
    FOREIGN KEY (pot_id) REFERENCES pots(id),
    FOREIGN KEY (member_id) REFERENCES members(id)
);

CREATE TABLE IF NOT EXISTS batches (
    pot_id INTEGER NOT NULL,
    id INTEGER NOT NULL,
    weights_override TEXT,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (pot_id, id),
    FOREIGN KEY (pot_id) REFERENCES pots(id)
);

CREATE TABLE IF NOT EXISTS batch_payments (
    pot_id INTEGER NOT NULL,
    batch_id INTEGER NOT NULL,
    position INTEGER NOT NULL,
    member_id INTEGER NOT NULL,
    amount TEXT NOT NULL,
    PRIMARY KEY (pot_id, batch_id, position),
    FOREIGN KEY (pot_id, batch_id) REFERENCES batches(pot_id, id)
);

CREATE TABLE IF NOT EXISTS cuts (
    id INTEGER PRIMARY KEY,
    pot_id INTEGER NOT NULL,
    first_batch_id INTEGER NOT NULL,
    last_batch_id INTEGER NOT NULL,
    periods_charged INTEGER NOT NULL,
    residue TEXT NOT NULL,
    cut_at INTEGER NOT NULL,
    FOREIGN KEY (pot_id) REFERENCES pots(id)
);

CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    pot_id INTEGER NOT NULL,
    member_id INTEGER NOT NULL,
    direction TEXT NOT NULL,
    asset TEXT NOT NULL,
    asset_amount TEXT NOT NULL,
    denomination_amount TEXT NOT NULL,
    refund TEXT NOT NULL DEFAULT '0',
    created_at INTEGER NOT NULL,
    FOREIGN KEY (pot_id) REFERENCES pots(id),
    FOREIGN KEY (member_id) REFERENCES members(id)
);

CREATE TABLE IF NOT EXISTS outbox_messages (
    id INTEGER PRIMARY KEY,
    event_id TEXT NOT NULL UNIQUE,
    topic TEXT NOT NULL,
    message_key TEXT NOT NULL,
    payload TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'PENDING',
    retry_count INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pot_members_member_id ON pot_members(member_id);
CREATE INDEX IF NOT EXISTS idx_batch_payments_batch ON batch_payments(pot_id, batch_id);
CREATE INDEX IF NOT EXISTS idx_cuts_pot_id ON cuts(pot_id);
CREATE INDEX IF NOT EXISTS idx_settlements_pot_id ON settlements(pot_id);
CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_messages(status, id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
