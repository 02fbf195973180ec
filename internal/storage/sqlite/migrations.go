package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Amounts are INTEGER minor units throughout; REAL is never used for money.
const schema = `
CREATE TABLE IF NOT EXISTS scopes (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS scope_members (
    scope_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    PRIMARY KEY (scope_id, member_id),
    FOREIGN KEY (scope_id) REFERENCES scopes(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    scope_id TEXT NOT NULL,
    payer_id TEXT NOT NULL,
    description TEXT NOT NULL,
    total_amount INTEGER NOT NULL,
    policy TEXT NOT NULL,
    deleted INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (scope_id) REFERENCES scopes(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS splits (
    expense_id TEXT NOT NULL,
    member_id TEXT NOT NULL,
    amount INTEGER NOT NULL,
    PRIMARY KEY (expense_id, member_id),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    scope_id TEXT NOT NULL,
    from_id TEXT NOT NULL,
    to_id TEXT NOT NULL,
    amount INTEGER NOT NULL,
    status TEXT NOT NULL,
    note TEXT,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (scope_id) REFERENCES scopes(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_expenses_scope_id ON expenses(scope_id);
CREATE INDEX IF NOT EXISTS idx_splits_member_id ON splits(member_id);
CREATE INDEX IF NOT EXISTS idx_settlements_scope_id ON settlements(scope_id);
CREATE INDEX IF NOT EXISTS idx_settlements_from_id ON settlements(from_id);
CREATE INDEX IF NOT EXISTS idx_settlements_to_id ON settlements(to_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
