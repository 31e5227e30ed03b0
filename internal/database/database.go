package database

import (
	"database/sql"

	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dataSourceName+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		display_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'user',
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS debts (
		id TEXT NOT NULL PRIMARY KEY,
		-- Each side of a debt is either a registered user or a freeform label.
		debtor_user_id TEXT REFERENCES users(id),
		debtor_label TEXT,
		creditor_user_id TEXT REFERENCES users(id),
		creditor_label TEXT,
		amount TEXT NOT NULL,
		description TEXT NOT NULL,
		debt_date TEXT NOT NULL,  -- calendar date, YYYY-MM-DD
		due_date TEXT,            -- calendar date, YYYY-MM-DD, nullable
		status TEXT NOT NULL DEFAULT 'unpaid',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_debts_debtor ON debts(debtor_user_id);
	CREATE INDEX IF NOT EXISTS idx_debts_creditor ON debts(creditor_user_id);
	CREATE INDEX IF NOT EXISTS idx_debts_status_due ON debts(status, due_date);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
