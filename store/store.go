package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DialectPostgres, DialectSQLite:
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DialectSQLite {
		// every connection to ":memory:" is its own database
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func Transact(ctx context.Context, db *sql.DB, db_func func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = db_func(tx)
	if err != nil {
		tx.Rollback()
		return err
	}

	err = tx.Commit()
	if err != nil {
		tx.Rollback()
		return err
	}

	return nil
}

func Migrate(ctx context.Context, db *sql.DB) error {
	return Transact(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS session_flags (
	session_id TEXT NOT NULL,
	flag_key   TEXT NOT NULL,
	flag_value BOOLEAN NOT NULL,
	PRIMARY KEY (session_id, flag_key)
)`)
		return err
	})
}
