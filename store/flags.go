package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// Flags persisted per presentation session.
const (
	FlagLoaderShown = "godaddy-loader-shown"
	FlagMuted       = "aurora-sound-muted"
)

// FlagStore is small per-session key-value persistence. An unknown session
// or key reads as false.
type FlagStore interface {
	GetFlag(ctx context.Context, session, key string) (bool, error)
	SetFlag(ctx context.Context, session, key string, value bool) error
	ClearFlags(ctx context.Context, session string) error
}

type MemoryFlags struct {
	mu    sync.RWMutex
	flags map[string]map[string]bool
}

func NewMemoryFlags() *MemoryFlags {
	return &MemoryFlags{flags: make(map[string]map[string]bool)}
}

func (m *MemoryFlags) GetFlag(_ context.Context, session, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[session][key], nil
}

func (m *MemoryFlags) SetFlag(_ context.Context, session, key string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.flags[session]
	if !ok {
		s = make(map[string]bool)
		m.flags[session] = s
	}
	s[key] = value
	return nil
}

func (m *MemoryFlags) ClearFlags(_ context.Context, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.flags, session)
	return nil
}

// SQLFlags keeps flags in the session_flags table. Run Migrate first.
// Queries use $n placeholders, which lib/pq and modernc sqlite both accept.
type SQLFlags struct {
	db *sql.DB
}

func NewSQLFlags(db *sql.DB) *SQLFlags {
	return &SQLFlags{db: db}
}

func (f *SQLFlags) GetFlag(ctx context.Context, session, key string) (bool, error) {
	var value bool
	err := f.db.QueryRowContext(ctx,
		`SELECT flag_value FROM session_flags WHERE session_id = $1 AND flag_key = $2`,
		session, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get flag %s: %w", key, err)
	}
	return value, nil
}

func (f *SQLFlags) SetFlag(ctx context.Context, session, key string, value bool) error {
	return Transact(ctx, f.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO session_flags (session_id, flag_key, flag_value)
VALUES ($1, $2, $3)
ON CONFLICT (session_id, flag_key) DO UPDATE SET flag_value = excluded.flag_value`,
			session, key, value)
		if err != nil {
			return fmt.Errorf("set flag %s: %w", key, err)
		}
		return nil
	})
}

func (f *SQLFlags) ClearFlags(ctx context.Context, session string) error {
	return Transact(ctx, f.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM session_flags WHERE session_id = $1`, session)
		return err
	})
}
