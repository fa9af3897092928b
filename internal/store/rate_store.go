package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/movequote/internal/domain"
)

// RateStore persists operator rate overrides. Only overridden names are
// stored; the rest fall through to the configured defaults.
type RateStore struct {
	db *sql.DB
}

func NewRateStore(db *sql.DB) *RateStore {
	return &RateStore{db: db}
}

func (s *RateStore) Load(ctx context.Context) (domain.RateSchedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, value FROM rate_overrides ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load rates: %w", err)
	}
	defer rows.Close()

	rates := domain.RateSchedule{}
	for rows.Next() {
		var name string
		var value float64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		rates[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rates: %w", err)
	}

	return rates, nil
}

// Save upserts every entry of rates in one transaction.
func (s *RateStore) Save(ctx context.Context, rates domain.RateSchedule) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for name, value := range rates {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rate_overrides (name, value) VALUES (?, ?)
			ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = datetime('now')
		`, name, value)
		if err != nil {
			return fmt.Errorf("failed to save rate %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rates: %w", err)
	}
	return nil
}

// Reset removes every override.
func (s *RateStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rate_overrides`); err != nil {
		return fmt.Errorf("failed to reset rates: %w", err)
	}
	return nil
}
