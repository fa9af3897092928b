package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/movequote/internal/domain"
)

type QuoteStore struct {
	db *sql.DB
}

func NewQuoteStore(db *sql.DB) *QuoteStore {
	return &QuoteStore{db: db}
}

func (s *QuoteStore) Create(ctx context.Context, clientName, totalLow, totalHigh string, snapshot []byte) (*domain.SavedQuote, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (client_name, total_low, total_high, snapshot) VALUES (?, ?, ?, ?)
	`, clientName, totalLow, totalHigh, string(snapshot))
	if err != nil {
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *QuoteStore) GetByID(ctx context.Context, id int64) (*domain.SavedQuote, error) {
	q := &domain.SavedQuote{}
	var snapshot string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, client_name, total_low, total_high, snapshot, created_at FROM quotes WHERE id = ?
	`, id).Scan(&q.ID, &q.ClientName, &q.TotalLow, &q.TotalHigh, &snapshot, &q.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	q.Snapshot = []byte(snapshot)
	return q, nil
}

// List returns quote summaries, newest first, without their snapshots.
func (s *QuoteStore) List(ctx context.Context) ([]*domain.SavedQuote, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, client_name, total_low, total_high, created_at FROM quotes
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*domain.SavedQuote
	for rows.Next() {
		q := &domain.SavedQuote{}
		if err := rows.Scan(&q.ID, &q.ClientName, &q.TotalLow, &q.TotalHigh, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quotes: %w", err)
	}

	return quotes, nil
}

func (s *QuoteStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM quotes WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete quote: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("quote not found")
	}

	return nil
}
