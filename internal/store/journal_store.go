package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/parrotops/internal/domain"
)

// JournalStore persists the local audit trail of spreadsheet mutations.
type JournalStore struct {
	db *sql.DB
}

func NewJournalStore(db *sql.DB) *JournalStore {
	return &JournalStore{db: db}
}

func (s *JournalStore) Create(ctx context.Context, action, subject, detail, actor string) (*domain.JournalEntry, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (action, subject, detail, actor) VALUES (?, ?, ?, ?)
	`, action, subject, detail, actor)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *JournalStore) GetByID(ctx context.Context, id int64) (*domain.JournalEntry, error) {
	e := &domain.JournalEntry{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, action, subject, detail, actor, created_at FROM journal WHERE id = ?
	`, id).Scan(&e.ID, &e.Action, &e.Subject, &e.Detail, &e.Actor, &e.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	return e, nil
}

// ListRecent returns up to limit entries, newest first.
func (s *JournalStore) ListRecent(ctx context.Context, limit int) ([]*domain.JournalEntry, error) {
	return s.query(ctx, `
		SELECT id, action, subject, detail, actor, created_at FROM journal
		ORDER BY id DESC LIMIT ?
	`, limit)
}

// ListBySubject returns the entries for one lot, bin or zone layout, newest
// first.
func (s *JournalStore) ListBySubject(ctx context.Context, subject string, limit int) ([]*domain.JournalEntry, error) {
	return s.query(ctx, `
		SELECT id, action, subject, detail, actor, created_at FROM journal
		WHERE subject = ? ORDER BY id DESC LIMIT ?
	`, subject, limit)
}

func (s *JournalStore) query(ctx context.Context, q string, args ...any) ([]*domain.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	entries := make([]*domain.JournalEntry, 0)
	for rows.Next() {
		e := &domain.JournalEntry{}
		if err := rows.Scan(&e.ID, &e.Action, &e.Subject, &e.Detail, &e.Actor, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal: %w", err)
	}

	return entries, nil
}
