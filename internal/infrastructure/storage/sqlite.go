package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/simplespot/invest-engine-e2e/internal/domain"
)

// JournalStore keeps the run history in sqlite: one row per verified
// scenario step, queryable after the suite finishes.
type JournalStore struct {
	db *sql.DB
}

func NewJournalStore(dbPath string) (*JournalStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &JournalStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *JournalStore) initSchema() error {
	query := `CREATE TABLE IF NOT EXISTS run_journal (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		scenario TEXT NOT NULL,
		position_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		direction INTEGER NOT NULL,
		status INTEGER NOT NULL,
		close_reason INTEGER NOT NULL,
		detail TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_run_journal_run_id ON run_journal(run_id);`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("init journal schema: %w", err)
	}
	return nil
}

func (s *JournalStore) SaveEntry(ctx context.Context, entry *domain.JournalEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_journal (run_id, scenario, position_id, symbol, direction, status, close_reason, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.Scenario, entry.PositionID, entry.Symbol,
		int(entry.Direction), int(entry.Status), int(entry.CloseReason),
		entry.Detail, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("save journal entry: %w", err)
	}
	return nil
}

func (s *JournalStore) ListEntries(ctx context.Context, runID string, limit int) ([]*domain.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, scenario, position_id, symbol, direction, status, close_reason, detail, created_at
		 FROM run_journal WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		runID, limit)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		var direction, status, closeReason int
		if err := rows.Scan(&e.ID, &e.RunID, &e.Scenario, &e.PositionID, &e.Symbol,
			&direction, &status, &closeReason, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Direction = domain.Direction(direction)
		e.Status = domain.Status(status)
		e.CloseReason = domain.CloseReason(closeReason)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (s *JournalStore) Close() error {
	return s.db.Close()
}
