// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"mcp-calorie-ledger/internal/models"
)

// SQLiteStore persists day records to a SQLite database, keyed by day key
// with totals and history stored as JSON. Used when the tracker should
// survive process restarts.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS days (
        day_key TEXT PRIMARY KEY,
        totals TEXT NOT NULL,
        history TEXT NOT NULL
    );
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*models.DayRecord, error) {
	var totalsJSON, historyJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT totals, history FROM days WHERE day_key = ?`, key,
	).Scan(&totalsJSON, &historyJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query day %s: %w", key, err)
	}

	rec := &models.DayRecord{}
	if err := json.Unmarshal([]byte(totalsJSON), &rec.Totals); err != nil {
		return nil, fmt.Errorf("failed to decode totals for %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(historyJSON), &rec.History); err != nil {
		return nil, fmt.Errorf("failed to decode history for %s: %w", key, err)
	}

	return rec, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, rec *models.DayRecord) error {
	totalsJSON, err := json.Marshal(rec.Totals)
	if err != nil {
		return fmt.Errorf("failed to encode totals: %w", err)
	}

	history := rec.History
	if history == nil {
		history = []models.FoodEntry{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	query := `
        INSERT INTO days (day_key, totals, history)
        VALUES (?, ?, ?)
        ON CONFLICT(day_key) DO UPDATE SET totals = excluded.totals, history = excluded.history
    `
	if _, err := s.db.ExecContext(ctx, query, key, string(totalsJSON), string(historyJSON)); err != nil {
		return fmt.Errorf("failed to upsert day %s: %w", key, err)
	}

	return nil
}

var _ Store = (*SQLiteStore)(nil)
