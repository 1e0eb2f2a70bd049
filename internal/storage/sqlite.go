package storage

import (
	"context"
	"database/sql"
	"strings"

	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	baseStore
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:watersafe.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{baseStore{db: db, placeholder: func(int) string { return "?" }}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	return s.init(ctx, []string{
		`CREATE TABLE IF NOT EXISTS letters (
			id TEXT PRIMARY KEY,
			template_id TEXT NOT NULL,
			tier INTEGER NOT NULL,
			system_id TEXT NOT NULL,
			system_name TEXT NOT NULL,
			violation_id TEXT NOT NULL DEFAULT '',
			task_id TEXT NOT NULL DEFAULT '',
			entity_key TEXT NOT NULL DEFAULT '',
			generated_at DATETIME NOT NULL,
			status TEXT NOT NULL,
			recipient_count INTEGER NOT NULL,
			due_date DATETIME NOT NULL,
			document_name TEXT NOT NULL,
			document BLOB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_letters_system ON letters(system_id, generated_at)`,
	})
}
