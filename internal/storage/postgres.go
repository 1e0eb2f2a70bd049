package storage

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type postgresStore struct {
	baseStore
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/watersafe?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{baseStore{db: db, placeholder: func(n int) string { return "$" + strconv.Itoa(n) }}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
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
			generated_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL,
			recipient_count INTEGER NOT NULL,
			due_date TIMESTAMPTZ NOT NULL,
			document_name TEXT NOT NULL,
			document BYTEA
		)`,
		`CREATE INDEX IF NOT EXISTS idx_letters_system ON letters(system_id, generated_at)`,
	})
}
