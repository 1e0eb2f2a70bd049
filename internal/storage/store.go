package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"watersafe/internal/config"
	"watersafe/internal/model"
)

// Store archives generated letters. It is write-mostly history and plays no
// part in the per-session at-most-once check.
type Store interface {
	Init(ctx context.Context) error
	Close() error
	SaveLetter(ctx context.Context, letter model.Letter) error
	ListLetters(ctx context.Context, pwsid string, limit int) ([]model.Letter, error)
}

func NewStore(cfg config.StorageConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch strings.ToLower(cfg.Driver) {
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, errors.New("unsupported storage driver")
	}
}

type baseStore struct {
	db *sql.DB
	// placeholder renders the n-th (1-based) bind parameter.
	placeholder func(n int) string
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *baseStore) init(ctx context.Context, stmts []string) error {
	if b.db == nil {
		return nil
	}
	for _, stmt := range stmts {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (b *baseStore) SaveLetter(ctx context.Context, l model.Letter) error {
	if b.db == nil {
		return nil
	}
	args := make([]string, 14)
	for i := range args {
		args[i] = b.placeholder(i + 1)
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO letters (id, template_id, tier, system_id, system_name, violation_id, task_id, entity_key,
			generated_at, status, recipient_count, due_date, document_name, document)
		VALUES (`+strings.Join(args, ", ")+`)`,
		l.ID,
		l.TemplateID,
		int(l.Tier),
		l.SystemID,
		l.SystemName,
		l.ViolationID,
		l.TaskID,
		l.EntityKey,
		l.GeneratedAt.UTC(),
		string(l.Status),
		l.RecipientCount,
		l.DueDate.UTC(),
		l.Document.Name,
		l.Document.Bytes,
	)
	return err
}

func (b *baseStore) ListLetters(ctx context.Context, pwsid string, limit int) ([]model.Letter, error) {
	if b.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, template_id, tier, system_id, system_name, violation_id, task_id, entity_key,
			generated_at, status, recipient_count, due_date, document_name
		FROM letters`
	var args []any
	if pwsid != "" {
		query += ` WHERE system_id = ` + b.placeholder(1)
		args = append(args, pwsid)
	}
	query += ` ORDER BY generated_at DESC LIMIT ` + b.placeholder(len(args)+1)
	args = append(args, limit)

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Letter, 0)
	for rows.Next() {
		var l model.Letter
		var tier int
		var status string
		if err := rows.Scan(&l.ID, &l.TemplateID, &tier, &l.SystemID, &l.SystemName, &l.ViolationID, &l.TaskID,
			&l.EntityKey, &l.GeneratedAt, &status, &l.RecipientCount, &l.DueDate, &l.Document.Name); err != nil {
			return nil, err
		}
		l.Tier = model.Tier(tier)
		l.Status = model.LetterStatus(status)
		l.Document.ContentType = "application/pdf"
		out = append(out, l)
	}
	return out, rows.Err()
}
