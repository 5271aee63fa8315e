package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"buildsight/internal/wizard"
)

// PGStore snapshots wizard sessions into Postgres. Rows hold the snapshot as
// a JSON blob; the gateway is the only reader.
type PGStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

// NewPGStore connects with the pgx stdlib driver.
func NewPGStore(dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PGStore{db: db}, nil
}

func (s *PGStore) Close() error { return s.db.Close() }

func (s *PGStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS wizard_sessions (
				id         TEXT PRIMARY KEY,
				state      JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`)
	})
	return s.schemaErr
}

func (s *PGStore) Save(ctx context.Context, snap wizard.Snapshot) error {
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("session schema: %w", err)
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wizard_sessions (id, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		snap.ID, data)
	return err
}

func (s *PGStore) LoadAll(ctx context.Context) ([]wizard.Snapshot, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("session schema: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT state FROM wizard_sessions ORDER BY updated_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []wizard.Snapshot
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var snap wizard.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			// A malformed row should not block startup; skip it.
			continue
		}
		if snap.ID == "" {
			continue
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return fmt.Errorf("session schema: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM wizard_sessions WHERE id = $1`, id)
	return err
}
