// Package signal is the Postgres-backed store of authoritative signal records.
package signal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/kailas-cloud/signalsearch/internal/domain"
	domsig "github.com/kailas-cloud/signalsearch/internal/domain/signal"
)

// schemaLockID serializes bootstrap DDL across api, indexer and CLI startups.
const schemaLockID int64 = 2026101401

const selectColumns = `id, workspace_id, title, content, source, url, entities, metadata, created_at, published_at`

// PoolConfig sizes the database/sql pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenDB opens a pgx-backed *sql.DB and verifies connectivity.
func OpenDB(ctx context.Context, dsn string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// Repo reads signals by workspace.
type Repo struct {
	db *sql.DB
}

// New creates a signal repository over db.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Ping checks database connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// EnsureSchema creates the signals table when it is missing.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS signals (
	id UUID PRIMARY KEY,
	workspace_id UUID NOT NULL,
	source VARCHAR(100) NOT NULL,
	url TEXT,
	title VARCHAR(500),
	content TEXT NOT NULL,
	entities JSONB NOT NULL DEFAULT '{}'::jsonb,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_signals_workspace_id ON signals(workspace_id, id);
CREATE INDEX IF NOT EXISTS idx_signals_created_at ON signals(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// GetByIDs fetches the signals of a workspace in one query. Missing ids are absent
// from the result; order is unspecified.
func (r *Repo) GetByIDs(ctx context.Context, workspaceID uuid.UUID, ids []uuid.UUID) ([]domsig.Signal, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+selectColumns+`
FROM signals
WHERE workspace_id = $1 AND id = ANY($2::uuid[])
`, workspaceID.String(), uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("query signals by ids: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows, len(ids))
}

// GetByID fetches one signal. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) GetByID(ctx context.Context, workspaceID, id uuid.UUID) (domsig.Signal, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+selectColumns+`
FROM signals
WHERE workspace_id = $1 AND id = $2
`, workspaceID.String(), id.String())

	s, err := scanSignal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domsig.Signal{}, fmt.Errorf("signal %s: %w", id, domain.ErrNotFound)
		}
		return domsig.Signal{}, err
	}
	return s, nil
}

// ListByWorkspace returns up to limit signals with id greater than after, ordered by id.
// Pass uuid.Nil to start from the beginning.
func (r *Repo) ListByWorkspace(
	ctx context.Context, workspaceID, after uuid.UUID, limit int,
) ([]domsig.Signal, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT `+selectColumns+`
FROM signals
WHERE workspace_id = $1 AND id > $2
ORDER BY id
LIMIT $3
`, workspaceID.String(), after.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	defer rows.Close()

	return scanSignals(rows, limit)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSignals(rows *sql.Rows, capacity int) ([]domsig.Signal, error) {
	out := make([]domsig.Signal, 0, capacity)
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	return out, nil
}

func scanSignal(row scanner) (domsig.Signal, error) {
	var (
		s           domsig.Signal
		title, url  sql.NullString
		entitiesRaw []byte
		metadataRaw []byte
		publishedAt sql.NullTime
	)

	err := row.Scan(
		&s.ID, &s.WorkspaceID, &title, &s.Content, &s.Source, &url,
		&entitiesRaw, &metadataRaw, &s.CreatedAt, &publishedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s, err
		}
		return s, fmt.Errorf("scan signal: %w", err)
	}

	s.Title = title.String
	s.URL = url.String
	if publishedAt.Valid {
		t := publishedAt.Time
		s.PublishedAt = &t
	}
	if len(entitiesRaw) > 0 {
		if err := json.Unmarshal(entitiesRaw, &s.Entities); err != nil {
			return s, fmt.Errorf("unmarshal entities of %s: %w", s.ID, err)
		}
	}
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &s.Metadata); err != nil {
			return s, fmt.Errorf("unmarshal metadata of %s: %w", s.ID, err)
		}
	}
	return s, nil
}

// uuidArray renders ids as a Postgres array literal for a ::uuid[] cast.
func uuidArray(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
