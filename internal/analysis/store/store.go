// Package store persists analyses. Postgres keeps each analysis as a JSONB
// document; Memory is a bounded in-process store for runs without a
// database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lou463/Underscore-Resume-BETA01/internal/analysis"
	apperrors "github.com/lou463/Underscore-Resume-BETA01/pkg/errors"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/postgres"
)

// Schema creates the analyses table.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS analyses (
		id            UUID PRIMARY KEY,
		resume_name   TEXT NOT NULL DEFAULT '',
		keyword_score DOUBLE PRECISION NOT NULL,
		improvement   DOUBLE PRECISION NOT NULL,
		data          JSONB NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS analyses_created_at_idx ON analyses (created_at DESC)`,
}

// Store is implemented by Postgres and Memory.
type Store interface {
	Save(ctx context.Context, a *analysis.Analysis) error
	Get(ctx context.Context, id string) (*analysis.Analysis, error)
	List(ctx context.Context, limit int) ([]analysis.Analysis, error)
}

type Postgres struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewPostgres(db *postgres.Client) *Postgres {
	return &Postgres{
		db:     db,
		logger: slog.Default().With("component", "analysis-store"),
	}
}

// Migrate creates the schema if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	return p.db.Migrate(ctx, Schema...)
}

func (p *Postgres) Save(ctx context.Context, a *analysis.Analysis) error {
	if _, err := uuid.Parse(a.ID); err != nil {
		return fmt.Errorf("%w: analysis id %q is not a uuid", apperrors.ErrInvalidInput, a.ID)
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshaling analysis: %w", err)
	}
	_, err = p.db.DB.ExecContext(ctx,
		`INSERT INTO analyses (id, resume_name, keyword_score, improvement, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.ResumeName, a.Original.Score, a.Comparison.Improvement, data, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving analysis %s: %w", a.ID, err)
	}
	p.logger.Info("analysis saved", "id", a.ID, "keyword_score", a.Original.Score)
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*analysis.Analysis, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAnalysisNotFound, id)
	}
	var data []byte
	err := p.db.DB.QueryRowContext(ctx, `SELECT data FROM analyses WHERE id = $1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAnalysisNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying analysis %s: %w", id, err)
	}
	var a analysis.Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("unmarshaling analysis %s: %w", id, err)
	}
	return &a, nil
}

// List returns the most recent analyses, newest first.
func (p *Postgres) List(ctx context.Context, limit int) ([]analysis.Analysis, error) {
	rows, err := p.db.DB.QueryContext(ctx,
		`SELECT data FROM analyses ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	defer rows.Close()

	out := make([]analysis.Analysis, 0, limit)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning analysis row: %w", err)
		}
		var a analysis.Analysis
		if err := json.Unmarshal(data, &a); err != nil {
			p.logger.Warn("skipping corrupt analysis", "error", err)
			continue
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
