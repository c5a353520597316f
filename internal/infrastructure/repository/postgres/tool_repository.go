package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mkraev/toolmatch/internal/core/domain"
)

type ToolRepository struct {
	db *sql.DB
}

func NewToolRepository(db *sql.DB) *ToolRepository {
	return &ToolRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ToolRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS tools (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	category TEXT,
	url TEXT,
	logo_url TEXT,
	price_from DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_free BOOLEAN NOT NULL DEFAULT FALSE,
	metrics JSONB,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tools_category ON tools(category);
CREATE INDEX IF NOT EXISTS idx_tools_status ON tools(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *ToolRepository) Create(ctx context.Context, tool *domain.Tool) error {
	metricsJSON, err := marshalMetrics(tool.Metrics)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO tools (
	id, name, description, category, url, logo_url, price_from, is_free, metrics, status, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`,
		tool.ID, tool.Name, tool.Description, tool.Category, tool.URL, tool.LogoURL,
		tool.PriceFrom, tool.IsFree, metricsJSON, string(tool.Status), tool.CreatedAt, tool.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert tool: %w", err)
	}
	return nil
}

func (r *ToolRepository) GetByID(ctx context.Context, id string) (*domain.Tool, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, description, category, url, logo_url, price_from, is_free, metrics, status, created_at, updated_at
FROM tools
WHERE id = $1
`, id)

	tool, err := scanTool(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%s", domain.ErrToolNotFound, id)
		}
		return nil, fmt.Errorf("get tool by id: %w", err)
	}
	return &tool, nil
}

// GetByIDs resolves a batch of catalog rows in one round trip. Unknown ids
// are silently absent from the result.
func (r *ToolRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Tool, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, description, category, url, logo_url, price_from, is_free, metrics, status, created_at, updated_at
FROM tools
WHERE id = ANY($1)
`, ids)
	if err != nil {
		return nil, fmt.Errorf("list tools by ids: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Tool, 0, len(ids))
	for rows.Next() {
		tool, err := scanTool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tool: %w", err)
		}
		out = append(out, tool)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tools: %w", err)
	}
	return out, nil
}

type toolScanner interface {
	Scan(dest ...interface{}) error
}

func scanTool(row toolScanner) (domain.Tool, error) {
	var tool domain.Tool
	var description, category, url, logoURL sql.NullString
	var metricsRaw []byte
	var status string

	err := row.Scan(
		&tool.ID, &tool.Name, &description, &category, &url, &logoURL,
		&tool.PriceFrom, &tool.IsFree, &metricsRaw, &status, &tool.CreatedAt, &tool.UpdatedAt,
	)
	if err != nil {
		return domain.Tool{}, err
	}

	tool.Description = description.String
	tool.Category = category.String
	tool.URL = url.String
	tool.LogoURL = logoURL.String
	tool.Status = domain.ToolStatus(status)

	if len(metricsRaw) > 0 {
		var metrics domain.QualityMetrics
		if err := json.Unmarshal(metricsRaw, &metrics); err != nil {
			return domain.Tool{}, fmt.Errorf("unmarshal tool metrics: %w", err)
		}
		tool.Metrics = &metrics
	}
	return tool, nil
}

func marshalMetrics(metrics *domain.QualityMetrics) ([]byte, error) {
	if metrics == nil {
		return nil, nil
	}
	raw, err := json.Marshal(metrics)
	if err != nil {
		return nil, fmt.Errorf("marshal tool metrics: %w", err)
	}
	return raw, nil
}
