package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mkraev/toolmatch/internal/core/domain"
)

type KnowledgeRepository struct {
	db *sql.DB
}

func NewKnowledgeRepository(db *sql.DB) *KnowledgeRepository {
	return &KnowledgeRepository{db: db}
}

func (r *KnowledgeRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082802)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS knowledge_entries (
	id TEXT PRIMARY KEY,
	tool_id TEXT NOT NULL,
	title TEXT,
	content TEXT NOT NULL,
	quality_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_knowledge_tool_id ON knowledge_entries(tool_id);
CREATE INDEX IF NOT EXISTS idx_knowledge_status ON knowledge_entries(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *KnowledgeRepository) Create(ctx context.Context, entry *domain.KnowledgeEntry) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO knowledge_entries (
	id, tool_id, title, content, quality_score, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`,
		entry.ID, entry.ToolID, entry.Title, entry.Content, entry.QualityScore,
		string(entry.Status), entry.Error, entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert knowledge entry: %w", err)
	}
	return nil
}

func (r *KnowledgeRepository) GetByID(ctx context.Context, id string) (*domain.KnowledgeEntry, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, tool_id, title, content, quality_score, status, error_message, created_at, updated_at
FROM knowledge_entries
WHERE id = $1
`, id)

	var entry domain.KnowledgeEntry
	var title, errMessage sql.NullString
	var status string

	err := row.Scan(
		&entry.ID, &entry.ToolID, &title, &entry.Content, &entry.QualityScore,
		&status, &errMessage, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: id=%s", domain.ErrKnowledgeNotFound, id)
		}
		return nil, fmt.Errorf("scan knowledge entry: %w", err)
	}

	entry.Title = title.String
	entry.Error = errMessage.String
	entry.Status = domain.KnowledgeStatus(status)
	return &entry, nil
}

func (r *KnowledgeRepository) UpdateStatus(ctx context.Context, id string, status domain.KnowledgeStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE knowledge_entries
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update knowledge status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update knowledge status rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: id=%s", domain.ErrKnowledgeNotFound, id)
	}
	return nil
}

// Stats reports how many entries are searchable and their average curator
// quality; the recommendation engine uses it to gate rag_enhanced search.
func (r *KnowledgeRepository) Stats(ctx context.Context) (domain.KnowledgeStats, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(AVG(quality_score), 0)
FROM knowledge_entries
WHERE status = $1
`, string(domain.KnowledgeStatusReady))

	var stats domain.KnowledgeStats
	if err := row.Scan(&stats.ReadyEntries, &stats.AverageQuality); err != nil {
		return domain.KnowledgeStats{}, fmt.Errorf("scan knowledge stats: %w", err)
	}
	return stats, nil
}
