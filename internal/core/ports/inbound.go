package ports

import (
	"context"

	"github.com/mkraev/toolmatch/internal/core/domain"
)

// Recommender is the inbound contract for task-to-tool matching. Both
// operations are exception-free: failures arrive inside the result with
// a degraded outcome, never as a returned error.
type Recommender interface {
	Recommend(ctx context.Context, req domain.RecommendationRequest) domain.Recommendation
	RecommendBatch(ctx context.Context, tasks []domain.TaskRequest, prefs *domain.Preferences, userCtx *domain.UserContext) []domain.Recommendation
}

// KnowledgeIngestor is the inbound contract for adding knowledge entries.
type KnowledgeIngestor interface {
	Create(ctx context.Context, toolID, title, content string, qualityScore float64) (*domain.KnowledgeEntry, error)
}

// KnowledgeProcessor is the inbound contract for asynchronous indexing of
// a stored knowledge entry.
type KnowledgeProcessor interface {
	ProcessByID(ctx context.Context, entryID string) error
}

// KnowledgeReader is the inbound read model for knowledge entry state.
type KnowledgeReader interface {
	GetByID(ctx context.Context, id string) (*domain.KnowledgeEntry, error)
}
