package ports

import (
	"context"

	"github.com/mkraev/toolmatch/internal/core/domain"
)

// ToolCatalog persists and reads catalog entries, including the quality
// metrics used by reranking.
type ToolCatalog interface {
	Create(ctx context.Context, tool *domain.Tool) error
	GetByID(ctx context.Context, id string) (*domain.Tool, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Tool, error)
}

// KnowledgeRepository persists knowledge entries and exposes the aggregate
// stats that gate the rag_enhanced search strategy.
type KnowledgeRepository interface {
	Create(ctx context.Context, entry *domain.KnowledgeEntry) error
	GetByID(ctx context.Context, id string) (*domain.KnowledgeEntry, error)
	UpdateStatus(ctx context.Context, id string, status domain.KnowledgeStatus, errMessage string) error
	Stats(ctx context.Context) (domain.KnowledgeStats, error)
}

// Embedder builds vectors for knowledge chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Chunker splits knowledge content into indexable chunks.
type Chunker interface {
	Split(text string) []string
}

// ToolIndex performs dense and sparse search over the tool collection.
type ToolIndex interface {
	IndexTool(ctx context.Context, tool domain.Tool, vector []float32) error
	SearchVector(ctx context.Context, queryVector []float32, limit int, prefs *domain.Preferences) ([]domain.SearchHit, error)
	SearchKeyword(ctx context.Context, queryText string, limit int, prefs *domain.Preferences) ([]domain.SearchHit, error)
}

// KnowledgeIndex stores knowledge chunks and resolves queries to the tools
// they describe.
type KnowledgeIndex interface {
	IndexEntry(ctx context.Context, entry domain.KnowledgeEntry, chunks []string, vectors [][]float32) error
	SearchTools(ctx context.Context, queryVector []float32, limit int) ([]domain.SearchHit, error)
}

// MessageQueue publishes/consumes knowledge ingestion events.
type MessageQueue interface {
	PublishKnowledgeCreated(ctx context.Context, entryID string) error
	SubscribeKnowledgeCreated(ctx context.Context, handler func(context.Context, string) error) error
}
