package domain

import "time"

type KnowledgeStatus string

const (
	KnowledgeStatusPending  KnowledgeStatus = "pending"
	KnowledgeStatusIndexing KnowledgeStatus = "indexing"
	KnowledgeStatusReady    KnowledgeStatus = "ready"
	KnowledgeStatusFailed   KnowledgeStatus = "failed"
)

// KnowledgeEntry is one curated article about a tool. Entries feed the
// auxiliary knowledge collection behind the rag_enhanced search strategy.
type KnowledgeEntry struct {
	ID           string          `json:"id"`
	ToolID       string          `json:"tool_id"`
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	QualityScore float64         `json:"quality_score"`
	Status       KnowledgeStatus `json:"status"`
	Error        string          `json:"error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// KnowledgeStats gates the rag_enhanced strategy: the knowledge base is
// usable only when it holds enough entries of sufficient average quality.
type KnowledgeStats struct {
	ReadyEntries   int     `json:"ready_entries"`
	AverageQuality float64 `json:"average_quality"`
}
