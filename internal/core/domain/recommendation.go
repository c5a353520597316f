package domain

import "time"

type TaskType string

const (
	TaskTypeCoding        TaskType = "coding"
	TaskTypeMath          TaskType = "math"
	TaskTypeAnalysis      TaskType = "analysis"
	TaskTypeDesign        TaskType = "design"
	TaskTypeWriting       TaskType = "writing"
	TaskTypeCommunication TaskType = "communication"
	TaskTypeGeneral       TaskType = "general"
)

type SearchStrategy string

const (
	StrategyRAGEnhanced SearchStrategy = "rag_enhanced"
	StrategyAdaptive    SearchStrategy = "adaptive"
	StrategyHybrid      SearchStrategy = "hybrid"
	StrategyVector      SearchStrategy = "vector"
	StrategyKeyword     SearchStrategy = "keyword"
	StrategyNone        SearchStrategy = "none"
)

// SearchHit is one raw result from a search provider. Providers surface
// whichever score fields their backend produces; similarity selection picks
// the first available one and otherwise falls back to the hit's rank.
type SearchHit struct {
	ToolID      string   `json:"tool_id"`
	RAGScore    *float64 `json:"rag_score,omitempty"`
	HybridScore *float64 `json:"hybrid_score,omitempty"`
	VectorScore *float64 `json:"vector_score,omitempty"`
	Score       *float64 `json:"score,omitempty"`
}

// ToolCandidate is a catalog-enriched search hit, built fresh per request.
type ToolCandidate struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Similarity float64         `json:"similarity"`
	Metrics    *QualityMetrics `json:"metrics,omitempty"`
	URL        string          `json:"url,omitempty"`
	LogoURL    string          `json:"logo_url,omitempty"`
}

type RankedCandidate struct {
	ToolCandidate
	QualityScore float64 `json:"quality_score"`
	FinalScore   float64 `json:"final_score"`
}

type Preferences struct {
	Categories    []string `json:"categories,omitempty"`
	MaxPrice      float64  `json:"max_price,omitempty"`
	FreeToolsOnly bool     `json:"free_tools_only,omitempty"`
}

type UserContext struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Language  string `json:"language,omitempty"`
}

type TaskRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RecommendationRequest describes one matching request. TaskID is optional;
// the engine mints one when it is empty.
type RecommendationRequest struct {
	TaskID      string       `json:"task_id,omitempty"`
	TaskName    string       `json:"task_name"`
	Preferences *Preferences `json:"preferences,omitempty"`
	UserContext *UserContext `json:"user_context,omitempty"`
}

type RecommendationOutcome string

const (
	// OutcomeMatched means a tool was recommended.
	OutcomeMatched RecommendationOutcome = "matched"
	// OutcomeNoCandidates means the search stages returned nothing usable.
	OutcomeNoCandidates RecommendationOutcome = "no_candidates"
	// OutcomeDegraded means a stage failed and the result was zeroed out.
	OutcomeDegraded RecommendationOutcome = "degraded"
)

type RecommendedTool struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	LogoURL string `json:"logo_url,omitempty"`
}

// Recommendation is the engine's only output shape. Failures never surface
// as errors: they arrive here as OutcomeNoCandidates/OutcomeDegraded with
// Tool == nil and all score fields zeroed.
type Recommendation struct {
	TaskID         string                `json:"task_id"`
	TaskName       string                `json:"task_name"`
	Tool           *RecommendedTool      `json:"tool"`
	Reason         string                `json:"reason"`
	Outcome        RecommendationOutcome `json:"outcome"`
	Confidence     float64               `json:"confidence"`
	FinalScore     float64               `json:"final_score"`
	Similarity     float64               `json:"similarity"`
	QualityScore   float64               `json:"quality_score"`
	TaskType       TaskType              `json:"task_type"`
	SearchStrategy SearchStrategy        `json:"search_strategy"`
	SearchDuration time.Duration         `json:"-"`
	RerankDuration time.Duration         `json:"-"`
}

func (r Recommendation) Matched() bool {
	return r.Tool != nil
}
