package httpadapter

import "github.com/mkraev/toolmatch/internal/core/domain"

type recommendRequest struct {
	TaskID      string              `json:"task_id,omitempty"`
	TaskName    string              `json:"task_name"`
	Preferences *domain.Preferences `json:"preferences,omitempty"`
	UserContext *domain.UserContext `json:"user_context,omitempty"`
}

type batchRecommendRequest struct {
	Tasks       []domain.TaskRequest `json:"tasks"`
	Preferences *domain.Preferences  `json:"preferences,omitempty"`
	UserContext *domain.UserContext  `json:"user_context,omitempty"`
}

// recommendationResponse flattens the domain result and adds the stage
// timings as millisecond floats, which time.Duration does not marshal as.
type recommendationResponse struct {
	domain.Recommendation
	SearchDurationMS float64 `json:"search_duration_ms"`
	RerankDurationMS float64 `json:"rerank_duration_ms"`
}

func toRecommendationResponse(rec domain.Recommendation) recommendationResponse {
	return recommendationResponse{
		Recommendation:   rec,
		SearchDurationMS: float64(rec.SearchDuration.Microseconds()) / 1000.0,
		RerankDurationMS: float64(rec.RerankDuration.Microseconds()) / 1000.0,
	}
}

type batchRecommendResponse struct {
	Recommendations []recommendationResponse `json:"recommendations"`
}

type classifyRequest struct {
	TaskName string `json:"task_name"`
}

type classifyResponse struct {
	TaskType domain.TaskType `json:"task_type"`
}

type createKnowledgeRequest struct {
	ToolID       string  `json:"tool_id"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	QualityScore float64 `json:"quality_score"`
}
