package domain

import "time"

type ToolStatus string

const (
	ToolStatusActive   ToolStatus = "active"
	ToolStatusArchived ToolStatus = "archived"
)

type Tool struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	URL         string          `json:"url,omitempty"`
	LogoURL     string          `json:"logo_url,omitempty"`
	PriceFrom   float64         `json:"price_from,omitempty"`
	IsFree      bool            `json:"is_free"`
	Metrics     *QualityMetrics `json:"metrics,omitempty"`
	Status      ToolStatus      `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// QualityMetrics is the typed form of the catalog's heuristic score blob.
// Benchmarks are keyed by suite name (e.g. "HumanEval"), Ratings by review
// provider (e.g. "G2"). Every field is optional; absence is legal.
type QualityMetrics struct {
	Benchmarks       map[string]float64 `json:"benchmarks,omitempty"`
	Ratings          map[string]float64 `json:"ratings,omitempty"`
	PerformanceScore *float64           `json:"performance_score,omitempty"`
}

func (m *QualityMetrics) Benchmark(name string) (float64, bool) {
	if m == nil || m.Benchmarks == nil {
		return 0, false
	}
	v, ok := m.Benchmarks[name]
	return v, ok
}

func (m *QualityMetrics) Rating(provider string) (float64, bool) {
	if m == nil || m.Ratings == nil {
		return 0, false
	}
	v, ok := m.Ratings[provider]
	return v, ok
}
