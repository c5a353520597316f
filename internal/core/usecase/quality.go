package usecase

import "github.com/mkraev/toolmatch/internal/core/domain"

// defaultQualityScore is returned when a tool carries no usable metric.
const defaultQualityScore = 0.5

type metricKind int

const (
	metricBenchmark metricKind = iota
	metricRating
	metricPerformance
)

// metricSpec names one quality signal and the range it is normalized from.
type metricSpec struct {
	kind metricKind
	key  string
	min  float64
	max  float64
}

var (
	codingMetrics = []metricSpec{
		{metricBenchmark, "HumanEval", 0, 100},
		{metricBenchmark, "SWE-Bench", 0, 100},
		{metricRating, "G2", 1, 5},
	}
	mathMetrics = []metricSpec{
		{metricBenchmark, "MATH", 0, 100},
		{metricBenchmark, "GPQA", 0, 100},
		{metricRating, "G2", 1, 5},
	}
	ratingMetrics = []metricSpec{
		{metricRating, "G2", 1, 5},
		{metricRating, "Capterra", 1, 5},
		{metricRating, "TrustPilot", 1, 5},
	}
	fallbackMetrics = []metricSpec{
		{metricRating, "G2", 1, 5},
		{metricPerformance, "performance_score", 0, 100},
	}
)

// metricsForTaskType picks which signals judge a tool for a given task:
// benchmark accuracy for coding and math/analysis work, review-site ratings
// for everything else.
func metricsForTaskType(taskType domain.TaskType) []metricSpec {
	switch taskType {
	case domain.TaskTypeCoding:
		return codingMetrics
	case domain.TaskTypeMath, domain.TaskTypeAnalysis:
		return mathMetrics
	default:
		return ratingMetrics
	}
}

// QualityScore maps a tool's metrics and a task type to a value in [0,1].
// The first metric present in the type-specific priority list wins; when
// none is present the shared fallback list is consulted; when that also
// comes up empty the neutral default applies.
func QualityScore(metrics *domain.QualityMetrics, taskType domain.TaskType) float64 {
	if metrics == nil {
		return defaultQualityScore
	}

	for _, specs := range [][]metricSpec{metricsForTaskType(taskType), fallbackMetrics} {
		for _, spec := range specs {
			value, ok := lookupMetric(metrics, spec)
			if !ok {
				continue
			}
			return normalizeMetric(value, spec.min, spec.max)
		}
	}
	return defaultQualityScore
}

func lookupMetric(metrics *domain.QualityMetrics, spec metricSpec) (float64, bool) {
	switch spec.kind {
	case metricBenchmark:
		return metrics.Benchmark(spec.key)
	case metricRating:
		return metrics.Rating(spec.key)
	case metricPerformance:
		if metrics.PerformanceScore == nil {
			return 0, false
		}
		return *metrics.PerformanceScore, true
	default:
		return 0, false
	}
}

func normalizeMetric(value, min, max float64) float64 {
	if max <= min {
		return defaultQualityScore
	}
	return clamp01((value - min) / (max - min))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
