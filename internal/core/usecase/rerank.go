package usecase

import (
	"sort"

	"github.com/mkraev/toolmatch/internal/core/domain"
)

// rerankCandidates blends each candidate's retrieval similarity with its
// task-type-adaptive quality score and sorts descending by the result.
// Ties break on tool id ascending so equal-scoring candidates rank
// deterministically.
func rerankCandidates(
	candidates []domain.ToolCandidate,
	taskType domain.TaskType,
	similarityWeight, qualityWeight float64,
) []domain.RankedCandidate {
	ranked := make([]domain.RankedCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		quality := QualityScore(candidate.Metrics, taskType)
		final := clamp01(candidate.Similarity*similarityWeight + quality*qualityWeight)
		ranked = append(ranked, domain.RankedCandidate{
			ToolCandidate: candidate,
			QualityScore:  quality,
			FinalScore:    final,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		return ranked[i].ID < ranked[j].ID
	})

	return ranked
}
