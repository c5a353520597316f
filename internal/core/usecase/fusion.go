package usecase

import (
	"sort"

	"github.com/mkraev/toolmatch/internal/core/domain"
)

type fusedHit struct {
	hit   domain.SearchHit
	score float64
}

// fuseHitsRRF merges dense and sparse result lists with reciprocal-rank
// fusion, deduplicating per tool id. The fused score lands in HybridScore.
func fuseHitsRRF(dense, sparse []domain.SearchHit, rrfK int) []domain.SearchHit {
	if rrfK <= 0 {
		rrfK = 60
	}

	acc := make(map[string]fusedHit, len(dense)+len(sparse))
	order := make([]string, 0, len(dense)+len(sparse))
	addList := func(hits []domain.SearchHit) {
		for rank, hit := range hits {
			if hit.ToolID == "" {
				continue
			}
			fused, seen := acc[hit.ToolID]
			if !seen {
				order = append(order, hit.ToolID)
			}
			fused.hit = mergeHitScores(fused.hit, hit)
			fused.score += 1.0 / float64(rrfK+rank+1)
			acc[hit.ToolID] = fused
		}
	}

	addList(dense)
	addList(sparse)

	out := make([]domain.SearchHit, 0, len(acc))
	for _, toolID := range order {
		fused := acc[toolID]
		hybrid := fused.score
		fused.hit.HybridScore = &hybrid
		out = append(out, fused.hit)
	}

	sort.SliceStable(out, func(i, j int) bool {
		si := *out[i].HybridScore
		sj := *out[j].HybridScore
		if si != sj {
			return si > sj
		}
		return out[i].ToolID < out[j].ToolID
	})

	return out
}

func mergeHitScores(current, candidate domain.SearchHit) domain.SearchHit {
	if current.ToolID == "" {
		current.ToolID = candidate.ToolID
	}
	if current.RAGScore == nil && candidate.RAGScore != nil {
		current.RAGScore = candidate.RAGScore
	}
	if current.VectorScore == nil && candidate.VectorScore != nil {
		current.VectorScore = candidate.VectorScore
	}
	if current.Score == nil && candidate.Score != nil {
		current.Score = candidate.Score
	}
	return current
}

func trimHits(hits []domain.SearchHit, limit int) []domain.SearchHit {
	if limit <= 0 || len(hits) <= limit {
		return hits
	}
	return hits[:limit]
}
