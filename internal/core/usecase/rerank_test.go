package usecase

import (
	"testing"

	"github.com/mkraev/toolmatch/internal/core/domain"
)

func ratedCandidate(id string, similarity, g2Rating float64) domain.ToolCandidate {
	return domain.ToolCandidate{
		ID:         id,
		Name:       id,
		Similarity: similarity,
		Metrics: &domain.QualityMetrics{
			Ratings: map[string]float64{"G2": g2Rating},
		},
	}
}

func TestRerankCandidatesEmptyInput(t *testing.T) {
	ranked := rerankCandidates(nil, domain.TaskTypeGeneral, 0.6, 0.4)
	if len(ranked) != 0 {
		t.Fatalf("expected empty result, got %d entries", len(ranked))
	}
}

func TestRerankCandidatesBlendsSimilarityAndQuality(t *testing.T) {
	// G2 ratings 1.4, 4.6 and 3.0 normalize to quality 0.1, 0.9 and 0.5.
	candidates := []domain.ToolCandidate{
		ratedCandidate("tool-a", 0.9, 1.4),
		ratedCandidate("tool-b", 0.5, 4.6),
		ratedCandidate("tool-c", 0.2, 3.0),
	}

	ranked := rerankCandidates(candidates, domain.TaskTypeGeneral, 0.6, 0.4)
	if len(ranked) != 3 {
		t.Fatalf("expected 3 ranked candidates, got %d", len(ranked))
	}

	// tool-b: 0.5*0.6 + 0.9*0.4 = 0.66 beats tool-a: 0.9*0.6 + 0.1*0.4 = 0.58.
	if ranked[0].ID != "tool-b" || ranked[1].ID != "tool-a" || ranked[2].ID != "tool-c" {
		t.Fatalf("unexpected order: %s, %s, %s", ranked[0].ID, ranked[1].ID, ranked[2].ID)
	}
	if !floatsClose(ranked[0].FinalScore, 0.66) {
		t.Fatalf("tool-b final score = %v, want 0.66", ranked[0].FinalScore)
	}
	if !floatsClose(ranked[1].FinalScore, 0.58) {
		t.Fatalf("tool-a final score = %v, want 0.58", ranked[1].FinalScore)
	}
	if !floatsClose(ranked[2].FinalScore, 0.32) {
		t.Fatalf("tool-c final score = %v, want 0.32", ranked[2].FinalScore)
	}
}

func TestRerankCandidatesQualityDefaultsWithoutMetrics(t *testing.T) {
	candidates := []domain.ToolCandidate{
		{ID: "tool-a", Similarity: 0.4},
	}
	ranked := rerankCandidates(candidates, domain.TaskTypeCoding, 0.6, 0.4)
	if !floatsClose(ranked[0].QualityScore, defaultQualityScore) {
		t.Fatalf("quality = %v, want default %v", ranked[0].QualityScore, defaultQualityScore)
	}
	if !floatsClose(ranked[0].FinalScore, 0.4*0.6+0.5*0.4) {
		t.Fatalf("final = %v", ranked[0].FinalScore)
	}
}

func TestRerankCandidatesTieBreaksOnID(t *testing.T) {
	candidates := []domain.ToolCandidate{
		{ID: "tool-z", Similarity: 0.5},
		{ID: "tool-a", Similarity: 0.5},
	}
	ranked := rerankCandidates(candidates, domain.TaskTypeGeneral, 0.6, 0.4)
	if ranked[0].ID != "tool-a" || ranked[1].ID != "tool-z" {
		t.Fatalf("expected id-ascending tie break, got %s then %s", ranked[0].ID, ranked[1].ID)
	}
}

func TestRerankCandidatesClampsFinalScore(t *testing.T) {
	candidates := []domain.ToolCandidate{
		ratedCandidate("tool-a", 1.0, 5.0),
	}
	// Oversized weights must not push the final score past 1.
	ranked := rerankCandidates(candidates, domain.TaskTypeGeneral, 2.0, 2.0)
	if ranked[0].FinalScore != 1.0 {
		t.Fatalf("final score = %v, want clamp at 1.0", ranked[0].FinalScore)
	}
}
