package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/mkraev/toolmatch/internal/core/domain"
)

type embedderFake struct {
	err    error
	vector []float32
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type toolIndexFake struct {
	vectorHits  []domain.SearchHit
	vectorErr   error
	keywordHits []domain.SearchHit
	keywordErr  error
}

func (f *toolIndexFake) IndexTool(context.Context, domain.Tool, []float32) error { return nil }

func (f *toolIndexFake) SearchVector(context.Context, []float32, int, *domain.Preferences) ([]domain.SearchHit, error) {
	return f.vectorHits, f.vectorErr
}

func (f *toolIndexFake) SearchKeyword(context.Context, string, int, *domain.Preferences) ([]domain.SearchHit, error) {
	return f.keywordHits, f.keywordErr
}

type knowledgeIndexFake struct {
	hits []domain.SearchHit
	err  error
}

func (f *knowledgeIndexFake) IndexEntry(context.Context, domain.KnowledgeEntry, []string, [][]float32) error {
	return nil
}

func (f *knowledgeIndexFake) SearchTools(context.Context, []float32, int) ([]domain.SearchHit, error) {
	return f.hits, f.err
}

type knowledgeRepoFake struct {
	stats    domain.KnowledgeStats
	statsErr error

	created *domain.KnowledgeEntry
	entries map[string]*domain.KnowledgeEntry
	updates []domain.KnowledgeStatus
}

func (f *knowledgeRepoFake) Create(_ context.Context, entry *domain.KnowledgeEntry) error {
	f.created = entry
	return nil
}

func (f *knowledgeRepoFake) GetByID(_ context.Context, id string) (*domain.KnowledgeEntry, error) {
	entry, ok := f.entries[id]
	if !ok {
		return nil, domain.ErrKnowledgeNotFound
	}
	return entry, nil
}

func (f *knowledgeRepoFake) UpdateStatus(_ context.Context, _ string, status domain.KnowledgeStatus, _ string) error {
	f.updates = append(f.updates, status)
	return nil
}

func (f *knowledgeRepoFake) Stats(context.Context) (domain.KnowledgeStats, error) {
	return f.stats, f.statsErr
}

type catalogFake struct {
	tools map[string]domain.Tool
}

func (f *catalogFake) Create(_ context.Context, tool *domain.Tool) error {
	if f.tools == nil {
		f.tools = make(map[string]domain.Tool)
	}
	f.tools[tool.ID] = *tool
	return nil
}

func (f *catalogFake) GetByID(_ context.Context, id string) (*domain.Tool, error) {
	tool, ok := f.tools[id]
	if !ok {
		return nil, domain.ErrToolNotFound
	}
	return &tool, nil
}

func (f *catalogFake) GetByIDs(_ context.Context, ids []string) ([]domain.Tool, error) {
	out := make([]domain.Tool, 0, len(ids))
	for _, id := range ids {
		if tool, ok := f.tools[id]; ok {
			out = append(out, tool)
		}
	}
	return out, nil
}

func catalogWith(tools ...domain.Tool) *catalogFake {
	f := &catalogFake{tools: make(map[string]domain.Tool, len(tools))}
	for _, tool := range tools {
		f.tools[tool.ID] = tool
	}
	return f
}

func ptrFloat(v float64) *float64 { return &v }

func newTestEngine(
	embedder *embedderFake,
	tools *toolIndexFake,
	knowledgeIndex *knowledgeIndexFake,
	knowledge *knowledgeRepoFake,
	catalog *catalogFake,
) *RecommendationEngine {
	return NewRecommendationEngine(nil, embedder, tools, knowledgeIndex, knowledge, catalog, EngineConfig{})
}

func TestRecommendUsesRAGWhenKnowledgeReady(t *testing.T) {
	engine := newTestEngine(
		&embedderFake{vector: []float32{0.1, 0.2}},
		&toolIndexFake{},
		&knowledgeIndexFake{hits: []domain.SearchHit{{ToolID: "tool-1", RAGScore: ptrFloat(0.9)}}},
		&knowledgeRepoFake{stats: domain.KnowledgeStats{ReadyEntries: 5, AverageQuality: 0.8}},
		catalogWith(domain.Tool{
			ID:   "tool-1",
			Name: "Notion",
			Metrics: &domain.QualityMetrics{
				Ratings: map[string]float64{"G2": 4.6},
			},
		}),
	)

	rec := engine.Recommend(context.Background(), domain.RecommendationRequest{
		TaskName: "organize team wiki pages",
	})

	if rec.Outcome != domain.OutcomeMatched {
		t.Fatalf("outcome = %s, want matched (%s)", rec.Outcome, rec.Reason)
	}
	if rec.SearchStrategy != domain.StrategyRAGEnhanced {
		t.Fatalf("strategy = %s, want rag_enhanced", rec.SearchStrategy)
	}
	if rec.Tool == nil || rec.Tool.ID != "tool-1" {
		t.Fatalf("unexpected tool: %+v", rec.Tool)
	}
	if !floatsClose(rec.Similarity, 0.9) {
		t.Fatalf("similarity = %v, want 0.9", rec.Similarity)
	}
	// 0.9*0.6 + 0.9*0.4 with G2 4.6 normalizing to 0.9.
	if !floatsClose(rec.FinalScore, 0.9) {
		t.Fatalf("final score = %v, want 0.9", rec.FinalScore)
	}
	if rec.Confidence != rec.FinalScore {
		t.Fatalf("confidence = %v, want final score %v", rec.Confidence, rec.FinalScore)
	}
	if rec.Reason == "" {
		t.Fatalf("expected a human-readable reason")
	}
}

func TestRecommendSkipsRAGWhenKnowledgeNotReady(t *testing.T) {
	engine := newTestEngine(
		&embedderFake{vector: []float32{0.1}},
		&toolIndexFake{vectorHits: []domain.SearchHit{{ToolID: "tool-1", VectorScore: ptrFloat(0.8)}}},
		&knowledgeIndexFake{hits: []domain.SearchHit{{ToolID: "tool-2", RAGScore: ptrFloat(0.99)}}},
		&knowledgeRepoFake{stats: domain.KnowledgeStats{ReadyEntries: 0, AverageQuality: 0}},
		catalogWith(
			domain.Tool{ID: "tool-1", Name: "Alpha"},
			domain.Tool{ID: "tool-2", Name: "Beta"},
		),
	)

	rec := engine.Recommend(context.Background(), domain.RecommendationRequest{
		TaskName: "find a good project tool",
	})

	if rec.SearchStrategy != domain.StrategyAdaptive {
		t.Fatalf("strategy = %s, want adaptive", rec.SearchStrategy)
	}
	if rec.Tool == nil || rec.Tool.ID != "tool-1" {
		t.Fatalf("expected tool-1 from the tool index, got %+v", rec.Tool)
	}
}

func TestRecommendRAGGateRequiresQualityStrictlyAbove(t *testing.T) {
	// Average quality exactly at the threshold keeps the gate closed.
	engine := newTestEngine(
		&embedderFake{vector: []float32{0.1}},
		&toolIndexFake{vectorHits: []domain.SearchHit{{ToolID: "tool-1", VectorScore: ptrFloat(0.8)}}},
		&knowledgeIndexFake{hits: []domain.SearchHit{{ToolID: "tool-2", RAGScore: ptrFloat(0.99)}}},
		&knowledgeRepoFake{stats: domain.KnowledgeStats{ReadyEntries: 3, AverageQuality: 0.5}},
		catalogWith(
			domain.Tool{ID: "tool-1", Name: "Alpha"},
			domain.Tool{ID: "tool-2", Name: "Beta"},
		),
	)

	rec := engine.Recommend(context.Background(), domain.RecommendationRequest{
		TaskName: "find a good project tool",
	})
	if rec.SearchStrategy == domain.StrategyRAGEnhanced {
		t.Fatalf("expected rag_enhanced to stay gated at threshold quality")
	}
}

func TestRecommendFallsBackToKeywordWhenEmbedderFails(t *testing.T) {
	engine := newTestEngine(
		&embedderFake{err: errors.New("embedder down")},
		&toolIndexFake{keywordHits: []domain.SearchHit{{ToolID: "tool-1", Score: ptrFloat(0.7)}}},
		&knowledgeIndexFake{},
		&knowledgeRepoFake{},
		catalogWith(domain.Tool{ID: "tool-1", Name: "Alpha"}),
	)

	rec := engine.Recommend(context.Background(), domain.RecommendationRequest{
		TaskName: "automate invoice processing flow",
	})

	if rec.Outcome != domain.OutcomeMatched {
		t.Fatalf("outcome = %s, want matched (%s)", rec.Outcome, rec.Reason)
	}
	if rec.SearchStrategy != domain.StrategyKeyword {
		t.Fatalf("strategy = %s, want keyword", rec.SearchStrategy)
	}
	if !floatsClose(rec.Similarity, 0.7) {
		t.Fatalf("similarity = %v, want 0.7", rec.Similarity)
	}
}

func TestRecommendNoCandidates(t *testing.T) {
	engine := newTestEngine(
		&embedderFake{vector: []float32{0.1}},
		&toolIndexFake{},
		&knowledgeIndexFake{},
		&knowledgeRepoFake{},
		catalogWith(),
	)

	rec := engine.Recommend(context.Background(), domain.RecommendationRequest{
		TaskName: "something nobody indexed",
	})

	if rec.Outcome != domain.OutcomeNoCandidates {
		t.Fatalf("outcome = %s, want no_candidates", rec.Outcome)
	}
	if rec.Tool != nil {
		t.Fatalf("expected no tool, got %+v", rec.Tool)
	}
	if rec.SearchStrategy != domain.StrategyNone {
		t.Fatalf("strategy = %s, want none", rec.SearchStrategy)
	}
	if rec.Confidence != 0 || rec.FinalScore != 0 || rec.Similarity != 0 || rec.QualityScore != 0 {
		t.Fatalf("expected zeroed scores, got %+v", rec)
	}
	if rec.Reason == "" {
		t.Fatalf("expected a reason for the empty result")
	}
}

func TestRecommendDegradedWhenEveryStrategyFails(t *testing.T) {
	engine := newTestEngine(
		&embedderFake{err: errors.New("embedder down")},
		&toolIndexFake{keywordErr: errors.New("index down")},
		&knowledgeIndexFake{},
		&knowledgeRepoFake{},
		catalogWith(),
	)

	rec := engine.Recommend(context.Background(), domain.RecommendationRequest{
		TaskName: "automate invoice processing flow",
	})

	if rec.Outcome != domain.OutcomeDegraded {
		t.Fatalf("outcome = %s, want degraded", rec.Outcome)
	}
	if rec.Tool != nil {
		t.Fatalf("expected no tool in degraded result")
	}
	if rec.FinalScore != 0 {
		t.Fatalf("expected zero final score, got %v", rec.FinalScore)
	}
}

func TestRecommendRankFallbackSimilarity(t *testing.T) {
	engine := newTestEngine(
		&embedderFake{err: errors.New("embedder down")},
		&toolIndexFake{keywordHits: []domain.SearchHit{{ToolID: "tool-1"}, {ToolID: "tool-2"}}},
		&knowledgeIndexFake{},
		&knowledgeRepoFake{},
		catalogWith(
			domain.Tool{ID: "tool-1", Name: "Alpha"},
			domain.Tool{ID: "tool-2", Name: "Beta"},
		),
	)

	rec := engine.Recommend(context.Background(), domain.RecommendationRequest{
		TaskName: "automate invoice processing flow",
	})

	// Scoreless hits degrade to 1 - rank/limit: rank 0 of 10 gives 1.0.
	if rec.Tool == nil || rec.Tool.ID != "tool-1" {
		t.Fatalf("expected first hit to win, got %+v", rec.Tool)
	}
	if !floatsClose(rec.Similarity, 1.0) {
		t.Fatalf("similarity = %v, want rank fallback 1.0", rec.Similarity)
	}
}

func TestRecommendMintsTaskIDWhenMissing(t *testing.T) {
	engine := newTestEngine(
		&embedderFake{vector: []float32{0.1}},
		&toolIndexFake{},
		&knowledgeIndexFake{},
		&knowledgeRepoFake{},
		catalogWith(),
	)

	rec := engine.Recommend(context.Background(), domain.RecommendationRequest{TaskName: "anything"})
	if rec.TaskID == "" {
		t.Fatalf("expected a minted task id")
	}

	rec = engine.Recommend(context.Background(), domain.RecommendationRequest{TaskID: "task-7", TaskName: "anything"})
	if rec.TaskID != "task-7" {
		t.Fatalf("task id = %s, want task-7", rec.TaskID)
	}
}

func TestRecommendBatchPreservesOrderAndIDs(t *testing.T) {
	engine := newTestEngine(
		&embedderFake{err: errors.New("embedder down")},
		&toolIndexFake{keywordHits: []domain.SearchHit{{ToolID: "tool-1", Score: ptrFloat(0.7)}}},
		&knowledgeIndexFake{},
		&knowledgeRepoFake{},
		catalogWith(domain.Tool{ID: "tool-1", Name: "Alpha"}),
	)

	tasks := []domain.TaskRequest{
		{ID: "task-a", Name: "automate invoice processing flow"},
		{ID: "task-b", Name: "reconcile the expense ledger"},
		{ID: "task-c", Name: "archive old vendor records"},
	}

	recs := engine.RecommendBatch(context.Background(), tasks, nil, nil)
	if len(recs) != len(tasks) {
		t.Fatalf("expected %d results, got %d", len(tasks), len(recs))
	}
	for i, task := range tasks {
		if recs[i].TaskID != task.ID {
			t.Fatalf("result %d task id = %s, want %s", i, recs[i].TaskID, task.ID)
		}
		if recs[i].TaskName != task.Name {
			t.Fatalf("result %d task name = %s, want %s", i, recs[i].TaskName, task.Name)
		}
	}
}

func TestRecommendBatchEmptyInput(t *testing.T) {
	engine := newTestEngine(
		&embedderFake{vector: []float32{0.1}},
		&toolIndexFake{},
		&knowledgeIndexFake{},
		&knowledgeRepoFake{},
		catalogWith(),
	)

	recs := engine.RecommendBatch(context.Background(), nil, nil, nil)
	if len(recs) != 0 {
		t.Fatalf("expected no results, got %d", len(recs))
	}
}

func TestEngineConfigNormalizeWeights(t *testing.T) {
	cfg := EngineConfig{SimilarityWeight: 3, QualityWeight: 1}.normalize()
	if !floatsClose(cfg.SimilarityWeight, 0.75) || !floatsClose(cfg.QualityWeight, 0.25) {
		t.Fatalf("weights = %v/%v, want 0.75/0.25", cfg.SimilarityWeight, cfg.QualityWeight)
	}

	cfg = EngineConfig{}.normalize()
	if !floatsClose(cfg.SimilarityWeight, 0.6) || !floatsClose(cfg.QualityWeight, 0.4) {
		t.Fatalf("default weights = %v/%v, want 0.6/0.4", cfg.SimilarityWeight, cfg.QualityWeight)
	}
	if cfg.CandidateCount != 10 {
		t.Fatalf("default candidate count = %d, want 10", cfg.CandidateCount)
	}
}
