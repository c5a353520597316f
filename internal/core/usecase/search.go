package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/mkraev/toolmatch/internal/core/domain"
)

type searchOutcome struct {
	candidates []domain.ToolCandidate
	strategy   domain.SearchStrategy
	duration   time.Duration
	lastErr    error
}

type searchProvider struct {
	strategy domain.SearchStrategy
	search   func(ctx context.Context, taskName string, limit int, prefs *domain.Preferences) ([]domain.SearchHit, error)
}

// searchCandidates walks the strategy chain in strict degrade order and
// stops at the first provider that yields hits. A provider error or an
// empty result silently advances to the next strategy; only the terminal
// empty outcome is surfaced, together with the last error if every usable
// provider failed outright.
func (e *RecommendationEngine) searchCandidates(
	ctx context.Context,
	taskName string,
	prefs *domain.Preferences,
) searchOutcome {
	start := time.Now()
	limit := e.cfg.CandidateCount

	var lastErr error
	for _, provider := range e.providers {
		if provider.strategy == domain.StrategyRAGEnhanced && !e.knowledgeReady(ctx) {
			continue
		}

		hits, err := provider.search(ctx, taskName, limit, prefs)
		if err != nil {
			lastErr = err
			slog.Warn("search_strategy_failed",
				"strategy", string(provider.strategy),
				"task", taskName,
				"error", err,
			)
			continue
		}
		if len(hits) == 0 {
			continue
		}

		candidates, err := e.enrichHits(ctx, hits, limit)
		if err != nil {
			lastErr = err
			slog.Warn("candidate_enrichment_failed",
				"strategy", string(provider.strategy),
				"task", taskName,
				"error", err,
			)
			continue
		}
		if len(candidates) == 0 {
			continue
		}

		return searchOutcome{
			candidates: candidates,
			strategy:   provider.strategy,
			duration:   time.Since(start),
		}
	}

	return searchOutcome{
		strategy: domain.StrategyNone,
		duration: time.Since(start),
		lastErr:  lastErr,
	}
}

// enrichHits resolves search hits against the catalog and attaches metrics
// and display metadata. Hits whose tool is missing from the catalog are
// dropped; hit order is preserved.
func (e *RecommendationEngine) enrichHits(
	ctx context.Context,
	hits []domain.SearchHit,
	limit int,
) ([]domain.ToolCandidate, error) {
	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		if hit.ToolID != "" {
			ids = append(ids, hit.ToolID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	tools, err := e.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Tool, len(tools))
	for _, tool := range tools {
		byID[tool.ID] = tool
	}

	out := make([]domain.ToolCandidate, 0, len(hits))
	for rank, hit := range hits {
		tool, ok := byID[hit.ToolID]
		if !ok {
			continue
		}
		out = append(out, domain.ToolCandidate{
			ID:         tool.ID,
			Name:       tool.Name,
			Similarity: pickSimilarity(hit, rank, limit),
			Metrics:    tool.Metrics,
			URL:        tool.URL,
			LogoURL:    tool.LogoURL,
		})
	}
	return out, nil
}

// pickSimilarity selects the best available retrieval signal for a hit.
// Preference order: RAG score, hybrid score, vector similarity, generic
// score; hits with no score at all degrade to a rank-derived value so that
// metadata-poor results stay monotonically ordered instead of unusable.
func pickSimilarity(hit domain.SearchHit, rank, limit int) float64 {
	for _, score := range []*float64{hit.RAGScore, hit.HybridScore, hit.VectorScore, hit.Score} {
		if score != nil {
			return clamp01(*score)
		}
	}
	if limit <= 0 {
		limit = 1
	}
	return clamp01(1 - float64(rank)/float64(limit))
}

func (e *RecommendationEngine) knowledgeReady(ctx context.Context) bool {
	stats, err := e.knowledge.Stats(ctx)
	if err != nil {
		slog.Warn("knowledge_stats_unavailable", "error", err)
		return false
	}
	return stats.ReadyEntries >= e.cfg.KnowledgeMinEntries &&
		stats.AverageQuality > e.cfg.KnowledgeMinQuality
}

func (e *RecommendationEngine) buildProviders() []searchProvider {
	ragEnhanced := func(ctx context.Context, taskName string, limit int, _ *domain.Preferences) ([]domain.SearchHit, error) {
		vector, err := e.embedder.EmbedQuery(ctx, taskName)
		if err != nil {
			return nil, err
		}
		return e.knowledgeIndex.SearchTools(ctx, vector, limit)
	}

	vector := func(ctx context.Context, taskName string, limit int, prefs *domain.Preferences) ([]domain.SearchHit, error) {
		queryVector, err := e.embedder.EmbedQuery(ctx, taskName)
		if err != nil {
			return nil, err
		}
		return e.tools.SearchVector(ctx, queryVector, limit, prefs)
	}

	keyword := func(ctx context.Context, taskName string, limit int, prefs *domain.Preferences) ([]domain.SearchHit, error) {
		return e.tools.SearchKeyword(ctx, taskName, limit, prefs)
	}

	hybrid := func(ctx context.Context, taskName string, limit int, prefs *domain.Preferences) ([]domain.SearchHit, error) {
		queryVector, err := e.embedder.EmbedQuery(ctx, taskName)
		if err != nil {
			return nil, err
		}
		dense, err := e.tools.SearchVector(ctx, queryVector, limit, prefs)
		if err != nil {
			return nil, err
		}
		sparse, err := e.tools.SearchKeyword(ctx, taskName, limit, prefs)
		if err != nil {
			// Dense results alone are still usable.
			slog.Warn("hybrid_sparse_leg_failed", "error", err)
			sparse = nil
		}
		return trimHits(fuseHitsRRF(dense, sparse, e.cfg.FusionRRFK), limit), nil
	}

	adaptive := func(ctx context.Context, taskName string, limit int, prefs *domain.Preferences) ([]domain.SearchHit, error) {
		switch tokens := len(tokenizeAlphaNumLower(taskName)); {
		case tokens <= 2:
			return keyword(ctx, taskName, limit, prefs)
		case tokens >= 9:
			return vector(ctx, taskName, limit, prefs)
		default:
			return hybrid(ctx, taskName, limit, prefs)
		}
	}

	return []searchProvider{
		{domain.StrategyRAGEnhanced, ragEnhanced},
		{domain.StrategyAdaptive, adaptive},
		{domain.StrategyHybrid, hybrid},
		{domain.StrategyVector, vector},
		{domain.StrategyKeyword, keyword},
	}
}
