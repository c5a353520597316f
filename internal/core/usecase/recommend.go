package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mkraev/toolmatch/internal/core/domain"
	"github.com/mkraev/toolmatch/internal/core/ports"
)

// EngineConfig carries the tunables of the recommendation pipeline. The
// weights are normalized so they always sum to 1.
type EngineConfig struct {
	SimilarityWeight    float64
	QualityWeight       float64
	CandidateCount      int
	FusionRRFK          int
	KnowledgeMinEntries int
	KnowledgeMinQuality float64
	BatchConcurrency    int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SimilarityWeight:    0.6,
		QualityWeight:       0.4,
		CandidateCount:      10,
		FusionRRFK:          60,
		KnowledgeMinEntries: 1,
		KnowledgeMinQuality: 0.5,
		BatchConcurrency:    4,
	}
}

func (c EngineConfig) normalize() EngineConfig {
	out := c
	def := DefaultEngineConfig()

	if out.SimilarityWeight <= 0 && out.QualityWeight <= 0 {
		out.SimilarityWeight = def.SimilarityWeight
		out.QualityWeight = def.QualityWeight
	}
	if out.SimilarityWeight < 0 {
		out.SimilarityWeight = 0
	}
	if out.QualityWeight < 0 {
		out.QualityWeight = 0
	}
	if sum := out.SimilarityWeight + out.QualityWeight; sum != 1 && sum > 0 {
		out.SimilarityWeight /= sum
		out.QualityWeight /= sum
	}

	if out.CandidateCount <= 0 {
		out.CandidateCount = def.CandidateCount
	}
	if out.FusionRRFK <= 0 {
		out.FusionRRFK = def.FusionRRFK
	}
	if out.KnowledgeMinEntries <= 0 {
		out.KnowledgeMinEntries = def.KnowledgeMinEntries
	}
	if out.KnowledgeMinQuality <= 0 {
		out.KnowledgeMinQuality = def.KnowledgeMinQuality
	}
	if out.BatchConcurrency <= 0 {
		out.BatchConcurrency = def.BatchConcurrency
	}
	return out
}

// RecommendationEngine runs the search-then-rerank pipeline. It holds no
// per-request state; a single instance is safe for concurrent use.
type RecommendationEngine struct {
	classifier     *TaskTypeClassifier
	embedder       ports.Embedder
	tools          ports.ToolIndex
	knowledgeIndex ports.KnowledgeIndex
	knowledge      ports.KnowledgeRepository
	catalog        ports.ToolCatalog
	cfg            EngineConfig
	providers      []searchProvider
}

func NewRecommendationEngine(
	classifier *TaskTypeClassifier,
	embedder ports.Embedder,
	tools ports.ToolIndex,
	knowledgeIndex ports.KnowledgeIndex,
	knowledge ports.KnowledgeRepository,
	catalog ports.ToolCatalog,
	cfg EngineConfig,
) *RecommendationEngine {
	if classifier == nil {
		classifier = defaultClassifier
	}
	engine := &RecommendationEngine{
		classifier:     classifier,
		embedder:       embedder,
		tools:          tools,
		knowledgeIndex: knowledgeIndex,
		knowledge:      knowledge,
		catalog:        catalog,
		cfg:            cfg.normalize(),
	}
	engine.providers = engine.buildProviders()
	return engine
}

// Recommend matches one task to its best tool. It never returns an error:
// empty searches and stage failures both come back as a well-formed result
// with Tool == nil, zeroed scores and an explanatory reason, so batch
// callers cannot be aborted by one bad task.
func (e *RecommendationEngine) Recommend(ctx context.Context, req domain.RecommendationRequest) domain.Recommendation {
	taskID := req.TaskID
	if taskID == "" {
		taskID = uuid.NewString()
	}

	taskType := e.classifier.Detect(req.TaskName)
	if req.UserContext != nil && req.UserContext.SessionID != "" {
		slog.Debug("recommendation_started",
			"task_id", taskID,
			"task_type", string(taskType),
			"session_id", req.UserContext.SessionID,
		)
	}

	search := e.searchCandidates(ctx, req.TaskName, req.Preferences)
	if len(search.candidates) == 0 {
		return e.emptyResult(taskID, req.TaskName, taskType, search)
	}

	rerankStart := time.Now()
	ranked := rerankCandidates(search.candidates, taskType, e.cfg.SimilarityWeight, e.cfg.QualityWeight)
	rerankDuration := time.Since(rerankStart)

	best := ranked[0]
	return domain.Recommendation{
		TaskID:   taskID,
		TaskName: req.TaskName,
		Tool: &domain.RecommendedTool{
			ID:      best.ID,
			Name:    best.Name,
			URL:     best.URL,
			LogoURL: best.LogoURL,
		},
		Reason: fmt.Sprintf(
			"%s scored %.2f for this %s task (similarity %.2f weighted %.1f, quality %.2f weighted %.1f; %s search)",
			best.Name, best.FinalScore, taskType,
			best.Similarity, e.cfg.SimilarityWeight,
			best.QualityScore, e.cfg.QualityWeight,
			search.strategy,
		),
		Outcome:        domain.OutcomeMatched,
		Confidence:     best.FinalScore,
		FinalScore:     best.FinalScore,
		Similarity:     best.Similarity,
		QualityScore:   best.QualityScore,
		TaskType:       taskType,
		SearchStrategy: search.strategy,
		SearchDuration: search.duration,
		RerankDuration: rerankDuration,
	}
}

func (e *RecommendationEngine) emptyResult(
	taskID, taskName string,
	taskType domain.TaskType,
	search searchOutcome,
) domain.Recommendation {
	outcome := domain.OutcomeNoCandidates
	reason := fmt.Sprintf("no suitable tool found for this %s task", taskType)
	if search.lastErr != nil {
		outcome = domain.OutcomeDegraded
		reason = fmt.Sprintf("recommendation unavailable: %v", search.lastErr)
		slog.Error("recommendation_degraded",
			"task_id", taskID,
			"task", taskName,
			"task_type", string(taskType),
			"search_duration_ms", float64(search.duration.Microseconds())/1000.0,
			"error", search.lastErr,
		)
	}

	return domain.Recommendation{
		TaskID:         taskID,
		TaskName:       taskName,
		Tool:           nil,
		Reason:         reason,
		Outcome:        outcome,
		TaskType:       taskType,
		SearchStrategy: search.strategy,
		SearchDuration: search.duration,
	}
}

// RecommendBatch runs the single-task pipeline for every task concurrently
// and returns one result per input, in input order. Task ids from the
// caller are carried through unchanged.
func (e *RecommendationEngine) RecommendBatch(
	ctx context.Context,
	tasks []domain.TaskRequest,
	prefs *domain.Preferences,
	userCtx *domain.UserContext,
) []domain.Recommendation {
	out := make([]domain.Recommendation, len(tasks))
	if len(tasks) == 0 {
		return out
	}

	var g errgroup.Group
	g.SetLimit(e.cfg.BatchConcurrency)
	for i, task := range tasks {
		g.Go(func() error {
			out[i] = e.Recommend(ctx, domain.RecommendationRequest{
				TaskID:      task.ID,
				TaskName:    task.Name,
				Preferences: prefs,
				UserContext: userCtx,
			})
			return nil
		})
	}
	_ = g.Wait()
	return out
}
