package bootstrap

import (
	"context"
	"fmt"

	"github.com/mkraev/toolmatch/internal/config"
	"github.com/mkraev/toolmatch/internal/core/ports"
	"github.com/mkraev/toolmatch/internal/core/usecase"
	"github.com/mkraev/toolmatch/internal/infrastructure/chunking"
	"github.com/mkraev/toolmatch/internal/infrastructure/embedding/ollama"
	"github.com/mkraev/toolmatch/internal/infrastructure/queue/nats"
	"github.com/mkraev/toolmatch/internal/infrastructure/repository/postgres"
	"github.com/mkraev/toolmatch/internal/infrastructure/resilience"
	"github.com/mkraev/toolmatch/internal/infrastructure/vector/qdrant"
)

// App wires every adapter behind the core ports. One App backs both the
// api and worker binaries; each uses the subset it needs.
type App struct {
	Config config.Config

	Queue      ports.MessageQueue
	ToolRepo   ports.ToolCatalog
	Knowledge  ports.KnowledgeRepository
	Classifier *usecase.TaskTypeClassifier

	Recommender ports.Recommender
	CatalogUC   *usecase.CatalogUseCase
	IngestUC    ports.KnowledgeIngestor
	ProcessUC   ports.KnowledgeProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	toolRepo := postgres.NewToolRepository(db)
	if err := toolRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure tools schema: %w", err)
	}
	knowledgeRepo := postgres.NewKnowledgeRepository(db)
	if err := knowledgeRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure knowledge schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	embedder := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, ollama.Options{
		RateLimit:          cfg.EmbedRateLimit,
		RateBurst:          cfg.EmbedRateBurst,
		ResilienceExecutor: executor,
	})

	toolIndex := qdrant.NewWithOptions(cfg.QdrantURL, cfg.QdrantToolCollection, qdrant.Options{
		ResilienceExecutor: executor,
	})
	knowledgeIndex := qdrant.NewKnowledgeClientWithOptions(cfg.QdrantURL, cfg.QdrantKnowledgeCollection, qdrant.Options{
		ResilienceExecutor: executor,
	})
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)

	rules, err := config.LoadTaskTypeRules(cfg.TaskRulesPath)
	if err != nil {
		return nil, fmt.Errorf("load task rules: %w", err)
	}
	classifier := usecase.NewTaskTypeClassifier(rules)

	engine := usecase.NewRecommendationEngine(
		classifier,
		embedder,
		toolIndex,
		knowledgeIndex,
		knowledgeRepo,
		toolRepo,
		usecase.EngineConfig{
			SimilarityWeight:    cfg.SimilarityWeight,
			QualityWeight:       cfg.QualityWeight,
			CandidateCount:      cfg.CandidateCount,
			FusionRRFK:          cfg.FusionRRFK,
			KnowledgeMinEntries: cfg.KnowledgeMinEntries,
			KnowledgeMinQuality: cfg.KnowledgeMinQuality,
			BatchConcurrency:    cfg.BatchConcurrency,
		},
	)

	catalogUC := usecase.NewCatalogUseCase(toolRepo, embedder, toolIndex)
	ingestUC := usecase.NewKnowledgeIngestUseCase(knowledgeRepo, toolRepo, queue)
	processUC := usecase.NewKnowledgeProcessUseCase(knowledgeRepo, chunker, embedder, knowledgeIndex)

	return &App{
		Config: cfg,

		Queue:      queue,
		ToolRepo:   toolRepo,
		Knowledge:  knowledgeRepo,
		Classifier: classifier,

		Recommender: engine,
		CatalogUC:   catalogUC,
		IngestUC:    ingestUC,
		ProcessUC:   processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
