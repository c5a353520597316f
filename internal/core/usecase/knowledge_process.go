package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkraev/toolmatch/internal/core/domain"
	"github.com/mkraev/toolmatch/internal/core/ports"
)

type KnowledgeProcessUseCase struct {
	repo     ports.KnowledgeRepository
	chunker  ports.Chunker
	embedder ports.Embedder
	index    ports.KnowledgeIndex
}

func NewKnowledgeProcessUseCase(
	repo ports.KnowledgeRepository,
	chunker ports.Chunker,
	embedder ports.Embedder,
	index ports.KnowledgeIndex,
) *KnowledgeProcessUseCase {
	return &KnowledgeProcessUseCase{
		repo:     repo,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
	}
}

// ProcessByID chunks, embeds and indexes a stored knowledge entry, moving
// it through indexing → ready, or failed with the error recorded.
func (uc *KnowledgeProcessUseCase) ProcessByID(ctx context.Context, entryID string) error {
	if err := uc.repo.UpdateStatus(ctx, entryID, domain.KnowledgeStatusIndexing, ""); err != nil {
		return fmt.Errorf("set status=indexing: %w", err)
	}

	if err := uc.processPipeline(ctx, entryID); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, entryID, domain.KnowledgeStatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, entryID, domain.KnowledgeStatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *KnowledgeProcessUseCase) processPipeline(ctx context.Context, entryID string) error {
	entry, err := uc.repo.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("fetch knowledge entry: %w", err)
	}

	chunks := uc.chunker.Split(entry.Content)
	if len(chunks) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "chunk knowledge entry", errors.New("chunking produced zero chunks"))
	}

	vectors, err := uc.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed knowledge chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return domain.WrapError(
			domain.ErrInvalidInput,
			"embed knowledge chunks",
			fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(chunks)),
		)
	}

	if err := uc.index.IndexEntry(ctx, *entry, chunks, vectors); err != nil {
		return fmt.Errorf("index knowledge chunks: %w", err)
	}
	return nil
}
