package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mkraev/toolmatch/internal/core/domain"
	"github.com/mkraev/toolmatch/internal/core/ports"
)

type KnowledgeIngestUseCase struct {
	repo    ports.KnowledgeRepository
	catalog ports.ToolCatalog
	queue   ports.MessageQueue
}

func NewKnowledgeIngestUseCase(
	repo ports.KnowledgeRepository,
	catalog ports.ToolCatalog,
	queue ports.MessageQueue,
) *KnowledgeIngestUseCase {
	return &KnowledgeIngestUseCase{
		repo:    repo,
		catalog: catalog,
		queue:   queue,
	}
}

// Create stores a pending knowledge entry for an existing catalog tool and
// hands it off for asynchronous indexing.
func (uc *KnowledgeIngestUseCase) Create(
	ctx context.Context,
	toolID, title, content string,
	qualityScore float64,
) (*domain.KnowledgeEntry, error) {
	if strings.TrimSpace(toolID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create knowledge entry", errors.New("tool_id is required"))
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create knowledge entry", errors.New("content is required"))
	}

	if _, err := uc.catalog.GetByID(ctx, toolID); err != nil {
		return nil, fmt.Errorf("resolve tool for knowledge entry: %w", err)
	}

	now := time.Now().UTC()
	entry := &domain.KnowledgeEntry{
		ID:           uuid.NewString(),
		ToolID:       toolID,
		Title:        strings.TrimSpace(title),
		Content:      content,
		QualityScore: clamp01(qualityScore),
		Status:       domain.KnowledgeStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create knowledge entry: %w", err)
	}

	if err := uc.queue.PublishKnowledgeCreated(ctx, entry.ID); err != nil {
		return nil, fmt.Errorf("publish knowledge event: %w", err)
	}

	return entry, nil
}
