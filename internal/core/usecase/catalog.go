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

type CatalogUseCase struct {
	catalog  ports.ToolCatalog
	embedder ports.Embedder
	index    ports.ToolIndex
}

func NewCatalogUseCase(
	catalog ports.ToolCatalog,
	embedder ports.Embedder,
	index ports.ToolIndex,
) *CatalogUseCase {
	return &CatalogUseCase{
		catalog:  catalog,
		embedder: embedder,
		index:    index,
	}
}

// Create stores a tool and indexes its name+description embedding so the
// vector and hybrid strategies can retrieve it.
func (uc *CatalogUseCase) Create(ctx context.Context, tool *domain.Tool) (*domain.Tool, error) {
	if tool == nil || strings.TrimSpace(tool.Name) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create tool", errors.New("name is required"))
	}

	if tool.ID == "" {
		tool.ID = uuid.NewString()
	}
	if tool.Status == "" {
		tool.Status = domain.ToolStatusActive
	}
	now := time.Now().UTC()
	tool.CreatedAt = now
	tool.UpdatedAt = now

	if err := uc.catalog.Create(ctx, tool); err != nil {
		return nil, fmt.Errorf("create tool: %w", err)
	}

	vector, err := uc.embedder.EmbedQuery(ctx, tool.Name+"\n"+tool.Description)
	if err != nil {
		return nil, fmt.Errorf("embed tool description: %w", err)
	}
	if err := uc.index.IndexTool(ctx, *tool, vector); err != nil {
		return nil, fmt.Errorf("index tool: %w", err)
	}

	return tool, nil
}

func (uc *CatalogUseCase) GetByID(ctx context.Context, id string) (*domain.Tool, error) {
	tool, err := uc.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tool by id: %w", err)
	}
	return tool, nil
}
