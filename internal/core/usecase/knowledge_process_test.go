package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mkraev/toolmatch/internal/core/domain"
)

type chunkerFake struct {
	chunks []string
}

func (f *chunkerFake) Split(string) []string { return f.chunks }

type indexingKnowledgeIndexFake struct {
	knowledgeIndexFake
	indexed      int
	indexedEntry string
}

func (f *indexingKnowledgeIndexFake) IndexEntry(_ context.Context, entry domain.KnowledgeEntry, chunks []string, _ [][]float32) error {
	if f.err != nil {
		return f.err
	}
	f.indexed = len(chunks)
	f.indexedEntry = entry.ID
	return nil
}

func pendingEntry(id string) *domain.KnowledgeEntry {
	return &domain.KnowledgeEntry{
		ID:      id,
		ToolID:  "tool-1",
		Content: strings.Repeat("knowledge ", 50),
		Status:  domain.KnowledgeStatusPending,
	}
}

func TestKnowledgeProcessByIDHappyPath(t *testing.T) {
	repo := &knowledgeRepoFake{entries: map[string]*domain.KnowledgeEntry{
		"entry-1": pendingEntry("entry-1"),
	}}
	index := &indexingKnowledgeIndexFake{}
	uc := NewKnowledgeProcessUseCase(
		repo,
		&chunkerFake{chunks: []string{"chunk one", "chunk two"}},
		&embedderFake{vector: []float32{0.1, 0.2}},
		index,
	)

	if err := uc.ProcessByID(context.Background(), "entry-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if index.indexed != 2 || index.indexedEntry != "entry-1" {
		t.Fatalf("expected 2 chunks indexed for entry-1, got %d for %s", index.indexed, index.indexedEntry)
	}

	want := []domain.KnowledgeStatus{domain.KnowledgeStatusIndexing, domain.KnowledgeStatusReady}
	if len(repo.updates) != len(want) {
		t.Fatalf("status updates = %v, want %v", repo.updates, want)
	}
	for i := range want {
		if repo.updates[i] != want[i] {
			t.Fatalf("status update %d = %s, want %s", i, repo.updates[i], want[i])
		}
	}
}

func TestKnowledgeProcessByIDMarksFailedOnEmbedError(t *testing.T) {
	repo := &knowledgeRepoFake{entries: map[string]*domain.KnowledgeEntry{
		"entry-1": pendingEntry("entry-1"),
	}}
	uc := NewKnowledgeProcessUseCase(
		repo,
		&chunkerFake{chunks: []string{"chunk"}},
		&embedderFake{err: errors.New("embed down")},
		&indexingKnowledgeIndexFake{},
	)

	if err := uc.ProcessByID(context.Background(), "entry-1"); err == nil {
		t.Fatalf("expected embed error to surface")
	}
	last := repo.updates[len(repo.updates)-1]
	if last != domain.KnowledgeStatusFailed {
		t.Fatalf("final status = %s, want failed", last)
	}
}

func TestKnowledgeProcessByIDRejectsZeroChunks(t *testing.T) {
	repo := &knowledgeRepoFake{entries: map[string]*domain.KnowledgeEntry{
		"entry-1": pendingEntry("entry-1"),
	}}
	uc := NewKnowledgeProcessUseCase(
		repo,
		&chunkerFake{},
		&embedderFake{vector: []float32{0.1}},
		&indexingKnowledgeIndexFake{},
	)

	err := uc.ProcessByID(context.Background(), "entry-1")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for zero chunks, got %v", err)
	}
}
