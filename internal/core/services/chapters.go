package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driving"
)

// Ensure ChapterService implements the interface.
var _ driving.ChapterService = (*ChapterService)(nil)

// ChapterService provides read and delete access to stored chapters.
type ChapterService struct {
	store driven.ChapterStore
}

// NewChapterService creates a new chapter service.
func NewChapterService(store driven.ChapterStore) *ChapterService {
	return &ChapterService{store: store}
}

// Get returns a stored chapter.
func (s *ChapterService) Get(ctx context.Context, chapterID string) (*domain.ChapterAnalysis, error) {
	if chapterID == "" {
		return nil, fmt.Errorf("%w: chapter id is required", domain.ErrInvalidInput)
	}
	return s.store.Load(ctx, chapterID)
}

// List returns summaries of all stored chapters.
func (s *ChapterService) List(ctx context.Context) ([]domain.ChapterSummary, error) {
	return s.store.List(ctx)
}

// Delete removes a chapter and everything it owns.
func (s *ChapterService) Delete(ctx context.Context, chapterID string) (bool, error) {
	if chapterID == "" {
		return false, fmt.Errorf("%w: chapter id is required", domain.ErrInvalidInput)
	}
	return s.store.Delete(ctx, chapterID)
}

// QueryByBloom returns a chapter's propositions at one bloom level.
func (s *ChapterService) QueryByBloom(
	ctx context.Context,
	chapterID string,
	level domain.BloomLevel,
) ([]domain.Proposition, error) {
	if !level.IsPropositionLevel() {
		return nil, fmt.Errorf("%w: %q is not a proposition bloom level", domain.ErrInvalidInput, level)
	}
	return s.store.QueryByBloom(ctx, chapterID, level)
}

// TakeawaysForUnit returns the takeaways attached to one section.
func (s *ChapterService) TakeawaysForUnit(
	ctx context.Context,
	chapterID, unitID string,
) ([]domain.KeyTakeaway, error) {
	if unitID == "" {
		return nil, fmt.Errorf("%w: unit id is required", domain.ErrInvalidInput)
	}
	return s.store.TakeawaysForUnit(ctx, chapterID, unitID)
}

// Stats computes counts and bloom distributions for a stored chapter.
func (s *ChapterService) Stats(ctx context.Context, chapterID string) (*domain.ChapterStats, error) {
	chapter, err := s.Get(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	bySection := make(map[string]int, len(chapter.Structure.Sections))
	for _, sec := range chapter.Structure.Sections {
		bySection[sec.UnitID] = 0
	}
	for _, p := range chapter.Content.Propositions {
		bySection[p.UnitID]++
	}

	return &domain.ChapterStats{
		ChapterID:             chapter.ChapterID,
		Sections:              len(chapter.Structure.Sections),
		Propositions:          len(chapter.Content.Propositions),
		Takeaways:             len(chapter.Content.KeyTakeaways),
		PropositionsByBloom:   chapter.BloomDistribution(),
		TakeawaysByBloom:      chapter.TakeawayBloomDistribution(),
		PropositionsBySection: bySection,
	}, nil
}
