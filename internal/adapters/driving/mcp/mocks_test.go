package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

// mockChapterService is a mock implementation of driving.ChapterService.
type mockChapterService struct {
	chapter      *domain.ChapterAnalysis
	summaries    []domain.ChapterSummary
	propositions []domain.Proposition
	takeaways    []domain.KeyTakeaway
	stats        *domain.ChapterStats
	deleted      bool
	err          error

	lastLevel domain.BloomLevel
}

func (m *mockChapterService) Get(_ context.Context, _ string) (*domain.ChapterAnalysis, error) {
	return m.chapter, m.err
}

func (m *mockChapterService) List(_ context.Context) ([]domain.ChapterSummary, error) {
	return m.summaries, m.err
}

func (m *mockChapterService) Delete(_ context.Context, _ string) (bool, error) {
	return m.deleted, m.err
}

func (m *mockChapterService) QueryByBloom(
	_ context.Context,
	_ string,
	level domain.BloomLevel,
) ([]domain.Proposition, error) {
	m.lastLevel = level
	return m.propositions, m.err
}

func (m *mockChapterService) TakeawaysForUnit(_ context.Context, _, _ string) ([]domain.KeyTakeaway, error) {
	return m.takeaways, m.err
}

func (m *mockChapterService) Stats(_ context.Context, _ string) (*domain.ChapterStats, error) {
	return m.stats, m.err
}

// mockJobService is a mock implementation of driving.JobService.
type mockJobService struct {
	job    *domain.Job
	final  *domain.Job
	events []domain.Event
	err    error

	submitted []domain.DigestRequest
	waited    bool
}

func (m *mockJobService) Submit(_ context.Context, req domain.DigestRequest) (*domain.Job, error) {
	m.submitted = append(m.submitted, req)
	return m.job, m.err
}

func (m *mockJobService) Get(_ context.Context, _ string) (*domain.Job, error) {
	return m.job, m.err
}

func (m *mockJobService) List(_ context.Context) ([]domain.Job, error) {
	if m.job == nil {
		return nil, m.err
	}
	return []domain.Job{*m.job}, m.err
}

func (m *mockJobService) Events(_ context.Context, _ string, from int) ([]domain.Event, error) {
	if from >= len(m.events) {
		return nil, m.err
	}
	return m.events[from:], m.err
}

func (m *mockJobService) Follow(
	_ context.Context,
	_ string,
	from int,
	_ time.Duration,
	fn func(domain.Event) error,
) error {
	for _, ev := range m.events[from:] {
		if err := fn(ev); err != nil {
			return err
		}
	}
	return m.err
}

func (m *mockJobService) Wait(_ context.Context, _ string) (*domain.Job, error) {
	m.waited = true
	return m.final, m.err
}

func (m *mockJobService) Cancel(_ context.Context, _ string) error {
	return m.err
}

func testChapter() *domain.ChapterAnalysis {
	unit := "1"
	level := domain.BloomEvaluate
	return &domain.ChapterAnalysis{
		SchemaVersion: domain.SchemaVersion,
		BookID:        "book",
		ChapterID:     "ch_0001",
		ChapterTitle:  "Tides",
		Structure: domain.Structure{
			Summary:  "How tides work.",
			Sections: []domain.Section{{UnitID: "1", Title: "Moon", Level: 1}},
		},
		Content: domain.Content{
			Propositions: []domain.Proposition{{
				PropositionID: "ch_0001_1_p001",
				ChapterID:     "ch_0001",
				UnitID:        "1",
				Text:          "The moon pulls the oceans.",
				BloomLevel:    domain.BloomRemember,
			}},
			KeyTakeaways: []domain.KeyTakeaway{{
				TakeawayID:         "ch_0001_t001",
				ChapterID:          "ch_0001",
				UnitID:             &unit,
				Text:               "Tides follow the moon.",
				PropositionIDs:     []string{"ch_0001_1_p001"},
				DominantBloomLevel: &level,
			}},
		},
	}
}
