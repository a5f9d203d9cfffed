package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/digest-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

func storedChapter() *domain.ChapterAnalysis {
	analyze := domain.BloomAnalyze
	return &domain.ChapterAnalysis{
		SchemaVersion: domain.SchemaVersion,
		BookID:        "film",
		ChapterID:     "ch01",
		ChapterTitle:  "The Studio System",
		Structure: domain.Structure{
			Sections: []domain.Section{
				{UnitID: "1", Title: "Origins", Level: 1},
				{UnitID: "2", Title: "Decline", Level: 1},
				{UnitID: "3", Title: "Coda", Level: 1},
			},
		},
		Content: domain.Content{
			Propositions: []domain.Proposition{
				{PropositionID: "ch01_1_p001", ChapterID: "ch01", UnitID: "1", Text: "a", BloomLevel: domain.BloomRemember},
				{PropositionID: "ch01_1_p002", ChapterID: "ch01", UnitID: "1", Text: "b", BloomLevel: domain.BloomAnalyze},
				{PropositionID: "ch01_2_p001", ChapterID: "ch01", UnitID: "2", Text: "c", BloomLevel: domain.BloomRemember},
			},
			KeyTakeaways: []domain.KeyTakeaway{
				{
					TakeawayID:         "ch01_t001",
					ChapterID:          "ch01",
					UnitID:             strPtr("1"),
					Text:               "ab",
					PropositionIDs:     []string{"ch01_1_p001", "ch01_1_p002"},
					DominantBloomLevel: &analyze,
				},
				{
					TakeawayID:     "ch01_t002",
					ChapterID:      "ch01",
					Text:           "whole chapter",
					PropositionIDs: []string{"ch01_2_p001"},
				},
			},
		},
	}
}

func newChapterService(t *testing.T) *ChapterService {
	t.Helper()
	store := memory.NewChapterStore()
	require.NoError(t, store.Save(context.Background(), storedChapter()))
	return NewChapterService(store)
}

func TestChapterService_GetAndDelete(t *testing.T) {
	svc := newChapterService(t)
	ctx := context.Background()

	got, err := svc.Get(ctx, "ch01")
	require.NoError(t, err)
	assert.Equal(t, storedChapter(), got)

	_, err = svc.Get(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Delete(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	deleted, err := svc.Delete(ctx, "ch01")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.Delete(ctx, "ch01")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = svc.Get(ctx, "ch01")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChapterService_List(t *testing.T) {
	svc := newChapterService(t)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].PropositionCount)
	assert.Equal(t, 2, list[0].TakeawayCount)
}

func TestChapterService_QueryByBloom(t *testing.T) {
	svc := newChapterService(t)
	ctx := context.Background()

	props, err := svc.QueryByBloom(ctx, "ch01", domain.BloomRemember)
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, "ch01_1_p001", props[0].PropositionID)
	assert.Equal(t, "ch01_2_p001", props[1].PropositionID)

	props, err = svc.QueryByBloom(ctx, "ch01", domain.BloomApply)
	require.NoError(t, err)
	assert.Empty(t, props)

	_, err = svc.QueryByBloom(ctx, "ch01", domain.BloomEvaluate)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.QueryByBloom(ctx, "missing", domain.BloomRemember)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChapterService_TakeawaysForUnit(t *testing.T) {
	svc := newChapterService(t)
	ctx := context.Background()

	tks, err := svc.TakeawaysForUnit(ctx, "ch01", "1")
	require.NoError(t, err)
	require.Len(t, tks, 1)
	assert.Equal(t, "ch01_t001", tks[0].TakeawayID)

	// Chapter-level takeaways never match a unit.
	tks, err = svc.TakeawaysForUnit(ctx, "ch01", "2")
	require.NoError(t, err)
	assert.Empty(t, tks)

	_, err = svc.TakeawaysForUnit(ctx, "ch01", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChapterService_Stats(t *testing.T) {
	svc := newChapterService(t)

	stats, err := svc.Stats(context.Background(), "ch01")
	require.NoError(t, err)

	assert.Equal(t, "ch01", stats.ChapterID)
	assert.Equal(t, 3, stats.Sections)
	assert.Equal(t, 3, stats.Propositions)
	assert.Equal(t, 2, stats.Takeaways)
	assert.Equal(t, map[string]int{"remember": 2, "understand": 0, "apply": 0, "analyze": 1}, stats.PropositionsByBloom)
	assert.Equal(t, map[string]int{"analyze": 1, "evaluate": 0, "none": 1}, stats.TakeawaysByBloom)
	assert.Equal(t, map[string]int{"1": 2, "2": 1, "3": 0}, stats.PropositionsBySection)

	_, err = svc.Stats(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
