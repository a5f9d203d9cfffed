package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

func strPtr(s string) *string { return &s }

func sampleChapter(id string) *domain.ChapterAnalysis {
	analyze := domain.BloomAnalyze
	return &domain.ChapterAnalysis{
		SchemaVersion: domain.SchemaVersion,
		BookID:        "book",
		ChapterID:     id,
		ChapterTitle:  "Title",
		Structure: domain.Structure{
			Summary:  "s",
			Sections: []domain.Section{{UnitID: "1", Title: "One", Level: 1}},
		},
		Content: domain.Content{
			Propositions: []domain.Proposition{
				{PropositionID: id + "_1_p001", ChapterID: id, UnitID: "1", Text: "a", BloomLevel: domain.BloomRemember},
				{PropositionID: id + "_1_p002", ChapterID: id, UnitID: "1", Text: "b", BloomLevel: domain.BloomAnalyze},
			},
			KeyTakeaways: []domain.KeyTakeaway{{
				TakeawayID:         id + "_t001",
				ChapterID:          id,
				UnitID:             strPtr("1"),
				Text:               "ab",
				PropositionIDs:     []string{id + "_1_p001", id + "_1_p002"},
				DominantBloomLevel: &analyze,
			}},
		},
	}
}

func TestChapterStore_SaveLoad(t *testing.T) {
	store := NewChapterStore()
	ctx := context.Background()
	in := sampleChapter("ch01")

	require.NoError(t, store.Save(ctx, in))
	out, err := store.Load(ctx, "ch01")
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out.ChapterTitle = "mutated"
	again, _ := store.Load(ctx, "ch01")
	assert.Equal(t, "Title", again.ChapterTitle)
}

func TestChapterStore_SaveRejectsInvalid(t *testing.T) {
	store := NewChapterStore()
	ctx := context.Background()
	bad := sampleChapter("ch01")
	bad.Content.KeyTakeaways[0].PropositionIDs = []string{"ch02_1_p001"}

	err := store.Save(ctx, bad)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))

	_, err = store.Load(ctx, "ch01")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChapterStore_SaveNil(t *testing.T) {
	store := NewChapterStore()
	err := store.Save(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestChapterStore_LoadOrdersSections(t *testing.T) {
	tests := []struct {
		name     string
		sections []domain.Section
		want     []string
	}{
		{
			name: "children after every top level section",
			sections: []domain.Section{
				{UnitID: "1", Title: "One", Level: 1},
				{UnitID: "1.1", Title: "One.One", Level: 2, ParentUnitID: strPtr("1")},
				{UnitID: "2", Title: "Two", Level: 1},
			},
			want: []string{"1", "2", "1.1"},
		},
		{
			name: "unit ids sorted within a level",
			sections: []domain.Section{
				{UnitID: "3", Title: "Three", Level: 1},
				{UnitID: "1", Title: "One", Level: 1},
				{UnitID: "2", Title: "Two", Level: 1},
			},
			want: []string{"1", "2", "3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewChapterStore()
			ctx := context.Background()
			in := sampleChapter("ch01")
			in.Structure.Sections = tt.sections

			require.NoError(t, store.Save(ctx, in))
			out, err := store.Load(ctx, "ch01")
			require.NoError(t, err)

			got := make([]string, 0, len(out.Structure.Sections))
			for _, sec := range out.Structure.Sections {
				got = append(got, sec.UnitID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChapterStore_FailSave(t *testing.T) {
	store := NewChapterStore()
	store.FailSave = errors.New("disk full")

	err := store.Save(context.Background(), sampleChapter("ch01"))
	var serr *domain.StorageError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "ch01", serr.ChapterID)
}

func TestChapterStore_ListDeleteQuery(t *testing.T) {
	store := NewChapterStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, sampleChapter("ch01")))
	require.NoError(t, store.Save(ctx, sampleChapter("ch02")))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].PropositionCount)
	assert.Equal(t, 1, list[0].TakeawayCount)

	props, err := store.QueryByBloom(ctx, "ch01", domain.BloomAnalyze)
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "b", props[0].Text)

	takeaways, err := store.TakeawaysForUnit(ctx, "ch01", "1")
	require.NoError(t, err)
	assert.Len(t, takeaways, 1)

	deleted, err := store.Delete(ctx, "ch01")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, "ch01")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = store.QueryByBloom(ctx, "ch01", domain.BloomAnalyze)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
