package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func bloomPtr(b BloomLevel) *BloomLevel { return &b }

func sampleChapter() *ChapterAnalysis {
	return &ChapterAnalysis{
		SchemaVersion: SchemaVersion,
		BookID:        "film_vol1",
		ChapterID:     "ch01",
		ChapterTitle:  "Studios",
		Structure: Structure{
			Sections: []Section{{UnitID: "1.1", Title: "Intro", Level: 1}},
		},
		Content: Content{
			Propositions: []Proposition{
				{PropositionID: "ch01_1.1_p001", UnitID: "1.1", BloomLevel: BloomRemember},
				{PropositionID: "ch01_1.1_p002", UnitID: "1.1", BloomLevel: BloomRemember},
				{PropositionID: "ch01_1.1_p003", UnitID: "1.1", BloomLevel: BloomAnalyze},
			},
			KeyTakeaways: []KeyTakeaway{
				{TakeawayID: "ch01_t001", DominantBloomLevel: bloomPtr(BloomEvaluate)},
				{TakeawayID: "ch01_t002"},
			},
		},
	}
}

func TestChapterAnalysis_IDSets(t *testing.T) {
	c := sampleChapter()

	assert.Contains(t, c.SectionIDs(), "1.1")
	assert.Len(t, c.PropositionIDs(), 3)
	assert.Contains(t, c.PropositionIDs(), "ch01_1.1_p002")
}

func TestChapterAnalysis_BloomDistribution(t *testing.T) {
	c := sampleChapter()

	assert.Equal(t, map[string]int{
		"remember":   2,
		"understand": 0,
		"apply":      0,
		"analyze":    1,
	}, c.BloomDistribution())

	assert.Equal(t, map[string]int{
		"analyze":  0,
		"evaluate": 1,
		"none":     1,
	}, c.TakeawayBloomDistribution())
}

func TestState_Order(t *testing.T) {
	states := []State{
		StateInitialized, StateStructuring, StateExtracting, StateSynthesizing,
		StateValidating, StatePersisting, StateCompleted,
	}
	for i := 1; i < len(states); i++ {
		assert.Less(t, states[i-1].Order(), states[i].Order())
	}
	assert.True(t, StateCompleted.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.False(t, StatePersisting.IsTerminal())
	assert.True(t, EventError.IsTerminal())
	assert.False(t, EventInProgress.IsTerminal())
}
