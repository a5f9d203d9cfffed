package domain

import "time"

// SchemaVersion is stamped on every ChapterAnalysis produced by this build.
const SchemaVersion = "1.0"

// Defaults applied when a digest request omits metadata.
const (
	DefaultBookID       = "unknown_book"
	DefaultChapterTitle = "Untitled Chapter"
)

// Section is a node in the chapter's hierarchical outline.
// Sections are produced once by the structure pass and never mutated.
type Section struct {
	// UnitID addresses the section, e.g. "1.2.3".
	UnitID string `json:"unit_id"`

	// Title is the heading as it appears in the chapter text.
	Title string `json:"title"`

	// Level is the nesting depth; 1 is top level.
	Level int `json:"level"`

	// ParentUnitID is nil for level 1 sections.
	ParentUnitID *string `json:"parent_unit_id"`

	// StartLocation and EndLocation are opaque pointers into the text.
	StartLocation *string `json:"start_location"`
	EndLocation   *string `json:"end_location"`
}

// Entity is a named thing the chapter mentions.
type Entity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Proposition is an atomic fact extracted from a single section.
type Proposition struct {
	PropositionID    string     `json:"proposition_id"`
	ChapterID        string     `json:"chapter_id"`
	UnitID           string     `json:"unit_id"`
	Text             string     `json:"proposition_text"`
	BloomLevel       BloomLevel `json:"bloom_level"`
	BloomVerb        string     `json:"bloom_verb"`
	EvidenceLocation string     `json:"evidence_location"`
	SourceType       string     `json:"source_type"`
	Tags             []string   `json:"tags"`
}

// KeyTakeaway is a higher-order statement synthesised from propositions.
// A nil UnitID marks a chapter-level takeaway.
type KeyTakeaway struct {
	TakeawayID         string      `json:"takeaway_id"`
	ChapterID          string      `json:"chapter_id"`
	UnitID             *string     `json:"unit_id"`
	Text               string      `json:"text"`
	PropositionIDs     []string    `json:"proposition_ids"`
	DominantBloomLevel *BloomLevel `json:"dominant_bloom_level"`
	Tags               []string    `json:"tags"`
}

// Structure is the output of the structure pass.
type Structure struct {
	Summary     string    `json:"summary"`
	Sections    []Section `json:"sections"`
	KeyEntities []Entity  `json:"key_entities"`
	Keywords    []string  `json:"keywords"`
}

// Content holds the extracted and synthesised statements.
type Content struct {
	Propositions []Proposition `json:"propositions"`
	KeyTakeaways []KeyTakeaway `json:"key_takeaways"`
}

// ChapterAnalysis is the aggregate root for one digested chapter.
type ChapterAnalysis struct {
	SchemaVersion string    `json:"schema_version"`
	BookID        string    `json:"book_id"`
	ChapterID     string    `json:"chapter_id"`
	ChapterTitle  string    `json:"chapter_title"`
	Structure     Structure `json:"structure"`
	Content       Content   `json:"content"`
}

// SectionIDs returns the set of unit ids defined by the structure.
func (c *ChapterAnalysis) SectionIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.Structure.Sections))
	for _, s := range c.Structure.Sections {
		ids[s.UnitID] = struct{}{}
	}
	return ids
}

// PropositionIDs returns the set of proposition ids in the chapter.
func (c *ChapterAnalysis) PropositionIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.Content.Propositions))
	for _, p := range c.Content.Propositions {
		ids[p.PropositionID] = struct{}{}
	}
	return ids
}

// BloomDistribution counts propositions per bloom level.
// Every proposition level is present in the result, even at zero.
func (c *ChapterAnalysis) BloomDistribution() map[string]int {
	dist := make(map[string]int, len(PropositionBloomLevels()))
	for _, l := range PropositionBloomLevels() {
		dist[l.String()] = 0
	}
	for _, p := range c.Content.Propositions {
		dist[p.BloomLevel.String()]++
	}
	return dist
}

// TakeawayBloomDistribution counts takeaways per dominant level.
// Takeaways without a level are counted under "none".
func (c *ChapterAnalysis) TakeawayBloomDistribution() map[string]int {
	dist := map[string]int{
		BloomAnalyze.String():  0,
		BloomEvaluate.String(): 0,
		"none":                 0,
	}
	for _, t := range c.Content.KeyTakeaways {
		if t.DominantBloomLevel == nil {
			dist["none"]++
			continue
		}
		dist[t.DominantBloomLevel.String()]++
	}
	return dist
}

// ChapterSummary is the lightweight listing view of a stored chapter.
// Counts are computed at read time.
type ChapterSummary struct {
	ChapterID        string    `json:"chapter_id"`
	ChapterTitle     string    `json:"chapter_title"`
	BookID           string    `json:"book_id"`
	CreatedAt        time.Time `json:"created_at"`
	PropositionCount int       `json:"proposition_count"`
	TakeawayCount    int       `json:"takeaway_count"`
}

// ChapterStats summarises the cognitive spread of a stored chapter.
type ChapterStats struct {
	ChapterID             string         `json:"chapter_id"`
	Sections              int            `json:"sections"`
	Propositions          int            `json:"propositions"`
	Takeaways             int            `json:"takeaways"`
	PropositionsByBloom   map[string]int `json:"propositions_by_bloom"`
	TakeawaysByBloom      map[string]int `json:"takeaways_by_bloom"`
	PropositionsBySection map[string]int `json:"propositions_by_section"`
}
