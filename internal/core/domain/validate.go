package domain

import "fmt"

// Violation rules reported by Validate.
const (
	RuleChapterID            = "chapter.chapter_id"
	RuleSectionUnitID        = "section.unit_id"
	RuleSectionParent        = "section.parent_unit_id"
	RulePropositionID        = "proposition.proposition_id"
	RulePropositionChapter   = "proposition.chapter_id"
	RulePropositionUnit      = "proposition.unit_id"
	RulePropositionBloom     = "proposition.bloom_level"
	RuleTakeawayID           = "takeaway.takeaway_id"
	RuleTakeawayChapter      = "takeaway.chapter_id"
	RuleTakeawayUnit         = "takeaway.unit_id"
	RuleTakeawayPropositions = "takeaway.proposition_ids"
	RuleTakeawayBloom        = "takeaway.dominant_bloom_level"
)

const (
	detailUnknownSection     = "unknown section %q"
	detailUnknownProposition = "unknown proposition %q"
	detailDuplicate          = "duplicate id"
	detailChapterMismatch    = "chapter_id %q does not match %q"
)

// Validate checks the chapter graph's referential and domain invariants and
// returns a *ValidationError listing every violation, or nil.
//
//nolint:gocyclo // One pass per entity kind keeps every violation in one list.
func (c *ChapterAnalysis) Validate() error {
	var vs []Violation
	add := func(rule, id, format string, args ...any) {
		vs = append(vs, Violation{Rule: rule, EntityID: id, Detail: fmt.Sprintf(format, args...)})
	}

	if c.ChapterID == "" {
		add(RuleChapterID, "", "chapter_id is empty")
	}

	vs = append(vs, SectionViolations(c.Structure.Sections)...)
	levels := c.SectionIDs()

	// Propositions.
	props := make(map[string]struct{}, len(c.Content.Propositions))
	for _, p := range c.Content.Propositions {
		if _, dup := props[p.PropositionID]; dup || p.PropositionID == "" {
			add(RulePropositionID, p.PropositionID, detailDuplicate)
		}
		props[p.PropositionID] = struct{}{}

		if p.ChapterID != c.ChapterID {
			add(RulePropositionChapter, p.PropositionID, detailChapterMismatch, p.ChapterID, c.ChapterID)
		}
		if _, ok := levels[p.UnitID]; !ok {
			add(RulePropositionUnit, p.PropositionID, detailUnknownSection, p.UnitID)
		}
		if !p.BloomLevel.IsPropositionLevel() {
			add(RulePropositionBloom, p.PropositionID, "bloom level %q not allowed", p.BloomLevel)
		}
	}

	// Takeaways.
	takeaways := make(map[string]struct{}, len(c.Content.KeyTakeaways))
	for _, t := range c.Content.KeyTakeaways {
		if _, dup := takeaways[t.TakeawayID]; dup || t.TakeawayID == "" {
			add(RuleTakeawayID, t.TakeawayID, detailDuplicate)
		}
		takeaways[t.TakeawayID] = struct{}{}

		if t.ChapterID != c.ChapterID {
			add(RuleTakeawayChapter, t.TakeawayID, detailChapterMismatch, t.ChapterID, c.ChapterID)
		}
		if t.UnitID != nil {
			if _, ok := levels[*t.UnitID]; !ok {
				add(RuleTakeawayUnit, t.TakeawayID, detailUnknownSection, *t.UnitID)
			}
		}
		if len(t.PropositionIDs) == 0 {
			add(RuleTakeawayPropositions, t.TakeawayID, "no propositions referenced")
		}
		for _, pid := range t.PropositionIDs {
			if _, ok := props[pid]; !ok {
				add(RuleTakeawayPropositions, t.TakeawayID, detailUnknownProposition, pid)
			}
		}
		if t.DominantBloomLevel != nil && !t.DominantBloomLevel.IsTakeawayLevel() {
			add(RuleTakeawayBloom, t.TakeawayID, "bloom level %q not allowed", *t.DominantBloomLevel)
		}
	}

	if len(vs) == 0 {
		return nil
	}
	return &ValidationError{ChapterID: c.ChapterID, Violations: vs}
}

// SectionViolations checks an outline on its own: unit ids are present and
// unique, level 1 sections have no parent and deeper sections point at an
// existing section exactly one level up.
func SectionViolations(sections []Section) []Violation {
	var vs []Violation
	add := func(rule, id, format string, args ...any) {
		vs = append(vs, Violation{Rule: rule, EntityID: id, Detail: fmt.Sprintf(format, args...)})
	}

	levels := make(map[string]int, len(sections))
	for _, s := range sections {
		if s.UnitID == "" {
			add(RuleSectionUnitID, s.Title, "unit_id is empty")
			continue
		}
		if _, dup := levels[s.UnitID]; dup {
			add(RuleSectionUnitID, s.UnitID, detailDuplicate)
			continue
		}
		levels[s.UnitID] = s.Level
	}

	for _, s := range sections {
		switch {
		case s.Level < 1:
			add(RuleSectionParent, s.UnitID, "level %d is below 1", s.Level)
		case s.Level == 1 && s.ParentUnitID != nil:
			add(RuleSectionParent, s.UnitID, "top-level section has parent %q", *s.ParentUnitID)
		case s.Level > 1 && s.ParentUnitID == nil:
			add(RuleSectionParent, s.UnitID, "level %d section has no parent", s.Level)
		case s.Level > 1:
			parentLevel, ok := levels[*s.ParentUnitID]
			if !ok {
				add(RuleSectionParent, s.UnitID, detailUnknownSection, *s.ParentUnitID)
			} else if parentLevel != s.Level-1 {
				add(RuleSectionParent, s.UnitID, "parent %q is at level %d, want %d",
					*s.ParentUnitID, parentLevel, s.Level-1)
			}
		}
	}

	return vs
}
