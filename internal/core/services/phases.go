package services

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Response schemas sent with each generation call.
var (
	structureSchema    = mustSchema("structure.json")
	propositionsSchema = mustSchema("propositions.json")
	takeawaysSchema    = mustSchema("takeaways.json")
)

// Schema names reported to providers that label structured outputs.
const (
	schemaNameStructure    = "chapter_structure"
	schemaNamePropositions = "section_propositions"
	schemaNameTakeaways    = "section_takeaways"
)

func mustSchema(name string) json.RawMessage {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("missing embedded schema %s: %v", name, err))
	}
	return json.RawMessage(data)
}

// StructureResult is the decoded output of the structure pass.
type StructureResult struct {
	Summary     string           `json:"summary"`
	Sections    []domain.Section `json:"sections"`
	KeyEntities []domain.Entity  `json:"key_entities"`
	Keywords    []string         `json:"keywords"`
}

// Check enforces field presence and the outline hierarchy.
func (r *StructureResult) Check() error {
	var problems []string

	if len(r.Sections) == 0 {
		problems = append(problems, "no sections returned")
	}
	for i, s := range r.Sections {
		if strings.TrimSpace(s.Title) == "" {
			problems = append(problems, fmt.Sprintf("section %d (%s): empty title", i, s.UnitID))
		}
	}
	for _, v := range domain.SectionViolations(r.Sections) {
		problems = append(problems, v.String())
	}

	return schemaProblems("structure", problems)
}

// Structure converts the result into the chapter's structure.
func (r *StructureResult) Structure() domain.Structure {
	return domain.Structure{
		Summary:     r.Summary,
		Sections:    r.Sections,
		KeyEntities: r.KeyEntities,
		Keywords:    r.Keywords,
	}
}

// PropositionBatch is the decoded output of one extraction call.
type PropositionBatch struct {
	Propositions []domain.Proposition `json:"propositions"`
}

// Check enforces proposition text presence and the proposition bloom set.
func (b *PropositionBatch) Check() error {
	var problems []string

	for i, p := range b.Propositions {
		if strings.TrimSpace(p.Text) == "" {
			problems = append(problems, fmt.Sprintf("proposition %d: empty proposition_text", i))
		}
		if !p.BloomLevel.IsPropositionLevel() {
			problems = append(problems, fmt.Sprintf("proposition %d: bloom_level %q not allowed", i, p.BloomLevel))
		}
	}

	return schemaProblems("propositions", problems)
}

// TakeawayBatch is the decoded output of one synthesis call.
type TakeawayBatch struct {
	KeyTakeaways []domain.KeyTakeaway `json:"key_takeaways"`
}

// Check enforces takeaway text, at least one proposition reference and
// the takeaway bloom set.
func (b *TakeawayBatch) Check() error {
	var problems []string

	for i, t := range b.KeyTakeaways {
		if strings.TrimSpace(t.Text) == "" {
			problems = append(problems, fmt.Sprintf("takeaway %d: empty text", i))
		}
		if len(t.PropositionIDs) == 0 {
			problems = append(problems, fmt.Sprintf("takeaway %d: no proposition_ids", i))
		}
		if t.DominantBloomLevel != nil && !t.DominantBloomLevel.IsTakeawayLevel() {
			problems = append(problems,
				fmt.Sprintf("takeaway %d: dominant_bloom_level %q not allowed", i, *t.DominantBloomLevel))
		}
	}

	return schemaProblems("key_takeaways", problems)
}

// checker is implemented by every phase result.
type checker interface {
	Check() error
}

// decodeResult unmarshals a generation response into out and checks it.
func decodeResult(raw json.RawMessage, out checker) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSchemaViolation, err)
	}
	return out.Check()
}

func schemaProblems(what string, problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", domain.ErrSchemaViolation, what, strings.Join(problems, "; "))
}
