package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/digest-cli/internal/postprocessors/chunker"
)

// Fallback system prompts used when no PromptStore is configured.
const (
	defaultStructurePrompt = `You map the hierarchical structure of a book chapter.
Return a one-paragraph summary, every section and subsection with a unique unit_id
("1", "1.2", "1.2.3"), its title exactly as written in the text, its level (1 = top)
and its parent's unit_id (null at level 1), the key entities and domain keywords.
Output valid JSON only, matching the provided schema.`

	defaultExtractionPrompt = `You extract atomic propositions from a section of a book chapter.
Each proposition is one independently verifiable fact taken from the text.
Tag each with a bloom_level from remember, understand, apply or analyze and a matching verb.
Cite the paragraph marker (e.g. "¶003") in evidence_location.
Output valid JSON only, matching the provided schema.`

	defaultSynthesisPrompt = `You synthesise key takeaways from extracted propositions.
Each takeaway is one sentence that connects two to five related propositions,
lists their proposition_ids and uses a dominant_bloom_level of analyze or evaluate.
Output valid JSON only, matching the provided schema.`
)

// prompter resolves system prompts and builds user prompts.
type prompter struct {
	store driven.PromptStore
}

// system loads a prompt from the store, falling back to the default if unavailable.
func (p prompter) system(name, fallback string) string {
	if p.store == nil {
		return fallback
	}
	prompt, err := p.store.Load(name)
	if err != nil || strings.TrimSpace(prompt) == "" {
		return fallback
	}
	return prompt
}

// propositionTargets is the extraction density heuristic for a block of words.
func propositionTargets(words int) (lo, hi int) {
	return max(3, words/150), max(5, words/100)
}

// takeawayTargets is the synthesis density heuristic for n propositions.
func takeawayTargets(n int) (lo, hi int) {
	return max(2, n/5), max(3, n/3)
}

func structureUserPrompt(chapterID string, req domain.DigestRequest) string {
	return fmt.Sprintf(`Chapter Title: %s
Book ID: %s
Chapter ID: %s

Chapter Text:
%s

Please analyze this chapter and respond with the structure JSON output.`,
		req.ChapterTitle, req.BookID, chapterID, req.Text)
}

func extractionUserPrompt(chapterID string, section domain.Section, chunk chunker.Chunk) string {
	lo, hi := propositionTargets(chunk.Words)

	var b strings.Builder
	fmt.Fprintf(&b, "Chapter ID: %s\n", chapterID)
	if chunk.Total > 1 {
		fmt.Fprintf(&b, "Section: %s - %s (Chunk %d/%d)\n\n", section.UnitID, section.Title, chunk.Index+1, chunk.Total)
	} else {
		fmt.Fprintf(&b, "Section: %s - %s\n\n", section.UnitID, section.Title)
	}
	b.WriteString("TASK: Extract ALL facts from this text.\n")
	b.WriteString("Each paragraph is numbered [¶001], [¶002], ... Use these numbers in evidence_location.\n\n")
	fmt.Fprintf(&b, "Text (%d words):\n%s\n\n", chunk.Words, chunker.EnumerateParagraphs(chunk.Text))
	fmt.Fprintf(&b, "Extract %d-%d propositions.\n", lo, hi)
	b.WriteString("Respond with a JSON object containing ONLY a \"propositions\" array.\n")
	fmt.Fprintf(&b, "Each proposition must have chapter_id %q and unit_id %q.\n", chapterID, section.UnitID)
	b.WriteString("Do NOT include key takeaways.")

	return b.String()
}

func synthesisUserPrompt(chapterID string, section domain.Section, props []domain.Proposition) string {
	lo, hi := takeawayTargets(len(props))

	return fmt.Sprintf(`Chapter ID: %s
Section: %s - %s

TASK: Synthesize key takeaways from these section propositions.

Section Propositions (%d total):
%s

REQUIREMENTS:
- Generate %d-%d key takeaways for this section
- Each takeaway synthesizes 2-5 related propositions and is ONE complete sentence
- Use bloom levels analyze or evaluate
- Identify patterns, relationships, causes, comparisons, significance

Respond with a JSON object containing ONLY a "key_takeaways" array.
Each takeaway must have chapter_id %q and unit_id %q.`,
		chapterID, section.UnitID, section.Title, len(props), propositionSummary(props),
		lo, hi, chapterID, section.UnitID)
}

func chapterSynthesisUserPrompt(chapterID string, props []domain.Proposition) string {
	lo, hi := takeawayTargets(len(props))

	return fmt.Sprintf(`Chapter ID: %s

TASK: Synthesize chapter-level takeaways that connect propositions across sections.

Chapter Propositions (%d total):
%s

REQUIREMENTS:
- Generate %d-%d key takeaways spanning more than one section where the text supports it
- Each takeaway is ONE complete sentence using bloom levels analyze or evaluate

Respond with a JSON object containing ONLY a "key_takeaways" array.
Each takeaway must have chapter_id %q and unit_id null.`,
		chapterID, len(props), propositionSummary(props), min(lo, 10), min(hi, 12), chapterID)
}

// propositionSummary renders one "- [id] text (Bloom: level)" line per proposition.
func propositionSummary(props []domain.Proposition) string {
	lines := make([]string, 0, len(props))
	for _, p := range props {
		lines = append(lines, fmt.Sprintf("- [%s] %s (Bloom: %s)", p.PropositionID, p.Text, p.BloomLevel))
	}
	return strings.Join(lines, "\n")
}
