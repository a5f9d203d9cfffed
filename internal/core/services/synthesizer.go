package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/digest-cli/internal/logger"
)

// Synthesizer derives key takeaways from each section's propositions.
type Synthesizer struct {
	generator driven.Generator
	prompts   prompter
	settings  domain.PipelineSettings
}

// NewSynthesizer creates a synthesizer. The prompt store may be nil.
func NewSynthesizer(
	generator driven.Generator,
	prompts driven.PromptStore,
	settings domain.PipelineSettings,
) *Synthesizer {
	return &Synthesizer{
		generator: generator,
		prompts:   prompter{store: prompts},
		settings:  settings,
	}
}

// SynthesizeTakeaways issues one generation call per section that has
// propositions, with only that section's propositions as context.
// Sections without propositions are skipped.
//
// When chapter synthesis is enabled, one more call over every proposition
// produces chapter-level takeaways (nil unit id), appended last.
// All takeaways are renumbered {chapterID}_tNNN in section order.
func (s *Synthesizer) SynthesizeTakeaways(
	ctx context.Context,
	chapterID string,
	sections []domain.Section,
	propositions []domain.Proposition,
	progress func(string),
) ([]domain.KeyTakeaway, error) {
	if progress == nil {
		progress = func(string) {}
	}

	bySection := make(map[string][]domain.Proposition, len(sections))
	for _, p := range propositions {
		bySection[p.UnitID] = append(bySection[p.UnitID], p)
	}

	results := make([][]domain.KeyTakeaway, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.settings.SectionConcurrency))

	for i, section := range sections {
		props := bySection[section.UnitID]
		if len(props) == 0 {
			logger.Get().Warn().
				Str("chapter_id", chapterID).
				Str("unit_id", section.UnitID).
				Msg("no propositions for section, skipping takeaway synthesis")
			continue
		}

		g.Go(func() error {
			takeaways, err := s.synthesizeSection(gctx, chapterID, section, props, i, len(sections), progress)
			if err != nil {
				return err
			}
			results[i] = takeaways
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.KeyTakeaway
	for _, takeaways := range results {
		all = append(all, takeaways...)
	}

	if s.settings.ChapterSynthesis && len(propositions) > 0 {
		chapterLevel, err := s.synthesizeChapter(ctx, chapterID, propositions)
		if err != nil {
			return nil, err
		}
		all = append(all, chapterLevel...)
		progress(fmt.Sprintf("Chapter-level synthesis: %d takeaways", len(chapterLevel)))
	}

	for i := range all {
		all[i].TakeawayID = fmt.Sprintf("%s_t%03d", chapterID, i+1)
	}

	progress(fmt.Sprintf("Synthesis complete: %d takeaways from %d propositions", len(all), len(propositions)))
	return all, nil
}

func (s *Synthesizer) synthesizeSection(
	ctx context.Context,
	chapterID string,
	section domain.Section,
	props []domain.Proposition,
	index, total int,
	progress func(string),
) ([]domain.KeyTakeaway, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lo, hi := takeawayTargets(len(props))
	progress(fmt.Sprintf("Synthesizing section %d/%d: %s (%d propositions, target %d-%d takeaways)",
		index+1, total, section.Title, len(props), lo, hi))

	batch, err := s.generate(ctx, synthesisUserPrompt(chapterID, section, props))
	if err != nil {
		return nil, fmt.Errorf("section %s: %w", section.UnitID, err)
	}

	for i, t := range batch.KeyTakeaways {
		if t.UnitID == nil || *t.UnitID != section.UnitID {
			logger.Get().Warn().
				Str("chapter_id", chapterID).
				Str("section", section.UnitID).
				Int("takeaway", i).
				Msg("takeaway unit_id differs from its section")
		}
	}

	return batch.KeyTakeaways, nil
}

func (s *Synthesizer) synthesizeChapter(
	ctx context.Context,
	chapterID string,
	props []domain.Proposition,
) ([]domain.KeyTakeaway, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch, err := s.generate(ctx, chapterSynthesisUserPrompt(chapterID, props))
	if err != nil {
		return nil, fmt.Errorf("chapter level: %w", err)
	}

	for i := range batch.KeyTakeaways {
		batch.KeyTakeaways[i].UnitID = nil
	}
	return batch.KeyTakeaways, nil
}

func (s *Synthesizer) generate(ctx context.Context, userPrompt string) (*TakeawayBatch, error) {
	raw, err := s.generator.GenerateStructured(ctx, driven.GenerateRequest{
		SystemPrompt: s.prompts.system(driven.PromptSynthesis, defaultSynthesisPrompt),
		UserPrompt:   userPrompt,
		SchemaName:   schemaNameTakeaways,
		Schema:       takeawaysSchema,
		Temperature:  s.settings.ExtractionTemperature,
		MaxTokens:    s.settings.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	var batch TakeawayBatch
	if err := decodeResult(raw, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}
