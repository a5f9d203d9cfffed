package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/digest-cli/internal/logger"
	"github.com/custodia-labs/digest-cli/internal/postprocessors/chunker"
)

// UnitExtractor turns section text into renumbered propositions.
type UnitExtractor struct {
	generator driven.Generator
	segmenter *Segmenter
	prompts   prompter
	settings  domain.PipelineSettings
}

// NewUnitExtractor creates an extractor. The prompt store may be nil.
func NewUnitExtractor(
	generator driven.Generator,
	segmenter *Segmenter,
	prompts driven.PromptStore,
	settings domain.PipelineSettings,
) *UnitExtractor {
	return &UnitExtractor{
		generator: generator,
		segmenter: segmenter,
		prompts:   prompter{store: prompts},
		settings:  settings,
	}
}

// ExtractPropositions issues one generation call per chunk of every section
// and returns the propositions in section, chunk and response order.
//
// Ids are reassigned as {chapterID}_{unitID}_pNNN, numbered per section
// across its chunks. Any generation or schema failure aborts the whole
// extraction. Sections may run concurrently when configured; the output
// order never depends on completion order.
func (e *UnitExtractor) ExtractPropositions(
	ctx context.Context,
	chapterID string,
	sections []domain.Section,
	fullText string,
	progress func(string),
) ([]domain.Proposition, error) {
	if progress == nil {
		progress = func(string) {}
	}

	spans := e.segmenter.Segment(fullText, sections)
	results := make([][]domain.Proposition, len(spans))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.settings.SectionConcurrency))

	for i, span := range spans {
		g.Go(func() error {
			props, err := e.extractSection(gctx, chapterID, span, i, len(spans), progress)
			if err != nil {
				return err
			}
			results[i] = props
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.Proposition
	for _, props := range results {
		all = append(all, props...)
	}

	progress(fmt.Sprintf("Extracted %d total propositions", len(all)))
	return all, nil
}

func (e *UnitExtractor) extractSection(
	ctx context.Context,
	chapterID string,
	span SectionSpan,
	index, total int,
	progress func(string),
) ([]domain.Proposition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	section := span.Section
	chunks := e.segmenter.Chunk(span.Text)
	words := chunker.WordCount(span.Text)

	progress(fmt.Sprintf("Section %d/%d: %s (%d words)", index+1, total, section.Title, words))
	if len(chunks) > 1 {
		progress(fmt.Sprintf("  Processing %d chunks of up to %d words...", len(chunks), e.segmenter.ChunkWords()))
	}

	system := e.prompts.system(driven.PromptExtraction, defaultExtractionPrompt)

	var props []domain.Proposition
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := e.generator.GenerateStructured(ctx, driven.GenerateRequest{
			SystemPrompt: system,
			UserPrompt:   extractionUserPrompt(chapterID, section, chunk),
			SchemaName:   schemaNamePropositions,
			Schema:       propositionsSchema,
			Temperature:  e.settings.ExtractionTemperature,
			MaxTokens:    e.settings.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("section %s chunk %d/%d: %w", section.UnitID, chunk.Index+1, chunk.Total, err)
		}

		var batch PropositionBatch
		if err := decodeResult(raw, &batch); err != nil {
			return nil, fmt.Errorf("section %s chunk %d/%d: %w", section.UnitID, chunk.Index+1, chunk.Total, err)
		}

		props = append(props, batch.Propositions...)
		if chunk.Total > 1 {
			progress(fmt.Sprintf("  Chunk %d/%d: %d propositions", chunk.Index+1, chunk.Total, len(batch.Propositions)))
		}
	}

	renumberPropositions(chapterID, section.UnitID, props)

	logger.Get().Debug().
		Str("chapter_id", chapterID).
		Str("unit_id", section.UnitID).
		Int("propositions", len(props)).
		Msg("section extracted")
	progress(fmt.Sprintf("Section %d/%d complete: %d propositions", index+1, total, len(props)))

	return props, nil
}

// renumberPropositions assigns section-sequential ids. The unit_id the
// engine echoed is kept as is; a mismatch is logged and left to validation.
func renumberPropositions(chapterID, unitID string, props []domain.Proposition) {
	for i := range props {
		p := &props[i]
		p.PropositionID = fmt.Sprintf("%s_%s_p%03d", chapterID, unitID, i+1)

		if p.UnitID != unitID {
			logger.Get().Warn().
				Str("chapter_id", chapterID).
				Str("proposition_id", p.PropositionID).
				Str("echoed", p.UnitID).
				Str("section", unitID).
				Msg("proposition unit_id differs from its section")
		}
	}
}
