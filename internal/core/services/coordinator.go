package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/digest-cli/internal/logger"
)

// ProgressSink receives pipeline progress for one job.
// Implementations must not fail the run; delivery problems are theirs to log.
type ProgressSink interface {
	Notify(ctx context.Context, phase domain.State, message string, status domain.EventStatus)
}

// NewChapterID returns "ch_" followed by 8 random hex characters.
func NewChapterID() string {
	return "ch_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Coordinator runs the digest pipeline:
// structuring, extracting, synthesizing, validating, persisting.
type Coordinator struct {
	generator   driven.Generator
	store       driven.ChapterStore
	extractor   *UnitExtractor
	synthesizer *Synthesizer
	prompts     prompter
	settings    domain.PipelineSettings
}

// NewCoordinator wires the pipeline. The prompt store may be nil.
func NewCoordinator(
	generator driven.Generator,
	store driven.ChapterStore,
	prompts driven.PromptStore,
	settings domain.PipelineSettings,
) *Coordinator {
	return &Coordinator{
		generator:   generator,
		store:       store,
		extractor:   NewUnitExtractor(generator, NewSegmenter(settings.ChunkWords), prompts, settings),
		synthesizer: NewSynthesizer(generator, prompts, settings),
		prompts:     prompter{store: prompts},
		settings:    settings,
	}
}

// pipelineRun holds the state of one Run call.
type pipelineRun struct {
	jobID   string
	req     domain.DigestRequest
	sink    ProgressSink
	state   domain.State
	chapter *domain.ChapterAnalysis
	log     zerolog.Logger
}

func (r *pipelineRun) notify(ctx context.Context, message string) {
	r.log.Info().Str("phase", r.state.String()).Msg(message)
	if r.sink != nil {
		r.sink.Notify(ctx, r.state, message, domain.EventInProgress)
	}
}

// Run digests one chapter synchronously. It moves strictly forward through
// the pipeline states and emits exactly one terminal event.
//
// Errors are *domain.ExtractionInputError before any phase,
// *domain.AnalysisError for generation phases and cancellation,
// *domain.ValidationError for invariant violations and
// *domain.StorageError for persistence failures. On a StorageError the
// validated analysis is returned alongside the error.
//
// ctx is checked between phases, sections and chunks.
func (c *Coordinator) Run(
	ctx context.Context,
	jobID string,
	req domain.DigestRequest,
	sink ProgressSink,
) (*domain.ChapterAnalysis, error) {
	req = req.WithDefaults()
	if req.ChapterID == "" {
		req.ChapterID = NewChapterID()
	}

	r := &pipelineRun{
		jobID: jobID,
		req:   req,
		sink:  sink,
		state: domain.StateInitialized,
		log: logger.Get().With().
			Str("job_id", jobID).
			Str("chapter_id", req.ChapterID).
			Logger(),
		chapter: &domain.ChapterAnalysis{
			SchemaVersion: domain.SchemaVersion,
			BookID:        req.BookID,
			ChapterID:     req.ChapterID,
			ChapterTitle:  req.ChapterTitle,
		},
	}

	if err := req.Validate(); err != nil {
		return nil, c.fail(ctx, r, err)
	}

	r.log.Info().Str("title", req.ChapterTitle).Int("chars", len(req.Text)).Msg("starting digest")

	steps := []struct {
		state domain.State
		run   func(context.Context, *pipelineRun) error
	}{
		{domain.StateStructuring, c.structure},
		{domain.StateExtracting, c.extract},
		{domain.StateSynthesizing, c.synthesize},
		{domain.StateValidating, c.validate},
		{domain.StatePersisting, c.persist},
	}

	for _, step := range steps {
		r.state = step.state
		if err := ctx.Err(); err != nil {
			return nil, c.fail(ctx, r, cancelled(step.state, err))
		}
		if err := step.run(ctx, r); err != nil {
			if errors.As(err, new(*domain.StorageError)) {
				return r.chapter, c.fail(ctx, r, err)
			}
			return nil, c.fail(ctx, r, err)
		}
	}

	r.state = domain.StateCompleted
	message := fmt.Sprintf("Analysis complete! (%d propositions extracted)", len(r.chapter.Content.Propositions))
	r.log.Info().Msg(message)
	if sink != nil {
		sink.Notify(ctx, domain.StateCompleted, message, domain.EventCompleted)
	}

	return r.chapter, nil
}

func (c *Coordinator) structure(ctx context.Context, r *pipelineRun) error {
	r.notify(ctx, "Analyzing chapter structure and content...")

	raw, err := c.generator.GenerateStructured(ctx, driven.GenerateRequest{
		SystemPrompt: c.prompts.system(driven.PromptStructure, defaultStructurePrompt),
		UserPrompt:   structureUserPrompt(r.req.ChapterID, r.req),
		SchemaName:   schemaNameStructure,
		Schema:       structureSchema,
		Temperature:  c.settings.StructureTemperature,
		MaxTokens:    c.settings.MaxTokens,
	})
	if err != nil {
		return phaseError(ctx, r.state, fmt.Errorf("chapter comprehension: %w", err))
	}

	var result StructureResult
	if err := decodeResult(raw, &result); err != nil {
		return phaseError(ctx, r.state, fmt.Errorf("chapter comprehension: %w", err))
	}

	r.chapter.Structure = result.Structure()
	r.log.Info().
		Int("sections", len(result.Sections)).
		Int("entities", len(result.KeyEntities)).
		Int("keywords", len(result.Keywords)).
		Msg("structure complete")
	r.notify(ctx, fmt.Sprintf("Structure complete (%d sections)", len(result.Sections)))
	return nil
}

func (c *Coordinator) extract(ctx context.Context, r *pipelineRun) error {
	r.notify(ctx, "Extracting atomic facts...")

	props, err := c.extractor.ExtractPropositions(ctx, r.req.ChapterID, r.chapter.Structure.Sections, r.req.Text,
		func(msg string) { r.notify(ctx, msg) })
	if err != nil {
		return phaseError(ctx, r.state, fmt.Errorf("proposition extraction: %w", err))
	}

	for i := range props {
		if props[i].ChapterID != r.req.ChapterID {
			r.log.Warn().
				Str("proposition_id", props[i].PropositionID).
				Str("echoed", props[i].ChapterID).
				Msg("correcting proposition chapter_id")
			props[i].ChapterID = r.req.ChapterID
		}
	}

	r.chapter.Content.Propositions = props
	r.log.Info().Interface("bloom", r.chapter.BloomDistribution()).Msg("extraction complete")
	return nil
}

func (c *Coordinator) synthesize(ctx context.Context, r *pipelineRun) error {
	r.notify(ctx, "Synthesizing key takeaways...")

	takeaways, err := c.synthesizer.SynthesizeTakeaways(ctx, r.req.ChapterID, r.chapter.Structure.Sections,
		r.chapter.Content.Propositions, func(msg string) { r.notify(ctx, msg) })
	if err != nil {
		return phaseError(ctx, r.state, fmt.Errorf("takeaway synthesis: %w", err))
	}

	for i := range takeaways {
		if takeaways[i].ChapterID != r.req.ChapterID {
			r.log.Warn().
				Str("takeaway_id", takeaways[i].TakeawayID).
				Str("echoed", takeaways[i].ChapterID).
				Msg("correcting takeaway chapter_id")
			takeaways[i].ChapterID = r.req.ChapterID
		}
	}

	r.chapter.Content.KeyTakeaways = takeaways
	return nil
}

func (c *Coordinator) validate(ctx context.Context, r *pipelineRun) error {
	r.notify(ctx, "Validating complete analysis...")
	if err := r.chapter.Validate(); err != nil {
		return err
	}
	r.notify(ctx, "Validation complete")
	return nil
}

func (c *Coordinator) persist(ctx context.Context, r *pipelineRun) error {
	r.notify(ctx, "Saving to database...")

	if err := c.store.Save(ctx, r.chapter); err != nil {
		var verr *domain.ValidationError
		var serr *domain.StorageError
		switch {
		case errors.As(err, &verr), errors.As(err, &serr):
			return err
		default:
			return &domain.StorageError{Op: "save", ChapterID: r.req.ChapterID, Cause: err}
		}
	}

	r.notify(ctx, "Storage complete")
	return nil
}

// fail logs err with its context and emits the terminal error event.
func (c *Coordinator) fail(ctx context.Context, r *pipelineRun, err error) error {
	ev := r.log.Error().Err(err).Str("phase", r.state.String())

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		ids := make([]string, 0, len(verr.Violations))
		for _, v := range verr.Violations {
			ids = append(ids, v.EntityID)
		}
		ev = ev.Strs("entity_ids", ids)
	}
	ev.Msg("digest failed")

	if r.sink != nil {
		r.sink.Notify(ctx, domain.StateFailed, summarize(r.state, err), domain.EventError)
	}
	return err
}

// phaseError wraps a generation phase failure, reporting cancellation when
// the run's context has ended.
func phaseError(ctx context.Context, phase domain.State, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return cancelled(phase, ctxErr)
	}
	return &domain.AnalysisError{Phase: phase, Cause: err}
}

func cancelled(phase domain.State, cause error) error {
	return &domain.AnalysisError{Phase: phase, Cause: fmt.Errorf("%w: %w", domain.ErrCancelled, cause)}
}

// summarize renders a short caller-visible message for err.
func summarize(phase domain.State, err error) string {
	var (
		verr  *domain.ValidationError
		serr  *domain.StorageError
		aerr  *domain.AnalysisError
		inErr *domain.ExtractionInputError
	)

	switch {
	case errors.Is(err, domain.ErrCancelled):
		return fmt.Sprintf("Cancelled during %s", phase)
	case errors.As(err, &inErr):
		return "Rejected input: " + inErr.Reason
	case errors.As(err, &verr):
		msg := fmt.Sprintf("Validation failed: %d violations", len(verr.Violations))
		if len(verr.Violations) > 0 {
			msg += " (first: " + verr.Violations[0].String() + ")"
		}
		return msg
	case errors.As(err, &serr):
		return fmt.Sprintf("Analysis complete but not saved: %v", serr.Cause)
	case errors.As(err, &aerr):
		return fmt.Sprintf("%s failed: %v", phaseLabel(aerr.Phase), aerr.Cause)
	default:
		return fmt.Sprintf("%s failed: %v", phaseLabel(phase), err)
	}
}

func phaseLabel(s domain.State) string {
	name := s.String()
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
