package driving

import (
	"context"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

// ChapterService reads and manages stored chapter analyses.
type ChapterService interface {
	// Get returns a stored chapter. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, chapterID string) (*domain.ChapterAnalysis, error)

	// List returns summaries of all stored chapters.
	List(ctx context.Context) ([]domain.ChapterSummary, error)

	// Delete removes a chapter. Returns false if it did not exist.
	Delete(ctx context.Context, chapterID string) (bool, error)

	// QueryByBloom returns propositions at one level. Levels outside the
	// proposition set return domain.ErrInvalidInput.
	QueryByBloom(ctx context.Context, chapterID string, level domain.BloomLevel) ([]domain.Proposition, error)

	// TakeawaysForUnit returns the takeaways attached to one section.
	TakeawaysForUnit(ctx context.Context, chapterID, unitID string) ([]domain.KeyTakeaway, error)

	// Stats returns bloom distributions and counts for a chapter.
	Stats(ctx context.Context, chapterID string) (*domain.ChapterStats, error)
}

// SettingsService reads and updates application settings.
type SettingsService interface {
	// Get resolves settings from configuration, environment and defaults.
	Get() (*domain.AppSettings, error)

	// SetGenerator switches the generation provider and model.
	SetGenerator(provider domain.AIProvider, model, apiKey string) error

	// Validate checks that the current settings can build a pipeline.
	Validate() error
}
