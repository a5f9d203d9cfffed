package driven

import (
	"context"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

// ChapterStore persists chapter analyses in normalised relational form.
type ChapterStore interface {
	// Save validates referential invariants, then replaces any stored chapter
	// with the same id inside one transaction. Violations return a
	// *domain.ValidationError before any write; commit failures return a
	// *domain.StorageError and leave the store unchanged.
	Save(ctx context.Context, chapter *domain.ChapterAnalysis) error

	// Load reconstructs a chapter. Returns domain.ErrNotFound if absent.
	Load(ctx context.Context, chapterID string) (*domain.ChapterAnalysis, error)

	// List returns summaries with live-computed counts, newest first.
	List(ctx context.Context) ([]domain.ChapterSummary, error)

	// Delete removes a chapter and its dependent rows.
	// Returns false when no chapter had that id.
	Delete(ctx context.Context, chapterID string) (bool, error)

	// QueryByBloom returns a chapter's propositions at one bloom level.
	QueryByBloom(ctx context.Context, chapterID string, level domain.BloomLevel) ([]domain.Proposition, error)

	// TakeawaysForUnit returns the takeaways attached to one section.
	TakeawaysForUnit(ctx context.Context, chapterID, unitID string) ([]domain.KeyTakeaway, error)

	// Close releases resources.
	Close() error
}
