package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
)

// Ensure ChapterStore implements the interface.
var _ driven.ChapterStore = (*ChapterStore)(nil)

// ChapterStore is an in-memory implementation of driven.ChapterStore for
// tests and dry runs. Stored chapters are deep copies.
type ChapterStore struct {
	mu       sync.RWMutex
	chapters map[string]storedChapter

	// FailSave, when set, is returned by Save after validation and before
	// any write.
	FailSave error
}

type storedChapter struct {
	data      []byte
	createdAt time.Time
}

// NewChapterStore creates a new in-memory chapter store.
func NewChapterStore() *ChapterStore {
	return &ChapterStore{chapters: make(map[string]storedChapter)}
}

// Save validates and replaces the chapter.
func (s *ChapterStore) Save(_ context.Context, chapter *domain.ChapterAnalysis) error {
	if chapter == nil {
		return domain.ErrInvalidInput
	}
	if err := chapter.Validate(); err != nil {
		return err
	}
	if s.FailSave != nil {
		return &domain.StorageError{Op: "save", ChapterID: chapter.ChapterID, Cause: s.FailSave}
	}

	data, err := json.Marshal(chapter)
	if err != nil {
		return &domain.StorageError{Op: "save", ChapterID: chapter.ChapterID, Cause: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chapters[chapter.ChapterID] = storedChapter{data: data, createdAt: time.Now()}
	return nil
}

// Load returns a copy of a stored chapter with sections ordered by
// (level, unit_id).
func (s *ChapterStore) Load(_ context.Context, chapterID string) (*domain.ChapterAnalysis, error) {
	s.mu.RLock()
	stored, ok := s.chapters[chapterID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return decode(chapterID, stored.data)
}

// List returns summaries, newest first.
func (s *ChapterStore) List(_ context.Context) ([]domain.ChapterSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ChapterSummary, 0, len(s.chapters))
	for id, stored := range s.chapters {
		c, err := decode(id, stored.data)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.ChapterSummary{
			ChapterID:        c.ChapterID,
			ChapterTitle:     c.ChapterTitle,
			BookID:           c.BookID,
			CreatedAt:        stored.createdAt,
			PropositionCount: len(c.Content.Propositions),
			TakeawayCount:    len(c.Content.KeyTakeaways),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a chapter.
func (s *ChapterStore) Delete(_ context.Context, chapterID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chapters[chapterID]; !ok {
		return false, nil
	}
	delete(s.chapters, chapterID)
	return true, nil
}

// QueryByBloom returns propositions at one level, in stored order.
func (s *ChapterStore) QueryByBloom(
	ctx context.Context,
	chapterID string,
	level domain.BloomLevel,
) ([]domain.Proposition, error) {
	c, err := s.Load(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	var out []domain.Proposition
	for _, p := range c.Content.Propositions {
		if p.BloomLevel == level {
			out = append(out, p)
		}
	}
	return out, nil
}

// TakeawaysForUnit returns the takeaways attached to one section.
func (s *ChapterStore) TakeawaysForUnit(
	ctx context.Context,
	chapterID, unitID string,
) ([]domain.KeyTakeaway, error) {
	c, err := s.Load(ctx, chapterID)
	if err != nil {
		return nil, err
	}
	var out []domain.KeyTakeaway
	for _, t := range c.Content.KeyTakeaways {
		if t.UnitID != nil && *t.UnitID == unitID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Close is a no-op.
func (s *ChapterStore) Close() error {
	return nil
}

func decode(chapterID string, data []byte) (*domain.ChapterAnalysis, error) {
	var c domain.ChapterAnalysis
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, &domain.StorageError{Op: "load", ChapterID: chapterID, Cause: fmt.Errorf("decode: %w", err)}
	}
	sections := c.Structure.Sections
	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].Level != sections[j].Level {
			return sections[i].Level < sections[j].Level
		}
		return sections[i].UnitID < sections[j].UnitID
	})
	return &c, nil
}
