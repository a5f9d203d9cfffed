package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
)

// chapterStore implements driven.ChapterStore.
type chapterStore struct {
	store *Store
}

var _ driven.ChapterStore = (*chapterStore)(nil)

const selectPropositions = `
	SELECT proposition_id, unit_id, proposition_text, bloom_level,
	       bloom_verb, evidence_location, source_type
	FROM propositions WHERE chapter_id = ?`

const selectTakeaways = `
	SELECT takeaway_id, unit_id, takeaway_text, dominant_bloom_level
	FROM key_takeaways WHERE chapter_id = ?`

// Save validates the chapter and replaces any stored version in one
// transaction.
func (c *chapterStore) Save(ctx context.Context, chapter *domain.ChapterAnalysis) error {
	if chapter == nil {
		return domain.ErrInvalidInput
	}
	if err := chapter.Validate(); err != nil {
		return err
	}

	err := c.store.inTx(ctx, func(tx *sql.Tx) error {
		exec := func(query string, args ...any) error {
			_, err := tx.ExecContext(ctx, c.store.q(query), args...)
			return err
		}
		return c.insert(chapter, exec)
	})
	if err != nil {
		return &domain.StorageError{Op: "save", ChapterID: chapter.ChapterID, Cause: err}
	}
	return nil
}

// insert deletes the prior version, then writes every row of the chapter.
//
//nolint:gocyclo // One loop per table.
func (c *chapterStore) insert(ch *domain.ChapterAnalysis, exec func(string, ...any) error) error {
	id := ch.ChapterID

	if err := exec("DELETE FROM chapters WHERE chapter_id = ?", id); err != nil {
		return fmt.Errorf("deleting previous version: %w", err)
	}

	err := exec(`
		INSERT INTO chapters (chapter_id, schema_version, book_id, chapter_title, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, ch.SchemaVersion, ch.BookID, ch.ChapterTitle, ch.Structure.Summary, c.store.now().UnixNano())
	if err != nil {
		return fmt.Errorf("inserting chapter: %w", err)
	}

	for i, sec := range ch.Structure.Sections {
		err := exec(`
			INSERT INTO sections (chapter_id, unit_id, ord, title, level, parent_unit_id, start_location, end_location)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, sec.UnitID, i, sec.Title, sec.Level,
			nullable(sec.ParentUnitID), nullable(sec.StartLocation), nullable(sec.EndLocation))
		if err != nil {
			return fmt.Errorf("inserting section %s: %w", sec.UnitID, err)
		}
	}

	for i, e := range ch.Structure.KeyEntities {
		if err := exec("INSERT INTO entities (chapter_id, ord, name, entity_type) VALUES (?, ?, ?, ?)",
			id, i, e.Name, e.Type); err != nil {
			return fmt.Errorf("inserting entity %s: %w", e.Name, err)
		}
	}

	for i, kw := range ch.Structure.Keywords {
		if err := exec("INSERT INTO keywords (chapter_id, ord, keyword) VALUES (?, ?, ?)", id, i, kw); err != nil {
			return fmt.Errorf("inserting keyword %s: %w", kw, err)
		}
	}

	for i, p := range ch.Content.Propositions {
		err := exec(`
			INSERT INTO propositions (chapter_id, proposition_id, unit_id, ord, proposition_text,
			                          bloom_level, bloom_verb, evidence_location, source_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, p.PropositionID, p.UnitID, i, p.Text,
			p.BloomLevel.String(), p.BloomVerb, p.EvidenceLocation, p.SourceType)
		if err != nil {
			return fmt.Errorf("inserting proposition %s: %w", p.PropositionID, err)
		}
		for j, tag := range p.Tags {
			if err := exec("INSERT INTO proposition_tags (chapter_id, proposition_id, ord, tag) VALUES (?, ?, ?, ?)",
				id, p.PropositionID, j, tag); err != nil {
				return fmt.Errorf("inserting tag for %s: %w", p.PropositionID, err)
			}
		}
	}

	for i, t := range ch.Content.KeyTakeaways {
		var bloom any
		if t.DominantBloomLevel != nil {
			bloom = t.DominantBloomLevel.String()
		}
		err := exec(`
			INSERT INTO key_takeaways (chapter_id, takeaway_id, unit_id, ord, takeaway_text, dominant_bloom_level)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, t.TakeawayID, nullable(t.UnitID), i, t.Text, bloom)
		if err != nil {
			return fmt.Errorf("inserting takeaway %s: %w", t.TakeawayID, err)
		}
		for j, pid := range t.PropositionIDs {
			if err := exec(`
				INSERT INTO takeaway_propositions (chapter_id, takeaway_id, ord, proposition_id)
				VALUES (?, ?, ?, ?)`, id, t.TakeawayID, j, pid); err != nil {
				return fmt.Errorf("linking %s to %s: %w", t.TakeawayID, pid, err)
			}
		}
		for j, tag := range t.Tags {
			if err := exec("INSERT INTO takeaway_tags (chapter_id, takeaway_id, ord, tag) VALUES (?, ?, ?, ?)",
				id, t.TakeawayID, j, tag); err != nil {
				return fmt.Errorf("inserting tag for %s: %w", t.TakeawayID, err)
			}
		}
	}

	return nil
}

// Load reconstructs a chapter from its rows.
func (c *chapterStore) Load(ctx context.Context, chapterID string) (*domain.ChapterAnalysis, error) {
	ch := &domain.ChapterAnalysis{ChapterID: chapterID}
	var createdAt int64
	row := c.store.db.QueryRowContext(ctx, c.store.q(`
		SELECT schema_version, book_id, chapter_title, summary, created_at
		FROM chapters WHERE chapter_id = ?`), chapterID)
	err := row.Scan(&ch.SchemaVersion, &ch.BookID, &ch.ChapterTitle, &ch.Structure.Summary, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, loadError(chapterID, err)
	}

	if ch.Structure.Sections, err = c.sections(ctx, chapterID); err != nil {
		return nil, loadError(chapterID, err)
	}
	if ch.Structure.KeyEntities, err = c.entities(ctx, chapterID); err != nil {
		return nil, loadError(chapterID, err)
	}
	if ch.Structure.Keywords, err = c.keywords(ctx, chapterID); err != nil {
		return nil, loadError(chapterID, err)
	}
	if ch.Content.Propositions, err = c.propositions(ctx, chapterID, selectPropositions+" ORDER BY ord"); err != nil {
		return nil, loadError(chapterID, err)
	}
	if ch.Content.KeyTakeaways, err = c.takeaways(ctx, chapterID, selectTakeaways+" ORDER BY ord"); err != nil {
		return nil, loadError(chapterID, err)
	}
	return ch, nil
}

// List returns chapter summaries with counts computed at read time.
func (c *chapterStore) List(ctx context.Context) ([]domain.ChapterSummary, error) {
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT ch.chapter_id, ch.chapter_title, ch.book_id, ch.created_at,
		       (SELECT COUNT(*) FROM propositions p WHERE p.chapter_id = ch.chapter_id),
		       (SELECT COUNT(*) FROM key_takeaways t WHERE t.chapter_id = ch.chapter_id)
		FROM chapters ch
		ORDER BY ch.created_at DESC, ch.chapter_id`)
	if err != nil {
		return nil, fmt.Errorf("querying chapters: %w", err)
	}
	defer rows.Close()

	var out []domain.ChapterSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var sum domain.ChapterSummary
		var createdAt int64
		if err := rows.Scan(&sum.ChapterID, &sum.ChapterTitle, &sum.BookID, &createdAt,
			&sum.PropositionCount, &sum.TakeawayCount); err != nil {
			return nil, fmt.Errorf("scanning chapter: %w", err)
		}
		sum.CreatedAt = time.Unix(0, createdAt)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chapters: %w", err)
	}
	return out, nil
}

// Delete removes a chapter; dependent rows cascade.
func (c *chapterStore) Delete(ctx context.Context, chapterID string) (bool, error) {
	res, err := c.store.db.ExecContext(ctx, c.store.q("DELETE FROM chapters WHERE chapter_id = ?"), chapterID)
	if err != nil {
		return false, &domain.StorageError{Op: "delete", ChapterID: chapterID, Cause: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &domain.StorageError{Op: "delete", ChapterID: chapterID, Cause: err}
	}
	return n > 0, nil
}

// QueryByBloom returns propositions at one level in stored order.
func (c *chapterStore) QueryByBloom(
	ctx context.Context,
	chapterID string,
	level domain.BloomLevel,
) ([]domain.Proposition, error) {
	if err := c.exists(ctx, chapterID); err != nil {
		return nil, err
	}
	props, err := c.propositions(ctx, chapterID,
		selectPropositions+" AND bloom_level = ? ORDER BY ord", level.String())
	if err != nil {
		return nil, loadError(chapterID, err)
	}
	return props, nil
}

// TakeawaysForUnit returns the takeaways attached to one section.
func (c *chapterStore) TakeawaysForUnit(
	ctx context.Context,
	chapterID, unitID string,
) ([]domain.KeyTakeaway, error) {
	if err := c.exists(ctx, chapterID); err != nil {
		return nil, err
	}
	takeaways, err := c.takeaways(ctx, chapterID, selectTakeaways+" AND unit_id = ? ORDER BY ord", unitID)
	if err != nil {
		return nil, loadError(chapterID, err)
	}
	return takeaways, nil
}

// Close closes the underlying store.
func (c *chapterStore) Close() error {
	return c.store.Close()
}

func (c *chapterStore) exists(ctx context.Context, chapterID string) error {
	var one int
	err := c.store.db.QueryRowContext(ctx,
		c.store.q("SELECT 1 FROM chapters WHERE chapter_id = ?"), chapterID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return loadError(chapterID, err)
	}
	return nil
}

func (c *chapterStore) sections(ctx context.Context, chapterID string) ([]domain.Section, error) {
	rows, err := c.store.db.QueryContext(ctx, c.store.q(`
		SELECT unit_id, title, level, parent_unit_id, start_location, end_location
		FROM sections WHERE chapter_id = ?
		ORDER BY level, unit_id`), chapterID)
	if err != nil {
		return nil, fmt.Errorf("querying sections: %w", err)
	}
	defer rows.Close()

	var out []domain.Section
	for rows.Next() {
		var s domain.Section
		var parent, start, end sql.NullString
		if err := rows.Scan(&s.UnitID, &s.Title, &s.Level, &parent, &start, &end); err != nil {
			return nil, fmt.Errorf("scanning section: %w", err)
		}
		s.ParentUnitID, s.StartLocation, s.EndLocation = ptr(parent), ptr(start), ptr(end)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *chapterStore) entities(ctx context.Context, chapterID string) ([]domain.Entity, error) {
	rows, err := c.store.db.QueryContext(ctx,
		c.store.q("SELECT name, entity_type FROM entities WHERE chapter_id = ? ORDER BY ord"), chapterID)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	var out []domain.Entity
	for rows.Next() {
		var e domain.Entity
		if err := rows.Scan(&e.Name, &e.Type); err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (c *chapterStore) keywords(ctx context.Context, chapterID string) ([]string, error) {
	rows, err := c.store.db.QueryContext(ctx,
		c.store.q("SELECT keyword FROM keywords WHERE chapter_id = ? ORDER BY ord"), chapterID)
	if err != nil {
		return nil, fmt.Errorf("querying keywords: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// propositions runs a selectPropositions query and attaches tags.
func (c *chapterStore) propositions(
	ctx context.Context,
	chapterID, query string,
	args ...any,
) ([]domain.Proposition, error) {
	rows, err := c.store.db.QueryContext(ctx, c.store.q(query), append([]any{chapterID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("querying propositions: %w", err)
	}
	defer rows.Close()

	var out []domain.Proposition
	for rows.Next() {
		p := domain.Proposition{ChapterID: chapterID}
		var bloom string
		if err := rows.Scan(&p.PropositionID, &p.UnitID, &p.Text, &bloom,
			&p.BloomVerb, &p.EvidenceLocation, &p.SourceType); err != nil {
			return nil, fmt.Errorf("scanning proposition: %w", err)
		}
		p.BloomLevel = domain.BloomLevel(bloom)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating propositions: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	tags, err := c.grouped(ctx, `
		SELECT proposition_id, tag FROM proposition_tags
		WHERE chapter_id = ? ORDER BY proposition_id, ord`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("querying proposition tags: %w", err)
	}
	for i := range out {
		out[i].Tags = tags[out[i].PropositionID]
	}
	return out, nil
}

// takeaways runs a selectTakeaways query and attaches proposition ids and tags.
func (c *chapterStore) takeaways(
	ctx context.Context,
	chapterID, query string,
	args ...any,
) ([]domain.KeyTakeaway, error) {
	rows, err := c.store.db.QueryContext(ctx, c.store.q(query), append([]any{chapterID}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("querying takeaways: %w", err)
	}
	defer rows.Close()

	var out []domain.KeyTakeaway
	for rows.Next() {
		t := domain.KeyTakeaway{ChapterID: chapterID}
		var unit, bloom sql.NullString
		if err := rows.Scan(&t.TakeawayID, &unit, &t.Text, &bloom); err != nil {
			return nil, fmt.Errorf("scanning takeaway: %w", err)
		}
		t.UnitID = ptr(unit)
		if bloom.Valid {
			level := domain.BloomLevel(bloom.String)
			t.DominantBloomLevel = &level
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating takeaways: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	links, err := c.grouped(ctx, `
		SELECT takeaway_id, proposition_id FROM takeaway_propositions
		WHERE chapter_id = ? ORDER BY takeaway_id, ord`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("querying takeaway propositions: %w", err)
	}
	tags, err := c.grouped(ctx, `
		SELECT takeaway_id, tag FROM takeaway_tags
		WHERE chapter_id = ? ORDER BY takeaway_id, ord`, chapterID)
	if err != nil {
		return nil, fmt.Errorf("querying takeaway tags: %w", err)
	}
	for i := range out {
		out[i].PropositionIDs = links[out[i].TakeawayID]
		out[i].Tags = tags[out[i].TakeawayID]
	}
	return out, nil
}

// grouped runs a two-column query and groups the second column by the first.
func (c *chapterStore) grouped(ctx context.Context, query, chapterID string) (map[string][]string, error) {
	rows, err := c.store.db.QueryContext(ctx, c.store.q(query), chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var key, val string
		if err := rows.Scan(&key, &val); err != nil {
			return nil, err
		}
		out[key] = append(out[key], val)
	}
	return out, rows.Err()
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func loadError(chapterID string, err error) error {
	return &domain.StorageError{Op: "load", ChapterID: chapterID, Cause: err}
}

// nullable converts an optional string to a bind value.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func ptr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
