package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DigestRequest is the caller's input for one digest run.
type DigestRequest struct {
	// Text is the chapter text, already decoded.
	Text string

	// BookID defaults to DefaultBookID.
	BookID string

	// ChapterID is generated when empty.
	ChapterID string

	// ChapterTitle defaults to DefaultChapterTitle.
	ChapterTitle string

	// SourceName is the uploaded file name, if any.
	SourceName string
}

// Job tracks one digest run.
type Job struct {
	ID        string    `json:"id"`
	ChapterID string    `json:"chapter_id"`
	Title     string    `json:"chapter_title"`
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Analysed is set once the analysis validated, even if saving failed.
	Analysed bool `json:"analysed"`

	// Saved is set once the analysis is committed to the chapter store.
	Saved bool `json:"saved"`
}

// IsDone reports whether the job reached a terminal state.
func (j *Job) IsDone() bool {
	return j.State.IsTerminal()
}

// MinTextLength is the shortest trimmed text accepted for digestion.
const MinTextLength = 100

// Validate rejects requests whose text cannot be digested.
// It returns a *ExtractionInputError.
func (r DigestRequest) Validate() error {
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return &ExtractionInputError{Reason: "text is empty"}
	}
	if n := utf8.RuneCountInString(text); n < MinTextLength {
		return &ExtractionInputError{
			Reason: fmt.Sprintf("text is %d characters, at least %d required", n, MinTextLength),
		}
	}
	return nil
}

// WithDefaults fills in book id and chapter title when absent.
func (r DigestRequest) WithDefaults() DigestRequest {
	if strings.TrimSpace(r.BookID) == "" {
		r.BookID = DefaultBookID
	}
	if strings.TrimSpace(r.ChapterTitle) == "" {
		r.ChapterTitle = DefaultChapterTitle
	}
	return r
}
