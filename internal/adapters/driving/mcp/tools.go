package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

// DigestTextInput is the input schema for the digest_text tool.
type DigestTextInput struct {
	Text         string `json:"text" jsonschema:"the full chapter text, at least 100 characters"`
	BookID       string `json:"book_id,omitempty" jsonschema:"book identifier (default unknown_book)"`
	ChapterID    string `json:"chapter_id,omitempty" jsonschema:"chapter identifier, generated when empty"`
	ChapterTitle string `json:"chapter_title,omitempty" jsonschema:"chapter title (default Untitled Chapter)"`
	Wait         bool   `json:"wait,omitempty" jsonschema:"block until the digest finishes"`
}

// JobOutput is the tool view of a digest job.
type JobOutput struct {
	JobID        string `json:"job_id"`
	ChapterID    string `json:"chapter_id"`
	ChapterTitle string `json:"chapter_title"`
	State        string `json:"state"`
	Error        string `json:"error,omitempty"`
	Analysed     bool   `json:"analysed"`
	Saved        bool   `json:"saved"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// JobStatusInput is the input schema for the job_status tool.
type JobStatusInput struct {
	JobID string `json:"job_id" jsonschema:"the job id returned by digest_text"`
	From  int    `json:"from,omitempty" jsonschema:"first event index to return (default 0)"`
}

// EventOutput is one progress event.
type EventOutput struct {
	Index   int    `json:"index"`
	Phase   string `json:"phase"`
	Message string `json:"message"`
	Status  string `json:"status"`
	Time    string `json:"time"`
}

// JobStatusOutput is the output schema for the job_status tool.
type JobStatusOutput struct {
	Job    JobOutput     `json:"job"`
	Events []EventOutput `json:"events"`
}

// ChapterInput selects a stored chapter.
type ChapterInput struct {
	ChapterID string `json:"chapter_id" jsonschema:"the chapter id"`
}

// ChapterOutput is the output schema for the get_chapter tool.
type ChapterOutput struct {
	Chapter *domain.ChapterAnalysis `json:"chapter"`
}

// ListChaptersInput is the (empty) input schema for the list_chapters tool.
type ListChaptersInput struct{}

// ChapterItem is one row of list_chapters.
type ChapterItem struct {
	ChapterID        string `json:"chapter_id"`
	ChapterTitle     string `json:"chapter_title"`
	BookID           string `json:"book_id"`
	CreatedAt        string `json:"created_at"`
	PropositionCount int    `json:"proposition_count"`
	TakeawayCount    int    `json:"takeaway_count"`
}

// ListChaptersOutput is the output schema for the list_chapters tool.
type ListChaptersOutput struct {
	Chapters []ChapterItem `json:"chapters"`
	Count    int           `json:"count"`
}

// QueryPropositionsInput is the input schema for the query_propositions tool.
type QueryPropositionsInput struct {
	ChapterID  string `json:"chapter_id" jsonschema:"the chapter id"`
	BloomLevel string `json:"bloom_level" jsonschema:"one of remember, understand, apply, analyze"`
}

// QueryPropositionsOutput is the output schema for the query_propositions tool.
type QueryPropositionsOutput struct {
	Propositions []domain.Proposition `json:"propositions"`
	Count        int                  `json:"count"`
}

// DeleteChapterOutput is the output schema for the delete_chapter tool.
type DeleteChapterOutput struct {
	Deleted bool `json:"deleted"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "digest_text",
		Description: "Start a digest of chapter text into sections, propositions and key takeaways",
	}, s.handleDigestText)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "job_status",
		Description: "Report the state and progress events of a digest job",
	}, s.handleJobStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_chapter",
		Description: "Fetch a stored chapter analysis",
	}, s.handleGetChapter)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_chapters",
		Description: "List stored chapter analyses",
	}, s.handleListChapters)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "query_propositions",
		Description: "List a chapter's propositions at one Bloom level",
	}, s.handleQueryPropositions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_chapter",
		Description: "Delete a stored chapter analysis",
	}, s.handleDeleteChapter)
}

func (s *Server) handleDigestText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DigestTextInput,
) (*mcp.CallToolResult, JobOutput, error) {
	if s.ports.Jobs == nil {
		return nil, JobOutput{}, ErrJobsUnavailable
	}

	job, err := s.ports.Jobs.Submit(ctx, domain.DigestRequest{
		Text:         input.Text,
		BookID:       input.BookID,
		ChapterID:    input.ChapterID,
		ChapterTitle: input.ChapterTitle,
	})
	if err != nil {
		return nil, JobOutput{}, err
	}

	if input.Wait {
		job, err = s.ports.Jobs.Wait(ctx, job.ID)
		if err != nil {
			return nil, JobOutput{}, fmt.Errorf("waiting for job: %w", err)
		}
	}

	return nil, toJobOutput(job), nil
}

func (s *Server) handleJobStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input JobStatusInput,
) (*mcp.CallToolResult, JobStatusOutput, error) {
	if s.ports.Jobs == nil {
		return nil, JobStatusOutput{}, ErrJobsUnavailable
	}

	job, err := s.ports.Jobs.Get(ctx, input.JobID)
	if err != nil {
		return nil, JobStatusOutput{}, err
	}
	events, err := s.ports.Jobs.Events(ctx, input.JobID, input.From)
	if err != nil {
		return nil, JobStatusOutput{}, err
	}

	output := JobStatusOutput{
		Job:    toJobOutput(job),
		Events: make([]EventOutput, len(events)),
	}
	for i, ev := range events {
		output.Events[i] = EventOutput{
			Index:   ev.Index,
			Phase:   ev.Phase.String(),
			Message: ev.Message,
			Status:  string(ev.Status),
			Time:    ev.Time.UTC().Format(time.RFC3339),
		}
	}
	return nil, output, nil
}

func (s *Server) handleGetChapter(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChapterInput,
) (*mcp.CallToolResult, ChapterOutput, error) {
	chapter, err := s.ports.Chapters.Get(ctx, input.ChapterID)
	if err != nil {
		return nil, ChapterOutput{}, err
	}
	return nil, ChapterOutput{Chapter: chapter}, nil
}

func (s *Server) handleListChapters(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListChaptersInput,
) (*mcp.CallToolResult, ListChaptersOutput, error) {
	summaries, err := s.ports.Chapters.List(ctx)
	if err != nil {
		return nil, ListChaptersOutput{}, fmt.Errorf("listing chapters: %w", err)
	}

	output := ListChaptersOutput{
		Chapters: make([]ChapterItem, len(summaries)),
		Count:    len(summaries),
	}
	for i := range summaries {
		output.Chapters[i] = ChapterItem{
			ChapterID:        summaries[i].ChapterID,
			ChapterTitle:     summaries[i].ChapterTitle,
			BookID:           summaries[i].BookID,
			CreatedAt:        summaries[i].CreatedAt.UTC().Format(time.RFC3339),
			PropositionCount: summaries[i].PropositionCount,
			TakeawayCount:    summaries[i].TakeawayCount,
		}
	}
	return nil, output, nil
}

func (s *Server) handleQueryPropositions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryPropositionsInput,
) (*mcp.CallToolResult, QueryPropositionsOutput, error) {
	props, err := s.ports.Chapters.QueryByBloom(ctx, input.ChapterID, domain.BloomLevel(input.BloomLevel))
	if err != nil {
		return nil, QueryPropositionsOutput{}, err
	}
	if props == nil {
		props = []domain.Proposition{}
	}
	return nil, QueryPropositionsOutput{Propositions: props, Count: len(props)}, nil
}

func (s *Server) handleDeleteChapter(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChapterInput,
) (*mcp.CallToolResult, DeleteChapterOutput, error) {
	deleted, err := s.ports.Chapters.Delete(ctx, input.ChapterID)
	if err != nil {
		return nil, DeleteChapterOutput{}, fmt.Errorf("deleting chapter: %w", err)
	}
	return nil, DeleteChapterOutput{Deleted: deleted}, nil
}

func toJobOutput(job *domain.Job) JobOutput {
	return JobOutput{
		JobID:        job.ID,
		ChapterID:    job.ChapterID,
		ChapterTitle: job.Title,
		State:        job.State.String(),
		Error:        job.Error,
		Analysed:     job.Analysed,
		Saved:        job.Saved,
		CreatedAt:    job.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    job.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
