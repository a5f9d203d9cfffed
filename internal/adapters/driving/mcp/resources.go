package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

const uriScheme = "digest://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "chapters",
		Name:        "chapters",
		Description: "Stored chapter analyses",
		MIMEType:    "application/json",
	}, s.handleChaptersResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "chapters/{chapterId}",
		Name:        "chapter",
		Description: "A stored chapter analysis with its structure, propositions and takeaways",
		MIMEType:    "application/json",
	}, s.handleChapterResource)
}

func (s *Server) handleChaptersResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	summaries, err := s.ports.Chapters.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing chapters: %w", err)
	}
	if summaries == nil {
		summaries = []domain.ChapterSummary{}
	}
	return jsonResource(req.Params.URI, summaries)
}

func (s *Server) handleChapterResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	chapterID := extractChapterID(req.Params.URI)
	if chapterID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	chapter, err := s.ports.Chapters.Get(ctx, chapterID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("loading chapter: %w", err)
	}
	return jsonResource(req.Params.URI, chapter)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractChapterID extracts the chapter ID from a URI like digest://chapters/{chapterId}.
func extractChapterID(uri string) string {
	const prefix = uriScheme + "chapters/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
