package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

func TestExtractChapterID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid chapter URI", uri: "digest://chapters/ch_1a2b3c4d", expected: "ch_1a2b3c4d"},
		{name: "invalid prefix", uri: "file://chapters/ch_1", expected: ""},
		{name: "nested path", uri: "digest://chapters/ch_1/extra", expected: ""},
		{name: "listing URI", uri: "digest://chapters", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractChapterID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleChaptersResource(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store returns empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{Chapters: &mockChapterService{}})

		result, err := server.handleChaptersResource(ctx, makeReadResourceRequest("digest://chapters"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("lists chapters", func(t *testing.T) {
		chapters := &mockChapterService{summaries: []domain.ChapterSummary{
			{ChapterID: "ch_1", ChapterTitle: "Tides"},
		}}
		server := newTestServer(t, &Ports{Chapters: chapters})

		result, err := server.handleChaptersResource(ctx, makeReadResourceRequest("digest://chapters"))

		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, `"chapter_id": "ch_1"`)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("list failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Chapters: &mockChapterService{err: errors.New("db down")}})

		_, err := server.handleChaptersResource(ctx, makeReadResourceRequest("digest://chapters"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing chapters")
	})
}

func TestServer_handleChapterResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns chapter JSON", func(t *testing.T) {
		server := newTestServer(t, &Ports{Chapters: &mockChapterService{chapter: testChapter()}})

		result, err := server.handleChapterResource(ctx, makeReadResourceRequest("digest://chapters/ch_0001"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"proposition_id": "ch_0001_1_p001"`)
		assert.Contains(t, result.Contents[0].Text, `"dominant_bloom_level": "evaluate"`)
	})

	t.Run("unknown chapter is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Chapters: &mockChapterService{err: domain.ErrNotFound}})

		_, err := server.handleChapterResource(ctx, makeReadResourceRequest("digest://chapters/nope"))

		require.Error(t, err)
		assert.NotContains(t, err.Error(), "loading chapter")
	})

	t.Run("invalid URI is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{Chapters: &mockChapterService{chapter: testChapter()}})

		_, err := server.handleChapterResource(ctx, makeReadResourceRequest("digest://other/x"))

		require.Error(t, err)
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		server := newTestServer(t, &Ports{Chapters: &mockChapterService{err: errors.New("db down")}})

		_, err := server.handleChapterResource(ctx, makeReadResourceRequest("digest://chapters/ch_1"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "loading chapter")
	})
}
