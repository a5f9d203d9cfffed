package cli

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

func TestJobsCmd(t *testing.T) {
	env, cleanup := setupTestEnv()
	defer cleanup()

	out, err := run(t, "jobs")
	require.NoError(t, err)
	assert.Contains(t, out, "No jobs.")

	job, err := env.jobs.Submit(context.Background(), domain.DigestRequest{Text: chapterText, ChapterID: "ch_j"})
	require.NoError(t, err)
	_, err = env.jobs.Wait(context.Background(), job.ID)
	require.NoError(t, err)

	out, err = run(t, "jobs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, job.ID)
	assert.Contains(t, out, "completed")

	out, err = run(t, "jobs", "show", job.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Chapter: ch_j (Untitled Chapter)")
	assert.Contains(t, out, "Saved:   true")
	assert.Contains(t, out, "Analyzing chapter structure...")
	assert.Contains(t, out, "Analysis complete")

	_, err = run(t, "jobs", "show", "nope")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	_, err = run(t, "jobs", "cancel", "nope")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	out, err = run(t, "jobs", "cancel", job.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancellation requested")
}

func TestPromptsCmd(t *testing.T) {
	env, cleanup := setupTestEnv()
	defer cleanup()

	out, err := run(t, "prompts", "path")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/digest/prompts\n", out)

	out, err = run(t, "prompts", "reset", "structure_user")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset structure_user")
	assert.Equal(t, []string{"structure_user"}, env.prompts.reset)

	_, err = run(t, "prompts", "reset", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown prompt "bogus"`)

	env.prompts.reset = nil
	_, err = run(t, "prompts", "reset")
	require.NoError(t, err)
	assert.Equal(t, []string{"structure_system", "structure_user"}, env.prompts.reset)

	promptAdmin = nil
	_, err = run(t, "prompts", "path")
	assert.EqualError(t, err, "prompt store not configured")
}

func TestSettingsShowCmd(t *testing.T) {
	env, cleanup := setupTestEnv()
	defer cleanup()
	env.settings.settings.Generator.APIKey = "sk-1234567890abcdef"

	out, err := run(t, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[Generator]")
	assert.Contains(t, out, "OpenAI (cloud)")
	assert.Contains(t, out, "sk-1...cdef")
	assert.Contains(t, out, "Chunk words: 3000")
	assert.Contains(t, out, "Driver: sqlite")
	assert.Contains(t, out, "Store: memory")
	assert.Contains(t, out, "Configuration is valid.")

	env.settings.validateErr = domain.ErrGeneratorUnavailable
	out, err = run(t, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "Warning:")
	assert.Contains(t, out, "digest settings generator")
}

func TestSettingsGeneratorCmd(t *testing.T) {
	env, cleanup := setupTestEnv()
	defer cleanup()

	providers := domain.AllProviders()
	choice := 0
	for i, p := range providers {
		if p == domain.AIProviderOllama {
			choice = i + 1
		}
	}
	require.NotZero(t, choice)

	input := strings.NewReader(strings.Join([]string{strconv.Itoa(choice), "llama3.1"}, "\n") + "\n")
	out, err := execute(t, context.Background(), input, "settings", "generator")
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, env.settings.provider)
	assert.Equal(t, "llama3.1", env.settings.model)
	assert.Contains(t, out, "Generator configured: Ollama (local) (llama3.1)")
}

func TestSettingsCmd_WithoutService(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	settingsService = nil

	_, err := run(t, "settings", "show")
	assert.EqualError(t, err, "settings service not configured")
}

func TestSupportsFile(t *testing.T) {
	supports := supportsFile([]string{".txt", ".PDF"})
	assert.True(t, supports("a.txt"))
	assert.True(t, supports("A.TXT"))
	assert.True(t, supports("b.pdf"))
	assert.False(t, supports("c.docx"))
	assert.False(t, supports("noext"))
}

func TestWatchCmd_DigestsExistingFiles(t *testing.T) {
	env, cleanup := setupTestEnv()
	defer cleanup()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tides.txt"), []byte(chapterText), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "short.txt"), []byte("too short"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("png"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(300 * time.Millisecond)
		cancel()
	}()

	out, err := execute(t, ctx, strings.NewReader(""), "watch", dir, "--existing", "--book", "sea")
	require.NoError(t, err)
	assert.Contains(t, out, "tides.txt -> job")
	assert.Contains(t, out, "skipping short.txt")
	assert.NotContains(t, out, "image.png")

	chapters, err := env.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	assert.Equal(t, "sea", chapters[0].BookID)
	assert.Equal(t, "tides", chapters[0].ChapterTitle)
}

func TestWatchCmd_MissingDirectory(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	_, err := run(t, "watch", "/no/such/dir")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root path error")
}
