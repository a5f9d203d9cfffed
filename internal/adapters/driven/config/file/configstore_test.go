package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, env map[string]string) *ConfigStore {
	t.Helper()
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	store.lookup = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	return store
}

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_NestedDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	_, err := NewConfigStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewConfigStore_CorruptedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(dir)
	assert.Error(t, err)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, store.Set("generator.model", "gpt-4o"))
	require.NoError(t, store.Set("pipeline.chunk_words", 1500))
	require.NoError(t, store.Set("pipeline.structure_temperature", 0.15))
	require.NoError(t, store.Set("pipeline.chapter_synthesis", true))

	assert.Equal(t, "gpt-4o", store.GetString("generator.model"))
	assert.Equal(t, 1500, store.GetInt("pipeline.chunk_words"))
	assert.InDelta(t, 0.15, store.GetFloat("pipeline.structure_temperature"), 1e-9)
	assert.InDelta(t, 1500.0, store.GetFloat("pipeline.chunk_words"), 1e-9)
	assert.True(t, store.GetBool("pipeline.chapter_synthesis"))

	// Wrong types and missing keys read as zero values.
	assert.Empty(t, store.GetString("pipeline.chunk_words"))
	assert.Zero(t, store.GetInt("generator.model"))
	assert.Zero(t, store.GetFloat("missing"))
	assert.False(t, store.GetBool("generator.model"))
	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_PersistsNestedTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("generator.provider", "ollama"))
	require.NoError(t, store.Set("jobs.ttl_minutes", 5))
	require.NoError(t, store.Set("pipeline.extraction_temperature", 0.25))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[generator]")
	assert.Contains(t, string(data), "[jobs]")

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "ollama", reloaded.GetString("generator.provider"))
	assert.Equal(t, 5, reloaded.GetInt("jobs.ttl_minutes"))
	assert.InDelta(t, 0.25, reloaded.GetFloat("pipeline.extraction_temperature"), 1e-9)
}

func TestConfigStore_EnvironmentOverrides(t *testing.T) {
	store := newTestStore(t, map[string]string{
		"DIGEST_GENERATOR_MODEL":               "llama3.1",
		"DIGEST_PIPELINE_SECTION_CONCURRENCY":  "4",
		"DIGEST_PIPELINE_CHAPTER_SYNTHESIS":    "true",
		"DIGEST_GENERATOR_REQUESTS_PER_SECOND": "1.5",
	})
	require.NoError(t, store.Set("generator.model", "gpt-4o"))

	assert.Equal(t, "llama3.1", store.GetString("generator.model"))
	assert.Equal(t, 4, store.GetInt("pipeline.section_concurrency"))
	assert.True(t, store.GetBool("pipeline.chapter_synthesis"))
	assert.InDelta(t, 1.5, store.GetFloat("generator.requests_per_second"), 1e-9)

	// Overrides are never written to the file.
	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "gpt-4o")
	assert.NotContains(t, string(data), "llama3.1")
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store := newTestStore(t, nil)
	require.NoError(t, store.Set("generator.api_key", "sk"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := newTestStore(t, nil)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("pipeline.chunk_words", n)
			_ = store.GetInt("pipeline.chunk_words")
		}(i)
	}
	wg.Wait()

	_, ok := store.Get("pipeline.chunk_words")
	assert.True(t, ok)
}

func TestNestMap(t *testing.T) {
	nested := nestMap(map[string]any{
		"a.b":   1,
		"a.c.d": "x",
		"top":   true,
	})
	assert.Equal(t, map[string]any{
		"a":   map[string]any{"b": 1, "c": map[string]any{"d": "x"}},
		"top": true,
	}, nested)
	assert.Equal(t, map[string]any{"a.b": 1, "a.c.d": "x", "top": true}, flattenMap(nested, ""))
}
