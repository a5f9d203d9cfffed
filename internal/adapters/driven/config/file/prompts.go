package file

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

//go:embed defaults/*.txt
var defaultFS embed.FS

// PromptStore loads system prompts from user-editable files, one
// <name>.txt per prompt, falling back to the embedded defaults.
//
// Nothing touches the disk until the first Load.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.digest/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// DefaultPrompt returns the embedded default for name.
func DefaultPrompt(name string) (string, bool) {
	data, err := defaultFS.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// Names lists the prompts that have embedded defaults, sorted.
func Names() []string {
	entries, _ := fs.ReadDir(defaultFS, "defaults")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".txt"))
	}
	sort.Strings(names)
	return names
}

// Load returns the prompt for name: the user's file if present and
// non-empty, otherwise the embedded default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	s.mu.RLock()
	prompt, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return prompt, nil
	}

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		if def, ok := DefaultPrompt(name); ok {
			return def, nil
		}
		if err == nil {
			err = fmt.Errorf("file is empty")
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Reset overwrites the user's file for name with the embedded default.
func (s *PromptStore) Reset(name string) error {
	def, ok := DefaultPrompt(name)
	if !ok {
		return fmt.Errorf("unknown prompt %q", name)
	}
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	if err := os.WriteFile(s.path(name), []byte(def+"\n"), 0600); err != nil {
		return fmt.Errorf("write prompt %q: %w", name, err)
	}
	s.Reload()
	return nil
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Err reports a failure to create the prompt directory or default files.
// Load keeps working from embedded defaults in that case.
func (s *PromptStore) Err() error {
	s.initOnce.Do(s.initialise)
	return s.initErr
}

func (s *PromptStore) path(name string) string {
	return filepath.Join(s.promptDir, name+".txt")
}

// initialise writes any missing default files and the README.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for _, name := range Names() {
		if _, err := os.Stat(s.path(name)); !os.IsNotExist(err) {
			continue
		}
		def, _ := DefaultPrompt(name)
		if err := os.WriteFile(s.path(name), []byte(def+"\n"), 0600); err != nil {
			s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
			return
		}
	}

	readme := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(readme); os.IsNotExist(err) {
		if err := os.WriteFile(readme, []byte(readmeText), 0600); err != nil {
			s.initErr = fmt.Errorf("create prompt README: %w", err)
		}
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

const readmeText = `# Digest prompts

System prompts used by each generation pass of ` + "`digest run`" + `.

- ` + "`structure_system.txt`" + ` maps the chapter outline
- ` + "`extraction_system.txt`" + ` extracts propositions from one section
- ` + "`synthesis_system.txt`" + ` synthesises key takeaways for one section

Edit a file to change the pass. Delete it, or run ` + "`digest prompts reset <name>`" + `,
to restore the default. Prompts are plain text with no placeholders; the
section text, ids and target counts are sent in the user message.
`
