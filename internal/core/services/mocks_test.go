package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
)

// --- Fake generator ---

// fakeGenerator answers each call through respond and records requests.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   []driven.GenerateRequest
	respond func(req driven.GenerateRequest) (json.RawMessage, error)
}

func (f *fakeGenerator) GenerateStructured(ctx context.Context, req driven.GenerateRequest) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.respond(req)
}

func (f *fakeGenerator) ModelName() string          { return "fake" }
func (f *fakeGenerator) Ping(context.Context) error { return nil }
func (f *fakeGenerator) Close() error               { return nil }

func (f *fakeGenerator) callsFor(schemaName string) []driven.GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []driven.GenerateRequest
	for _, c := range f.calls {
		if c.SchemaName == schemaName {
			out = append(out, c)
		}
	}
	return out
}

var (
	unitIDPattern  = regexp.MustCompile(`unit_id "([^"]+)"`)
	propRefPattern = regexp.MustCompile(`(?m)^- \[([^\]]+)\]`)
)

// unitFromPrompt returns the unit id the prompt asks for.
func unitFromPrompt(prompt string) string {
	if m := unitIDPattern.FindStringSubmatch(prompt); m != nil {
		return m[1]
	}
	return ""
}

// propRefsFromPrompt returns the proposition ids listed in a synthesis prompt.
func propRefsFromPrompt(prompt string) []string {
	var ids []string
	for _, m := range propRefPattern.FindAllStringSubmatch(prompt, -1) {
		ids = append(ids, m[1])
	}
	return ids
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

func structureResponse(sections ...domain.Section) json.RawMessage {
	return mustJSON(map[string]any{
		"summary":      "A chapter about studios.",
		"sections":     sections,
		"key_entities": []domain.Entity{{Name: "MGM", Type: "studio"}},
		"keywords":     []string{"studio system"},
	})
}

// propositionsResponse returns n propositions numbered from p001 the way an
// engine would, echoing chapterID and unitID.
func propositionsResponse(chapterID, unitID string, n int) json.RawMessage {
	props := make([]domain.Proposition, 0, n)
	for i := 0; i < n; i++ {
		props = append(props, domain.Proposition{
			PropositionID:    fmt.Sprintf("%s_%s_p%03d", chapterID, unitID, i+1),
			ChapterID:        chapterID,
			UnitID:           unitID,
			Text:             fmt.Sprintf("fact %d of %s", i+1, unitID),
			BloomLevel:       domain.BloomRemember,
			BloomVerb:        "define",
			EvidenceLocation: "¶001",
			SourceType:       "explicit",
			Tags:             []string{"tag"},
		})
	}
	return mustJSON(map[string]any{"propositions": props})
}

// takeawaysResponse returns one takeaway over every referenced proposition.
func takeawaysResponse(chapterID string, unitID *string, propIDs []string) json.RawMessage {
	level := domain.BloomAnalyze
	return mustJSON(map[string]any{"key_takeaways": []domain.KeyTakeaway{{
		TakeawayID:         chapterID + "_t001",
		ChapterID:          chapterID,
		UnitID:             unitID,
		Text:               "these facts connect",
		PropositionIDs:     propIDs,
		DominantBloomLevel: &level,
		Tags:               []string{"theme"},
	}}})
}

// scriptedResponder answers every phase consistently for the given sections,
// returning perSection propositions for each extraction call.
func scriptedResponder(chapterID string, sections []domain.Section, perSection int) func(driven.GenerateRequest) (json.RawMessage, error) {
	return func(req driven.GenerateRequest) (json.RawMessage, error) {
		switch req.SchemaName {
		case schemaNameStructure:
			return structureResponse(sections...), nil
		case schemaNamePropositions:
			return propositionsResponse(chapterID, unitFromPrompt(req.UserPrompt), perSection), nil
		case schemaNameTakeaways:
			unit := unitFromPrompt(req.UserPrompt)
			var unitID *string
			if unit != "" {
				unitID = &unit
			}
			return takeawaysResponse(chapterID, unitID, propRefsFromPrompt(req.UserPrompt)), nil
		default:
			return nil, fmt.Errorf("unexpected schema %q", req.SchemaName)
		}
	}
}

// --- Recording sink ---

type recordedEvent struct {
	Phase   domain.State
	Message string
	Status  domain.EventStatus
}

type recordingSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (s *recordingSink) Notify(_ context.Context, phase domain.State, message string, status domain.EventStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, recordedEvent{Phase: phase, Message: message, Status: status})
}

func (s *recordingSink) snapshot() []recordedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedEvent(nil), s.events...)
}

func (s *recordingSink) terminal() []recordedEvent {
	var out []recordedEvent
	for _, ev := range s.snapshot() {
		if ev.Status.IsTerminal() {
			out = append(out, ev)
		}
	}
	return out
}

func (s *recordingSink) phases() []domain.State {
	var out []domain.State
	for _, ev := range s.snapshot() {
		if len(out) == 0 || out[len(out)-1] != ev.Phase {
			out = append(out, ev.Phase)
		}
	}
	return out
}

// --- Fake prompt store ---

type fakePromptStore struct {
	prompts map[string]string
}

func (f *fakePromptStore) Load(name string) (string, error) {
	p, ok := f.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (f *fakePromptStore) Reload() {}

// --- Fake text extractor ---

type fakeExtractor struct {
	name  string
	exts  []string
	mimes []string
	text  string
	title string
	err   error
}

func (f *fakeExtractor) Name() string                  { return f.name }
func (f *fakeExtractor) SupportedExtensions() []string { return f.exts }
func (f *fakeExtractor) SupportedMIMETypes() []string  { return f.mimes }

func (f *fakeExtractor) Extract(_ context.Context, _ domain.Upload) (*domain.ExtractedText, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ExtractedText{Text: f.text, Title: f.title}, nil
}

// chapterText builds a document with a heading and body per title.
func chapterText(titles ...string) string {
	var b strings.Builder
	for _, title := range titles {
		b.WriteString(title)
		b.WriteString("\n")
		b.WriteString(strings.Repeat("The studios controlled production and distribution. ", 8))
		b.WriteString("\n\n")
	}
	return b.String()
}

// --- Fake config store ---

type fakeConfigStore struct {
	values map[string]any
	setErr error
}

func newFakeConfigStore(kv ...any) *fakeConfigStore {
	f := &fakeConfigStore{values: make(map[string]any)}
	for i := 0; i+1 < len(kv); i += 2 {
		f.values[kv[i].(string)] = kv[i+1]
	}
	return f
}

func (f *fakeConfigStore) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

func (f *fakeConfigStore) GetString(key string) string {
	s, _ := f.values[key].(string)
	return s
}

func (f *fakeConfigStore) GetInt(key string) int {
	switch v := f.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (f *fakeConfigStore) GetFloat(key string) float64 {
	switch v := f.values[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (f *fakeConfigStore) GetBool(key string) bool {
	b, _ := f.values[key].(bool)
	return b
}

func (f *fakeConfigStore) Set(key string, value any) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.values[key] = value
	return nil
}

func (f *fakeConfigStore) Save() error  { return nil }
func (f *fakeConfigStore) Load() error  { return nil }
func (f *fakeConfigStore) Path() string { return "fake.toml" }
