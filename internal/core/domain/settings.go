package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies a generation engine provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API or a compatible endpoint.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic Messages API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// APIKeyEnv names the environment variable consulted when no API key is
// configured. Empty for providers without keys.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// GeneratorSettings configures the structured generation engine.
type GeneratorSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// Timeout bounds a single generation call.
	Timeout time.Duration

	// RequestsPerSecond paces generation calls; zero disables pacing.
	RequestsPerSecond float64
}

// IsConfigured returns true if the generator can be constructed.
func (g GeneratorSettings) IsConfigured() bool {
	if !g.Provider.IsValid() {
		return false
	}
	if g.Provider.RequiresAPIKey() && g.APIKey == "" {
		return false
	}
	return true
}

// PipelineSettings tunes the digest pipeline.
type PipelineSettings struct {
	// ChunkWords is the section size above which text is split into chunks.
	ChunkWords int

	// SectionConcurrency is how many sections are processed at once.
	// Output order never depends on it.
	SectionConcurrency int

	// MaxTokens is passed to every generation call.
	MaxTokens int

	// StructureTemperature is used for the structure pass.
	StructureTemperature float64

	// ExtractionTemperature is used for extraction and synthesis.
	ExtractionTemperature float64

	// ChapterSynthesis enables an extra chapter-level takeaway pass.
	ChapterSynthesis bool
}

// StorageDriver names a chapter store backend.
type StorageDriver string

// Available storage drivers.
const (
	StorageSQLite   StorageDriver = "sqlite"
	StoragePostgres StorageDriver = "postgres"
)

// StorageSettings selects and locates the chapter store.
type StorageSettings struct {
	Driver StorageDriver

	// DSN is a directory for sqlite or a connection string for postgres.
	DSN string
}

// Job store kinds.
const (
	// JobStoreMemory keeps jobs in process; they are lost on exit.
	JobStoreMemory = "memory"

	// JobStoreRedis shares jobs between processes through redis.
	JobStoreRedis = "redis"

	// JobStoreDatabase keeps jobs in the chapter database.
	JobStoreDatabase = "database"
)

// JobSettings configures job tracking.
type JobSettings struct {
	// Store is one of JobStoreMemory, JobStoreRedis or JobStoreDatabase.
	Store string

	// RedisAddr is the redis address when Store is "redis".
	RedisAddr string

	// TTL is how long finished jobs and their events are retained.
	TTL time.Duration

	// WaitTimeout bounds how long a progress reader waits.
	WaitTimeout time.Duration
}

// ServerSettings configures the HTTP transport.
type ServerSettings struct {
	Addr          string
	MaxUploadSize int64
}

// AppSettings holds all application settings.
type AppSettings struct {
	Generator GeneratorSettings
	Pipeline  PipelineSettings
	Storage   StorageSettings
	Jobs      JobSettings
	Server    ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The generator is left without an API key; it comes from config or environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Generator: GeneratorSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultGeneratorModels()[AIProviderOpenAI],
			Timeout:  5 * time.Minute,
		},
		Pipeline: DefaultPipelineSettings(),
		Storage: StorageSettings{
			Driver: StorageSQLite,
		},
		Jobs: JobSettings{
			Store:       JobStoreMemory,
			TTL:         time.Hour,
			WaitTimeout: 30 * time.Minute,
		},
		Server: ServerSettings{
			Addr:          ":8080",
			MaxUploadSize: 10 * 1024 * 1024,
		},
	}
}

// DefaultPipelineSettings returns the reference pipeline tuning.
func DefaultPipelineSettings() PipelineSettings {
	return PipelineSettings{
		ChunkWords:            3000,
		SectionConcurrency:    1,
		MaxTokens:             8000,
		StructureTemperature:  0.15,
		ExtractionTemperature: 0.2,
	}
}

// AllProviders returns providers that support structured generation.
func AllProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultGeneratorModels returns default models for each provider.
func DefaultGeneratorModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.1",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}
