package services

import (
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyGenProvider     = "generator.provider"
	keyGenModel        = "generator.model"
	keyGenBaseURL      = "generator.base_url"
	keyGenAPIKey       = "generator.api_key"
	keyGenTimeout      = "generator.timeout_seconds"
	keyGenRPS          = "generator.requests_per_second"
	keyChunkWords      = "pipeline.chunk_words"
	keyConcurrency     = "pipeline.section_concurrency"
	keyMaxTokens       = "pipeline.max_tokens"
	keyStructureTemp   = "pipeline.structure_temperature"
	keyExtractionTemp  = "pipeline.extraction_temperature"
	keyChapterSynth    = "pipeline.chapter_synthesis"
	keyStorageDriver   = "storage.driver"
	keyStorageDSN      = "storage.dsn"
	keyJobStore        = "jobs.store"
	keyRedisAddr       = "jobs.redis_addr"
	keyJobTTL          = "jobs.ttl_minutes"
	keyJobWaitTimeout  = "jobs.wait_timeout_minutes"
	keyServerAddr      = "server.addr"
	keyServerMaxUpload = "server.max_upload_mb"
)

// SettingsService resolves AppSettings from a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Missing or invalid keys
// take their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(defaults.Generator.Provider)
	model := s.configStore.GetString(keyGenModel)
	if model == "" {
		model = domain.DefaultGeneratorModels()[provider]
	}
	apiKey := s.configStore.GetString(keyGenAPIKey)
	if apiKey == "" && provider.APIKeyEnv() != "" {
		apiKey = s.getenv(provider.APIKeyEnv())
	}

	settings := &domain.AppSettings{
		Generator: domain.GeneratorSettings{
			Provider:          provider,
			Model:             model,
			BaseURL:           s.configStore.GetString(keyGenBaseURL),
			APIKey:            apiKey,
			Timeout:           s.getSeconds(keyGenTimeout, defaults.Generator.Timeout),
			RequestsPerSecond: s.configStore.GetFloat(keyGenRPS),
		},
		Pipeline: domain.PipelineSettings{
			ChunkWords:            s.getInt(keyChunkWords, defaults.Pipeline.ChunkWords),
			SectionConcurrency:    s.getInt(keyConcurrency, defaults.Pipeline.SectionConcurrency),
			MaxTokens:             s.getInt(keyMaxTokens, defaults.Pipeline.MaxTokens),
			StructureTemperature:  s.getFloat(keyStructureTemp, defaults.Pipeline.StructureTemperature),
			ExtractionTemperature: s.getFloat(keyExtractionTemp, defaults.Pipeline.ExtractionTemperature),
			ChapterSynthesis:      s.getBool(keyChapterSynth, defaults.Pipeline.ChapterSynthesis),
		},
		Storage: domain.StorageSettings{
			Driver: s.getDriver(defaults.Storage.Driver),
			DSN:    s.configStore.GetString(keyStorageDSN),
		},
		Jobs: domain.JobSettings{
			Store:       s.getString(keyJobStore, defaults.Jobs.Store),
			RedisAddr:   s.configStore.GetString(keyRedisAddr),
			TTL:         s.getMinutes(keyJobTTL, defaults.Jobs.TTL),
			WaitTimeout: s.getMinutes(keyJobWaitTimeout, defaults.Jobs.WaitTimeout),
		},
		Server: domain.ServerSettings{
			Addr:          s.getString(keyServerAddr, defaults.Server.Addr),
			MaxUploadSize: defaults.Server.MaxUploadSize,
		},
	}
	if mb := s.configStore.GetInt(keyServerMaxUpload); mb > 0 {
		settings.Server.MaxUploadSize = int64(mb) * 1024 * 1024
	}

	return settings, nil
}

// SetGenerator updates the generation provider. An empty model selects the
// provider's default.
func (s *SettingsService) SetGenerator(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid generator provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" && s.getenv(provider.APIKeyEnv()) == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	if model == "" {
		model = domain.DefaultGeneratorModels()[provider]
	}

	if err := s.configStore.Set(keyGenProvider, provider.String()); err != nil {
		return fmt.Errorf("save generator provider: %w", err)
	}
	if err := s.configStore.Set(keyGenModel, model); err != nil {
		return fmt.Errorf("save generator model: %w", err)
	}
	if apiKey != "" {
		if err := s.configStore.Set(keyGenAPIKey, apiKey); err != nil {
			return fmt.Errorf("save generator api_key: %w", err)
		}
	}
	return nil
}

// Validate checks the settings needed to run a digest.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Generator.IsConfigured() {
		return fmt.Errorf("%w: %s needs an API key (set %s or %s)",
			domain.ErrGeneratorUnavailable, settings.Generator.Provider.Description(), keyGenAPIKey, settings.Generator.Provider.APIKeyEnv())
	}
	switch settings.Storage.Driver {
	case domain.StorageSQLite:
	case domain.StoragePostgres:
		if settings.Storage.DSN == "" {
			return fmt.Errorf("%w: %s is required for postgres", domain.ErrInvalidInput, keyStorageDSN)
		}
	}
	switch settings.Jobs.Store {
	case domain.JobStoreMemory, domain.JobStoreDatabase:
	case domain.JobStoreRedis:
		if settings.Jobs.RedisAddr == "" {
			return fmt.Errorf("%w: %s is required for redis", domain.ErrInvalidInput, keyRedisAddr)
		}
	default:
		return fmt.Errorf("%w: unknown job store %q", domain.ErrInvalidInput, settings.Jobs.Store)
	}
	if settings.Pipeline.ChunkWords <= 0 || settings.Pipeline.MaxTokens <= 0 {
		return fmt.Errorf("%w: chunk_words and max_tokens must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getSeconds(key string, defaultVal time.Duration) time.Duration {
	if n := s.configStore.GetInt(key); n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}

func (s *SettingsService) getMinutes(key string, defaultVal time.Duration) time.Duration {
	if n := s.configStore.GetInt(key); n > 0 {
		return time.Duration(n) * time.Minute
	}
	return defaultVal
}

func (s *SettingsService) getProvider(defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(keyGenProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getDriver(defaultVal domain.StorageDriver) domain.StorageDriver {
	switch d := domain.StorageDriver(s.configStore.GetString(keyStorageDriver)); d {
	case domain.StorageSQLite, domain.StoragePostgres:
		return d
	default:
		return defaultVal
	}
}
