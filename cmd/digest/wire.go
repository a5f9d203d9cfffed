package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/custodia-labs/digest-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/digest-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/digest-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/digest-cli/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/digest-cli/internal/adapters/driven/storage/redisstore"
	"github.com/custodia-labs/digest-cli/internal/adapters/driven/storage/relational"
	"github.com/custodia-labs/digest-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/digest-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/digest-cli/internal/core/services"
	"github.com/custodia-labs/digest-cli/internal/logger"
	"github.com/custodia-labs/digest-cli/internal/normalisers/docx"
	"github.com/custodia-labs/digest-cli/internal/normalisers/html"
	"github.com/custodia-labs/digest-cli/internal/normalisers/markdown"
	"github.com/custodia-labs/digest-cli/internal/normalisers/pdf"
	"github.com/custodia-labs/digest-cli/internal/normalisers/plaintext"
)

// janitorInterval is how often finished jobs past their retention are removed.
const janitorInterval = time.Minute

// app holds the wired services and what must be closed on exit.
type app struct {
	Services cli.Services

	runner  *services.JobRunner
	closers []io.Closer
}

// Close stops the job runner and releases stores and clients.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.runner != nil {
		if err := a.runner.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stopping jobs: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// wire builds the application from ~/.digest/config.toml. A generator that
// cannot be built leaves the job service unset so read-only commands work.
func wire(ctx context.Context) (*app, error) {
	baseDir, err := file.DefaultDir()
	if err != nil {
		return nil, err
	}
	configStore, err := file.NewConfigStore(baseDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(baseDir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("opening prompts: %w", err)
	}

	a := &app{}
	store, err := openStore(ctx, baseDir, settings.Storage)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store)

	jobs, err := openJobStore(ctx, settings.Jobs, store, a)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.Services = cli.Services{
		Chapters:    services.NewChapterService(store.ChapterStore()),
		Ingest:      newIngestService(settings.Server.MaxUploadSize),
		Settings:    settingsService,
		Prompts:     prompts,
		PromptNames: file.Names(),
		Server:      settings.Server,
		JobSettings: settings.Jobs,
	}

	generator, err := ai.CreateGenerator(&settings.Generator)
	if err != nil {
		logger.Debug("generator unavailable: %v", err)
		a.Services.JobsErr = err
		return a, nil
	}
	a.closers = append(a.closers, generator)

	coordinator := services.NewCoordinator(generator, store.ChapterStore(), prompts, settings.Pipeline)
	a.runner = services.NewJobRunner(coordinator, jobs, settings.Jobs)
	a.runner.StartJanitor(janitorInterval)
	a.Services.Jobs = a.runner
	return a, nil
}

// chapterDB is what both relational backends provide.
type chapterDB interface {
	io.Closer
	ChapterStore() driven.ChapterStore
	JobStore() driven.JobStore
}

func openStore(ctx context.Context, baseDir string, cfg domain.StorageSettings) (chapterDB, error) {
	switch cfg.Driver {
	case domain.StoragePostgres:
		store, err := postgres.NewStore(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return store, nil
	case domain.StorageSQLite, "":
		dir := cfg.DSN
		if dir == "" {
			dir = filepath.Join(baseDir, "data")
		}
		store, err := sqlite.NewStore(ctx, dir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		logger.Debug("chapter store: %s", store.Path())
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func openJobStore(ctx context.Context, cfg domain.JobSettings, db chapterDB, a *app) (driven.JobStore, error) {
	switch cfg.Store {
	case domain.JobStoreRedis:
		client, err := redisstore.Dial(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("connecting job store: %w", err)
		}
		a.closers = append(a.closers, client)
		return redisstore.NewJobStore(client, redisstore.DefaultPrefix, cfg.TTL), nil
	case domain.JobStoreDatabase:
		return db.JobStore(), nil
	case domain.JobStoreMemory, "":
		return memory.NewJobStore(), nil
	default:
		return nil, fmt.Errorf("unknown job store %q", cfg.Store)
	}
}

func newIngestService(maxSize int64) *services.IngestService {
	return services.NewIngestService(maxSize,
		plaintext.New(),
		markdown.New(),
		html.New(),
		docx.New(),
		pdf.New(),
	)
}

var _ chapterDB = (*relational.Store)(nil)
