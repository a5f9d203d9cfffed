// Package cli implements the digest command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/core/ports/driving"
	"github.com/custodia-labs/digest-cli/internal/logger"
)

// version is set at build time.
var version = "dev"

// PromptAdmin manages the editable prompt templates.
type PromptAdmin interface {
	Dir() string
	Reset(name string) error
}

// Services holds everything the commands drive.
type Services struct {
	Jobs     driving.JobService
	Chapters driving.ChapterService
	Ingest   driving.IngestService
	Settings driving.SettingsService
	Prompts  PromptAdmin

	// PromptNames lists the templates that prompts reset restores.
	PromptNames []string

	// JobsErr explains why Jobs is nil, typically a generator that could
	// not be constructed.
	JobsErr error

	// Server configures serve and mcp --http.
	Server domain.ServerSettings

	// JobSettings bounds how long progress readers wait.
	JobSettings domain.JobSettings
}

var (
	jobService      driving.JobService
	chapterService  driving.ChapterService
	ingestService   driving.IngestService
	settingsService driving.SettingsService
	promptAdmin     PromptAdmin
	promptNames     []string
	jobsErr         error
	serverSettings  = domain.DefaultAppSettings().Server
	jobSettings     = domain.DefaultAppSettings().Jobs
)

var rootCmd = &cobra.Command{
	Use:   "digest",
	Short: "Turn book chapters into structured, queryable knowledge",
	Long: `digest runs a multi-pass language-model pipeline over a book chapter.

It outlines the chapter into sections, extracts atomic propositions tagged
with a Bloom level, synthesises key takeaways per section and stores the
result so it can be queried by chapter, section or cognitive level.

Run 'digest settings generator' once to choose a model provider.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose") //nolint:errcheck // flag is registered below
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}

// SetServices installs the services used by the commands.
func SetServices(s Services) {
	jobService = s.Jobs
	chapterService = s.Chapters
	ingestService = s.Ingest
	settingsService = s.Settings
	promptAdmin = s.Prompts
	promptNames = s.PromptNames
	jobsErr = s.JobsErr
	if s.Server.Addr != "" {
		serverSettings = s.Server
	}
	if s.JobSettings.WaitTimeout > 0 {
		jobSettings = s.JobSettings
	}
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. Command output goes to stdout.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func requireJobs() error {
	if jobService != nil {
		return nil
	}
	if jobsErr != nil {
		return fmt.Errorf("job service not configured: %w", jobsErr)
	}
	return errors.New("job service not configured")
}

func requireChapters() error {
	if chapterService == nil {
		return errors.New("chapter service not configured")
	}
	return nil
}
