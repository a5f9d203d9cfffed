package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the generator, pipeline tuning, storage and job options.

Settings live in config.toml in the data directory; the generator can be
configured interactively with 'digest settings generator'.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsGeneratorCmd = &cobra.Command{
	Use:   "generator",
	Short: "Configure the generation provider",
	Long:  `Choose the provider and model used for every pipeline pass.`,
	RunE:  runSettingsGenerator,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGeneratorCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	gen := settings.Generator
	cmd.Println("[Generator]")
	cmd.Printf("  Provider: %s\n", gen.Provider.Description())
	cmd.Printf("  Model: %s\n", gen.Model)
	if gen.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", gen.BaseURL)
	}
	if gen.Provider.RequiresAPIKey() {
		if gen.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(gen.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Timeout: %s\n", gen.Timeout)
	if gen.RequestsPerSecond > 0 {
		cmd.Printf("  Requests/s: %g\n", gen.RequestsPerSecond)
	}
	status := "configured"
	if !gen.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	p := settings.Pipeline
	cmd.Println("[Pipeline]")
	cmd.Printf("  Chunk words: %d\n", p.ChunkWords)
	cmd.Printf("  Section concurrency: %d\n", p.SectionConcurrency)
	cmd.Printf("  Max tokens: %d\n", p.MaxTokens)
	cmd.Printf("  Temperatures: structure %g, extraction %g\n", p.StructureTemperature, p.ExtractionTemperature)
	cmd.Printf("  Chapter synthesis: %t\n", p.ChapterSynthesis)
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Driver: %s\n", settings.Storage.Driver)
	if settings.Storage.DSN != "" {
		cmd.Printf("  DSN: %s\n", settings.Storage.DSN)
	}
	cmd.Println()

	cmd.Println("[Jobs]")
	cmd.Printf("  Store: %s\n", settings.Jobs.Store)
	if settings.Jobs.RedisAddr != "" {
		cmd.Printf("  Redis: %s\n", settings.Jobs.RedisAddr)
	}
	cmd.Printf("  Retention: %s\n", settings.Jobs.TTL)
	cmd.Printf("  Wait timeout: %s\n", settings.Jobs.WaitTimeout)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Printf("  Max upload: %d bytes\n", settings.Server.MaxUploadSize)
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'digest settings generator' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsGenerator(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureGenerator(cmd, reader)
}

func configureGenerator(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Generation Provider")
	providers := domain.AllProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selected := providers[idx-1]

	defaultModel := domain.DefaultGeneratorModels()[selected]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if selected.RequiresAPIKey() {
		cmd.Printf("Enter API key (empty to use %s): ", selected.APIKeyEnv())
		apiKey = readPassword(reader)
		cmd.Println()
	}

	if err := settingsService.SetGenerator(selected, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure generator: %w", err)
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	}
	cmd.Printf("Generator configured: %s (%s)\n", selected.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo from a terminal and falls back to the
// line reader otherwise.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
