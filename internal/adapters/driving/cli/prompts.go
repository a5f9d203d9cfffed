package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Manage the prompt templates",
	Long: `The pipeline's system and user prompts are plain files that can be edited.
Missing files are recreated from the built-in defaults on start.`,
}

var promptsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the prompt template directory",
	Args:  cobra.NoArgs,
	RunE:  runPromptsPath,
}

var promptsResetCmd = &cobra.Command{
	Use:   "reset [name...]",
	Short: "Restore prompt templates to their defaults",
	Long:  `Restore the named prompt templates, or all of them when no name is given.`,
	RunE:  runPromptsReset,
}

func init() {
	promptsCmd.AddCommand(promptsPathCmd)
	promptsCmd.AddCommand(promptsResetCmd)
	rootCmd.AddCommand(promptsCmd)
}

func runPromptsPath(cmd *cobra.Command, _ []string) error {
	if promptAdmin == nil {
		return errors.New("prompt store not configured")
	}
	cmd.Println(promptAdmin.Dir())
	return nil
}

func runPromptsReset(cmd *cobra.Command, args []string) error {
	if promptAdmin == nil {
		return errors.New("prompt store not configured")
	}

	names := args
	if len(names) == 0 {
		names = promptNames
	}
	for _, name := range names {
		if !slices.Contains(promptNames, name) {
			return fmt.Errorf("unknown prompt %q (known: %v)", name, promptNames)
		}
	}
	for _, name := range names {
		if err := promptAdmin.Reset(name); err != nil {
			return fmt.Errorf("resetting %s: %w", name, err)
		}
		cmd.Printf("Reset %s\n", name)
	}
	return nil
}
