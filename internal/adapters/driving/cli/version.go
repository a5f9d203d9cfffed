package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build and analysis schema versions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("digest version %s\n", version)
		cmd.Printf("analysis schema %s, %s\n", domain.SchemaVersion, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
