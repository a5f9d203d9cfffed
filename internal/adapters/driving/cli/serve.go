package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/digest-cli/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/digest-cli/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API.

Routes:
  POST   /chapters/digest                       upload a chapter (multipart "file")
  GET    /jobs/{id}                             job state
  GET    /jobs/{id}/events                      progress as server-sent events
  DELETE /jobs/{id}                             cancel a job
  GET    /chapters                              list chapters
  GET    /chapters/{id}                         full analysis
  DELETE /chapters/{id}                         delete a chapter
  GET    /chapters/{id}/propositions?bloom=     propositions at one level
  GET    /chapters/{id}/units/{unit}/takeaways  takeaways of a section
  GET    /chapters/{id}/stats                   Bloom distributions
  GET    /health                                liveness`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (default from server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireChapters(); err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = serverSettings.Addr
	}
	if jobService == nil {
		logger.Warn("digest routes disabled: %v", requireJobs())
	}

	server, err := httpapi.NewServer(&httpapi.Ports{
		Chapters: chapterService,
		Jobs:     jobService,
		Ingest:   ingestService,
	}, httpapi.Config{
		MaxUploadSize: serverSettings.MaxUploadSize,
		WaitTimeout:   jobSettings.WaitTimeout,
	})
	if err != nil {
		return err
	}

	cmd.Printf("digest API listening on %s\n", addr)
	return server.Run(cmd.Context(), addr)
}
