package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/digest-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/digest-cli/internal/core/domain"
	"github.com/custodia-labs/digest-cli/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Digest every chapter file dropped into a directory",
	Long: `Watch a directory and digest each supported file once it stops changing.

Files already present are skipped unless --existing is given. The book id
applies to every chapter; titles come from the files.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("book", "", "Book identifier for every chapter")
	watchCmd.Flags().Bool("existing", false, "Also digest files already in the directory")
	watchCmd.Flags().Duration("settle", filesystem.DefaultSettle, "How long a file must be unchanged before digesting")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireJobs(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	book, _ := cmd.Flags().GetString("book")
	existing, _ := cmd.Flags().GetBool("existing")
	settle, _ := cmd.Flags().GetDuration("settle")

	watcher := filesystem.New(args[0], supportsFile(ingestService.SupportedExtensions()), settle)
	ctx := cmd.Context()

	if existing {
		paths, err := watcher.Existing()
		if err != nil {
			return err
		}
		for _, path := range paths {
			submitFile(cmd, path, book)
		}
	}

	paths, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s for %s (ctrl+c to stop)\n",
		watcher.Root(), strings.Join(ingestService.SupportedExtensions(), " "))

	for path := range paths {
		submitFile(cmd, path, book)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// submitFile digests one file. Failures are reported and skipped so one bad
// file does not stop the watch.
func submitFile(cmd *cobra.Command, path, book string) {
	log := logger.Get().With().Str("path", path).Logger()

	content, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Err(err).Msg("reading file")
		return
	}
	upload := domain.Upload{Filename: filepath.Base(path), Content: content}
	extracted, err := ingestService.Extract(cmd.Context(), upload)
	if err != nil {
		cmd.PrintErrf("skipping %s: %v\n", upload.Filename, err)
		return
	}

	job, err := jobService.Submit(cmd.Context(), domain.DigestRequest{
		Text:         extracted.Text,
		BookID:       book,
		ChapterTitle: extracted.Title,
		SourceName:   upload.Filename,
	})
	if err != nil {
		cmd.PrintErrf("submitting %s: %v\n", upload.Filename, err)
		return
	}
	log.Info().Str("job_id", job.ID).Str("chapter_id", job.ChapterID).Msg("digest submitted")
	cmd.Printf("%s -> job %s (chapter %s)\n", upload.Filename, job.ID, job.ChapterID)

	go reportJob(cmd, job.ID, upload.Filename)
}

// reportJob prints the outcome of a submitted job.
func reportJob(cmd *cobra.Command, jobID, name string) {
	job, err := jobService.Wait(cmd.Context(), jobID)
	switch {
	case err != nil:
		logger.Debug("waiting for %s: %v", jobID, err)
	case job.State == domain.StateCompleted:
		cmd.Printf("%s: saved chapter %s\n", name, job.ChapterID)
	default:
		cmd.PrintErrf("%s: %s\n", name, job.Error)
	}
}

func supportsFile(exts []string) func(string) bool {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = struct{}{}
	}
	return func(name string) bool {
		_, ok := set[strings.ToLower(filepath.Ext(name))]
		return ok
	}
}
