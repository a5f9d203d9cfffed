package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/digest-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

// stdinName is the upload name used when the chapter is piped in.
const stdinName = "stdin.txt"

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Digest a chapter file",
	Long: `Digest a chapter and store the analysis.

The file may be plain text, markdown, HTML, PDF or DOCX. Use '-' to read
plain text from stdin. Progress is shown in an interactive view when
stdout is a terminal and as plain lines otherwise.

Examples:
  digest run chapter-03.pdf --book moby-dick
  cat chapter.txt | digest run - --title "Loomings" --plain
  digest run chapter.md --json > analysis.json`,
	Args: cobra.ExactArgs(1),
	RunE: runDigest,
}

func init() {
	runCmd.Flags().String("book", "", "Book identifier (default \"unknown_book\")")
	runCmd.Flags().String("chapter-id", "", "Chapter identifier (generated when empty)")
	runCmd.Flags().String("title", "", "Chapter title (default: taken from the document)")
	runCmd.Flags().Bool("plain", false, "Print progress as plain lines")
	runCmd.Flags().Bool("json", false, "Print the stored analysis as JSON when done")
	rootCmd.AddCommand(runCmd)
}

func runDigest(cmd *cobra.Command, args []string) error {
	if err := requireJobs(); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()
	upload, err := readUpload(cmd, args[0])
	if err != nil {
		return err
	}
	extracted, err := ingestService.Extract(ctx, upload)
	if err != nil {
		return err
	}

	book, _ := cmd.Flags().GetString("book")
	chapterID, _ := cmd.Flags().GetString("chapter-id")
	title, _ := cmd.Flags().GetString("title")
	plain, _ := cmd.Flags().GetBool("plain")
	asJSON, _ := cmd.Flags().GetBool("json")

	if title == "" && upload.Filename != stdinName {
		title = extracted.Title
	}

	job, err := jobService.Submit(ctx, domain.DigestRequest{
		Text:         extracted.Text,
		BookID:       book,
		ChapterID:    chapterID,
		ChapterTitle: title,
		SourceName:   upload.Filename,
	})
	if err != nil {
		return fmt.Errorf("submitting digest: %w", err)
	}

	var final *domain.Job
	switch {
	case asJSON:
		final, err = jobService.Wait(ctx, job.ID)
	case !plain && isTerminal(cmd.OutOrStdout()):
		final, err = followTUI(cmd, job)
	default:
		cmd.Printf("Job %s: %s (%s, %d characters)\n", job.ID, job.Title, extracted.Format, len(extracted.Text))
		final, err = followPlain(cmd, job.ID, 0)
	}
	if err != nil {
		return err
	}
	if final.State != domain.StateCompleted {
		return fmt.Errorf("digest failed: %s", final.Error)
	}

	if asJSON {
		if err := requireChapters(); err != nil {
			return err
		}
		chapter, err := chapterService.Get(ctx, final.ChapterID)
		if err != nil {
			return fmt.Errorf("loading chapter: %w", err)
		}
		return printJSON(cmd, chapter)
	}
	if plain || !isTerminal(cmd.OutOrStdout()) {
		cmd.Printf("Saved chapter %s\n", final.ChapterID)
	}
	return nil
}

func readUpload(cmd *cobra.Command, arg string) (domain.Upload, error) {
	if arg == "-" {
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return domain.Upload{}, fmt.Errorf("reading stdin: %w", err)
		}
		return domain.Upload{Filename: stdinName, MIMEType: "text/plain", Content: content}, nil
	}

	content, err := os.ReadFile(arg)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("reading %s: %w", arg, err)
	}
	return domain.Upload{Filename: filepath.Base(arg), Content: content}, nil
}

// followPlain prints events from index from until the job ends and
// returns the final record.
func followPlain(cmd *cobra.Command, jobID string, from int) (*domain.Job, error) {
	err := jobService.Follow(cmd.Context(), jobID, from, 0, func(ev domain.Event) error {
		cmd.Printf("  %-13s %s\n", ev.Phase, ev.Message)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("following job %s: %w", jobID, err)
	}
	return jobService.Get(cmd.Context(), jobID)
}

func followTUI(cmd *cobra.Command, job *domain.Job) (*domain.Job, error) {
	model, err := tui.NewProgress(cmd.Context(), &tui.Ports{
		Jobs:     jobService,
		Chapters: chapterService,
	}, job.ID, job.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress view: %w", err)
	}

	p := tea.NewProgram(model, tea.WithContext(cmd.Context()), tea.WithOutput(cmd.OutOrStdout()))
	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("TUI error: %w", err)
	}

	if model.Detached() {
		cmd.Println("Left the progress view; the job is still running.")
		return followPlain(cmd, job.ID, len(model.Events()))
	}
	if err := model.Err(); err != nil {
		return nil, err
	}
	return model.Job(), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
