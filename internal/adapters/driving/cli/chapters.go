package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/digest-cli/internal/core/domain"
)

var showCmd = &cobra.Command{
	Use:   "show <chapter-id>",
	Short: "Show a stored chapter analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored chapters",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <chapter-id>",
	Short: "Delete a stored chapter and everything derived from it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var queryCmd = &cobra.Command{
	Use:   "query <chapter-id>",
	Short: "List a chapter's propositions at one Bloom level",
	Long: `List the propositions of a chapter tagged with one Bloom level.

Levels: remember, understand, apply, analyze.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var takeawaysCmd = &cobra.Command{
	Use:   "takeaways <chapter-id> <unit-id>",
	Short: "List the key takeaways of one section",
	Args:  cobra.ExactArgs(2),
	RunE:  runTakeaways,
}

var statsCmd = &cobra.Command{
	Use:   "stats <chapter-id>",
	Short: "Show counts and Bloom distributions for a chapter",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	showCmd.Flags().Bool("json", false, "Print the full analysis as JSON")
	queryCmd.Flags().StringP("bloom", "b", "", "Bloom level to select (required)")
	_ = queryCmd.MarkFlagRequired("bloom")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(takeawaysCmd)
	rootCmd.AddCommand(statsCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	if err := requireChapters(); err != nil {
		return err
	}

	chapter, err := chapterService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get chapter: %w", err)
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return printJSON(cmd, chapter)
	}

	cmd.Printf("%s\n", chapter.ChapterTitle)
	cmd.Println(strings.Repeat("=", len(chapter.ChapterTitle)))
	cmd.Printf("Chapter: %s\n", chapter.ChapterID)
	cmd.Printf("Book:    %s\n", chapter.BookID)
	cmd.Printf("Schema:  %s\n", chapter.SchemaVersion)
	cmd.Println()

	if chapter.Structure.Summary != "" {
		cmd.Println("[Summary]")
		cmd.Printf("  %s\n\n", chapter.Structure.Summary)
	}

	props := make(map[string]int)
	for _, p := range chapter.Content.Propositions {
		props[p.UnitID]++
	}
	takeaways := make(map[string]int)
	for _, t := range chapter.Content.KeyTakeaways {
		if t.UnitID != nil {
			takeaways[*t.UnitID]++
		}
	}

	cmd.Println("[Sections]")
	for _, s := range chapter.Structure.Sections {
		indent := strings.Repeat("  ", s.Level)
		cmd.Printf("%s%s %s (%d propositions, %d takeaways)\n",
			indent, s.UnitID, s.Title, props[s.UnitID], takeaways[s.UnitID])
	}
	cmd.Println()

	if len(chapter.Structure.Keywords) > 0 {
		cmd.Printf("Keywords: %s\n\n", strings.Join(chapter.Structure.Keywords, ", "))
	}

	cmd.Println("[Key Takeaways]")
	if len(chapter.Content.KeyTakeaways) == 0 {
		cmd.Println("  (none)")
	}
	for _, t := range chapter.Content.KeyTakeaways {
		printTakeaway(cmd, t)
	}
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	if err := requireChapters(); err != nil {
		return err
	}

	chapters, err := chapterService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list chapters: %w", err)
	}
	if len(chapters) == 0 {
		cmd.Println("No chapters stored. Run 'digest run <file>' to add one.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CHAPTER", "TITLE", "BOOK", "PROPOSITIONS", "TAKEAWAYS", "CREATED")
	for _, c := range chapters {
		t.Row(c.ChapterID, c.ChapterTitle, c.BookID,
			fmt.Sprint(c.PropositionCount), fmt.Sprint(c.TakeawayCount),
			c.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	cmd.Println(t.Render())
	cmd.Printf("%d chapter(s)\n", len(chapters))
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := requireChapters(); err != nil {
		return err
	}

	deleted, err := chapterService.Delete(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to delete chapter: %w", err)
	}
	if !deleted {
		return fmt.Errorf("chapter %s: %w", args[0], domain.ErrNotFound)
	}
	cmd.Printf("Deleted chapter %s\n", args[0])
	return nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := requireChapters(); err != nil {
		return err
	}

	level, _ := cmd.Flags().GetString("bloom")
	props, err := chapterService.QueryByBloom(cmd.Context(), args[0], domain.BloomLevel(strings.ToLower(level)))
	if err != nil {
		return fmt.Errorf("failed to query propositions: %w", err)
	}
	if len(props) == 0 {
		cmd.Printf("No %s propositions in %s.\n", level, args[0])
		return nil
	}

	for _, p := range props {
		cmd.Printf("%s [%s] %s\n", p.PropositionID, p.UnitID, p.Text)
		if p.BloomVerb != "" || p.EvidenceLocation != "" {
			cmd.Printf("      verb: %s  evidence: %s\n", p.BloomVerb, p.EvidenceLocation)
		}
	}
	cmd.Printf("\n%d proposition(s)\n", len(props))
	return nil
}

func runTakeaways(cmd *cobra.Command, args []string) error {
	if err := requireChapters(); err != nil {
		return err
	}

	items, err := chapterService.TakeawaysForUnit(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to get takeaways: %w", err)
	}
	if len(items) == 0 {
		cmd.Printf("No takeaways for section %s.\n", args[1])
		return nil
	}
	for _, t := range items {
		printTakeaway(cmd, t)
	}
	return nil
}

func printTakeaway(cmd *cobra.Command, t domain.KeyTakeaway) {
	level := "none"
	if t.DominantBloomLevel != nil {
		level = t.DominantBloomLevel.String()
	}
	cmd.Printf("  %s (%s) %s\n", t.TakeawayID, level, t.Text)
	cmd.Printf("      from: %s\n", strings.Join(t.PropositionIDs, ", "))
}

func runStats(cmd *cobra.Command, args []string) error {
	if err := requireChapters(); err != nil {
		return err
	}

	stats, err := chapterService.Stats(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Printf("Chapter %s\n", stats.ChapterID)
	cmd.Printf("  Sections:     %d\n", stats.Sections)
	cmd.Printf("  Propositions: %d\n", stats.Propositions)
	cmd.Printf("  Takeaways:    %d\n", stats.Takeaways)
	cmd.Println()

	cmd.Println("[Propositions by Bloom level]")
	for _, l := range domain.PropositionBloomLevels() {
		cmd.Printf("  %-12s %d\n", l, stats.PropositionsByBloom[l.String()])
	}
	cmd.Println()

	cmd.Println("[Takeaways by Bloom level]")
	for _, l := range []string{domain.BloomAnalyze.String(), domain.BloomEvaluate.String(), "none"} {
		cmd.Printf("  %-12s %d\n", l, stats.TakeawaysByBloom[l])
	}

	if len(stats.PropositionsBySection) > 0 {
		cmd.Println()
		cmd.Println("[Propositions by section]")
		units := make([]string, 0, len(stats.PropositionsBySection))
		for u := range stats.PropositionsBySection {
			units = append(units, u)
		}
		sort.Strings(units)
		for _, u := range units {
			cmd.Printf("  %-12s %d\n", u, stats.PropositionsBySection[u])
		}
	}
	return nil
}
