package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect digest jobs",
	Long: `Inspect digest jobs recorded in the job store.

With the in-memory job store only jobs of the current process are visible;
configure jobs.store = "redis" or "database" to see jobs run by 'digest serve'.`,
	RunE: runJobsList,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	Args:  cobra.NoArgs,
	RunE:  runJobsList,
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show a job and its progress events",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsShow,
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a running job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsCancel,
}

func init() {
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
	jobsCmd.AddCommand(jobsCancelCmd)
	rootCmd.AddCommand(jobsCmd)
}

func runJobsList(cmd *cobra.Command, _ []string) error {
	if err := requireJobs(); err != nil {
		return err
	}

	jobs, err := jobService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	if len(jobs) == 0 {
		cmd.Println("No jobs.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("JOB", "CHAPTER", "STATE", "UPDATED")
	for _, j := range jobs {
		t.Row(j.ID, j.ChapterID, j.State.String(), j.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	cmd.Println(t.Render())
	return nil
}

func runJobsShow(cmd *cobra.Command, args []string) error {
	if err := requireJobs(); err != nil {
		return err
	}

	job, err := jobService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}
	events, err := jobService.Events(cmd.Context(), args[0], 0)
	if err != nil {
		return fmt.Errorf("failed to get events: %w", err)
	}

	cmd.Printf("Job:     %s\n", job.ID)
	cmd.Printf("Chapter: %s (%s)\n", job.ChapterID, job.Title)
	cmd.Printf("State:   %s\n", job.State)
	cmd.Printf("Saved:   %t\n", job.Saved)
	if job.Error != "" {
		cmd.Printf("Error:   %s\n", job.Error)
	}
	cmd.Println()
	for _, ev := range events {
		cmd.Printf("  %3d %s %-13s %-11s %s\n",
			ev.Index, ev.Time.Local().Format("15:04:05"), ev.Phase, ev.Status, ev.Message)
	}
	return nil
}

func runJobsCancel(cmd *cobra.Command, args []string) error {
	if err := requireJobs(); err != nil {
		return err
	}
	if err := jobService.Cancel(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}
	cmd.Printf("Cancellation requested for job %s\n", args[0])
	return nil
}
