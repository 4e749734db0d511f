package client

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/geotrack/internal/domain"
)

const defaultPollInterval = 2 * time.Second

// RunCmd creates the run command which submits a batch job for a project.
func RunCmd() *cobra.Command {
	var wait bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "run <project_id>",
		Short: "Execute every active prompt of a project as a background job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, args[0], wait, interval)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the job to finish")
	cmd.Flags().DurationVar(&interval, "interval", defaultPollInterval, "Polling interval with --wait")

	return cmd
}

// JobCmd creates the job command which shows the status of a job.
func JobCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "job <job_id>",
		Short: "Show the status of a batch job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}
			job, err := fetchJob(cmd.Context(), api, args[0])
			if err != nil {
				return err
			}
			return printJob(cmd, job)
		},
	}
}

func runJob(cmd *cobra.Command, projectID string, wait bool, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post(cmd.Context(), "/projects/"+url.PathEscape(projectID)+"/jobs", nil)
	if err != nil {
		return fmt.Errorf("failed to submit job: %w", err)
	}

	var submitted struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := resp.Decode(&submitted); err != nil {
		return err
	}

	if !wait {
		if wantsJSON(cmd) {
			return writeJSON(cmd.OutOrStdout(), submitted)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Job %s %s\n", submitted.JobID, submitted.Status)
		return nil
	}

	job, err := waitForJob(cmd.Context(), api, submitted.JobID, interval)
	if err != nil {
		return err
	}
	if err := printJob(cmd, job); err != nil {
		return err
	}
	if job.Status == domain.JobStatusFailed {
		return fmt.Errorf("job %s failed", job.ID)
	}
	return nil
}

func fetchJob(ctx context.Context, api *APIClient, jobID string) (*domain.Job, error) {
	resp, err := api.Get(ctx, "/jobs/"+url.PathEscape(jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	var job domain.Job
	if err := resp.Decode(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

// waitForJob polls until the job reaches a terminal status.
func waitForJob(ctx context.Context, api *APIClient, jobID string, interval time.Duration) (*domain.Job, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := fetchJob(ctx, api, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status.IsTerminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func printJob(cmd *cobra.Command, job *domain.Job) error {
	if wantsJSON(cmd) {
		return writeJSON(cmd.OutOrStdout(), job)
	}
	writeJobText(cmd.OutOrStdout(), job)
	return nil
}

func writeJobText(w io.Writer, job *domain.Job) {
	fmt.Fprintf(w, "Job: %s\n", job.ID)
	fmt.Fprintf(w, "Project: %s\n", job.ProjectID)
	fmt.Fprintf(w, "Status: %s\n", job.Status)
	fmt.Fprintf(w, "Progress: %d/%d (%d ok, %d failed)\n",
		job.ProcessedItems, job.TotalItems, job.SuccessCount, job.ErrorCount)
	for _, e := range job.Errors {
		fmt.Fprintf(w, "  error: %s\n", e)
	}
}
