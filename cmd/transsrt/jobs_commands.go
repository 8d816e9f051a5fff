package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"transsrt/internal/api"
	"transsrt/internal/jobs"
)

const defaultJobsLimit = 20

// jobSource reads job history either from the local store or the daemon.
type jobSource interface {
	List(ctx context.Context, limit int, statuses []string) ([]api.Job, error)
	Describe(ctx context.Context, id string) (*api.Job, error)
}

type localJobs struct{ svc *api.JobService }

func (l localJobs) List(ctx context.Context, limit int, statuses []string) ([]api.Job, error) {
	filter := make([]jobs.Status, 0, len(statuses))
	for _, raw := range statuses {
		status, ok := jobs.ParseStatus(strings.ToLower(strings.TrimSpace(raw)))
		if !ok {
			return nil, fmt.Errorf("unknown job status %q (valid: running, completed, failed)", raw)
		}
		filter = append(filter, status)
	}
	return l.svc.List(ctx, limit, filter...)
}

func (l localJobs) Describe(ctx context.Context, id string) (*api.Job, error) {
	return l.svc.Describe(ctx, id)
}

type remoteJobs struct{ ctx *commandContext }

func (r remoteJobs) List(ctx context.Context, limit int, statuses []string) ([]api.Job, error) {
	client, err := r.ctx.client()
	if err != nil {
		return nil, err
	}
	list, err := client.ListJobs(ctx, limit, statuses...)
	if err != nil {
		return nil, wrapClientError(err, r.ctx.configValue().Paths.APIBind)
	}
	return list, nil
}

func (r remoteJobs) Describe(ctx context.Context, id string) (*api.Job, error) {
	client, err := r.ctx.client()
	if err != nil {
		return nil, err
	}
	job, err := client.GetJob(ctx, id)
	if err != nil {
		return nil, wrapClientError(err, r.ctx.configValue().Paths.APIBind)
	}
	return &job, nil
}

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var remote bool
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect translation job history",
	}
	jobsCmd.PersistentFlags().BoolVar(&remote, "remote", false, "Query the running daemon instead of the local job database")

	withSource := func(fn func(jobSource) error) error {
		if remote {
			return fn(remoteJobs{ctx: ctx})
		}
		return ctx.withStore(func(store *jobs.Store) error {
			return fn(localJobs{svc: api.NewJobService(store)})
		})
	}

	jobsCmd.AddCommand(newJobsListCommand(withSource))
	jobsCmd.AddCommand(newJobsShowCommand(withSource))
	jobsCmd.AddCommand(newJobsPruneCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(withSource func(func(jobSource) error) error) *cobra.Command {
	var statuses []string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			return withSource(func(src jobSource) error {
				list, err := src.List(cmd.Context(), limit, statuses)
				if err != nil {
					return err
				}
				if asJSON {
					if list == nil {
						list = []api.Job{}
					}
					return writeJSON(cmd, list)
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No jobs found")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "File", "Languages", "Status", "Entries", "Chunks", "Duration", "Created"},
					jobRows(list, shouldColorize(out)),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (running, completed, failed)")
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultJobsLimit, "Maximum number of jobs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newJobsShowCommand(withSource func(func(jobSource) error) error) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one job (ID or unique prefix)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSource(func(src jobSource) error {
				job, err := src.Describe(cmd.Context(), strings.TrimSpace(args[0]))
				if err != nil {
					if errors.Is(err, jobs.ErrAmbiguousID) {
						return fmt.Errorf("job id %q matches more than one job; use a longer prefix", args[0])
					}
					return err
				}
				if job == nil {
					return fmt.Errorf("job %s not found", args[0])
				}
				if asJSON {
					return writeJSON(cmd, job)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderDetails(jobDetails(*job)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newJobsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished jobs older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return errors.New("--older-than must be positive")
			}
			return ctx.withStore(func(store *jobs.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s finished job(s) older than %s\n", humanize.Comma(removed), olderThan)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff (e.g. 72h)")
	return cmd
}

func jobRows(list []api.Job, colorize bool) [][]string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		rows = append(rows, []string{
			shortID(job.ID),
			job.FileName,
			job.SourceLanguage + " -> " + job.TargetLanguage,
			colorizeStatus(job.Status, colorize),
			fmt.Sprint(job.Entries),
			fmt.Sprint(job.Chunks),
			formatDurationMS(job.DurationMS),
			relativeTime(job.CreatedAt),
		})
	}
	return rows
}

func jobDetails(job api.Job) [][2]string {
	pairs := [][2]string{
		{"ID", job.ID},
		{"File", job.FileName},
		{"Format", strings.ToUpper(job.Format)},
		{"Languages", job.SourceLanguage + " -> " + job.TargetLanguage},
		{"Provider", job.Provider},
		{"Status", job.Status},
		{"Entries", fmt.Sprint(job.Entries)},
		{"Chunks", fmt.Sprint(job.Chunks)},
		{"Attempts", fmt.Sprint(job.Attempts)},
		{"Retries", fmt.Sprint(job.Retries)},
		{"Duration", formatDurationMS(job.DurationMS)},
		{"Output", job.OutputName},
		{"Error kind", job.ErrorKind},
		{"Error", job.ErrorMessage},
		{"Created", job.CreatedAt},
		{"Updated", job.UpdatedAt},
	}
	return pairs
}

func formatDurationMS(ms int64) string {
	if ms <= 0 {
		return "-"
	}
	return (time.Duration(ms) * time.Millisecond).Round(100 * time.Millisecond).String()
}

func relativeTime(value string) string {
	ts := api.ParseJobTime(value)
	if ts.IsZero() {
		return value
	}
	return humanize.Time(ts)
}
