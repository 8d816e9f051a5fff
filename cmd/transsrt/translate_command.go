package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"transsrt/internal/config"
	"transsrt/internal/engine/provider"
	"transsrt/internal/fileutil"
	"transsrt/internal/jobs"
	"transsrt/internal/logging"
	"transsrt/internal/pipeline"
)

type translateOptions struct {
	output  string
	source  string
	target  string
	remote  bool
	verbose bool
	noStore bool
}

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var opts translateOptions

	cmd := &cobra.Command{
		Use:   "translate FILE",
		Short: "Translate an SRT or SBV subtitle file",
		Long: "Translate an SRT or SBV subtitle file and write the result as SRT.\n\n" +
			"By default the file is translated in-process using the configured engine.\n" +
			"With --remote the file is uploaded to the running daemon instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			inputPath, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}
			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read subtitle file: %w", err)
			}
			if limit := cfg.MaxFileSizeBytes(); limit > 0 && int64(len(data)) > limit {
				return fmt.Errorf("file size %s exceeds %s limit", humanize.IBytes(uint64(len(data))), humanize.IBytes(uint64(limit)))
			}

			var (
				outputName string
				content    []byte
				summary    string
			)
			if opts.remote {
				outputName, content, summary, err = translateRemote(cmd.Context(), ctx, inputPath, data, opts)
			} else {
				outputName, content, summary, err = translateLocal(cmd.Context(), cfg, cmd.ErrOrStderr(), inputPath, data, opts)
			}
			if err != nil {
				return err
			}

			target := strings.TrimSpace(opts.output)
			if target == "" {
				target = filepath.Join(filepath.Dir(inputPath), outputName)
			}
			if target == "-" {
				_, err := cmd.OutOrStdout().Write(content)
				return err
			}
			if err := fileutil.WriteFileVerified(target, content, 0o644); err != nil {
				return fmt.Errorf("write translated file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", target, summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output path (default: next to the input; '-' for stdout)")
	cmd.Flags().StringVar(&opts.source, "source", "", "Source language (name or ISO code)")
	cmd.Flags().StringVar(&opts.target, "target", "", "Target language (name or ISO code)")
	cmd.Flags().BoolVar(&opts.remote, "remote", false, "Upload to the running daemon instead of translating in-process")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log translation progress to stderr")
	cmd.Flags().BoolVar(&opts.noStore, "no-history", false, "Do not record the job in the job history")
	return cmd
}

func translateLocal(ctx context.Context, cfg *config.Config, logOut io.Writer, inputPath string, data []byte, opts translateOptions) (string, []byte, string, error) {
	logger := cliLogger(cfg, logOut, opts.verbose)

	eng, err := provider.New(ctx, cfg, logger)
	if err != nil {
		return "", nil, "", err
	}

	var store *jobs.Store
	if !opts.noStore {
		store, err = jobs.Open(cfg)
		if err != nil {
			logging.WarnWithContext(logger, "job history unavailable", "job_store_unavailable",
				logging.Error(err),
				logging.String(logging.FieldImpact, "job will not be recorded"),
			)
			store = nil
		} else {
			defer store.Close()
		}
	}

	svc := pipeline.New(cfg, eng, store, logger)
	result, err := svc.Translate(ctx, pipeline.Request{
		FileName:       filepath.Base(inputPath),
		Data:           data,
		SourceLanguage: opts.source,
		TargetLanguage: opts.target,
	})
	if err != nil {
		return "", nil, "", err
	}
	summary := fmt.Sprintf("%d entries, %d chunks, %d attempts, job %s",
		result.Entries, result.Chunks, result.Stats.TotalAttempts, shortID(result.JobID))
	return result.OutputName, []byte(result.Content), summary, nil
}

func translateRemote(ctx context.Context, cmdCtx *commandContext, inputPath string, data []byte, opts translateOptions) (string, []byte, string, error) {
	client, err := cmdCtx.client()
	if err != nil {
		return "", nil, "", err
	}
	result, err := client.Translate(ctx, filepath.Base(inputPath), data, opts.source, opts.target)
	if err != nil {
		return "", nil, "", wrapClientError(err, cmdCtx.configValue().Paths.APIBind)
	}
	if result.FileName == "" {
		return "", nil, "", errors.New("daemon reply is missing the output file name")
	}
	summary := fmt.Sprintf("%s via daemon, job %s", humanize.IBytes(uint64(len(result.Content))), shortID(result.JobID))
	return filepath.Base(result.FileName), result.Content, summary, nil
}

// cliLogger writes console logs to out. Only warnings and errors are shown
// unless verbose is set.
func cliLogger(cfg *config.Config, out io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
		if strings.EqualFold(cfg.Logging.Level, "debug") {
			level = slog.LevelDebug
		}
	}
	return logging.NewConsole(out, level)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
