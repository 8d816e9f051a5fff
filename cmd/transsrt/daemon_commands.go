package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"transsrt/internal/config"
	"transsrt/internal/daemonctl"
	"transsrt/internal/daemonrun"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var startLogLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the translation daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(cmd.Context(), cfg, exe, daemonctl.LaunchOptions{
				ConfigPath: ctx.configFlagValue(),
				LogLevel:   startLogLevel,
			}, 10*time.Second)
			if err != nil {
				return err
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintf(stdout, "Daemon started on %s\n", result.Address)
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintf(stdout, "Daemon already running on %s\n", result.Address)
			}
			return nil
		},
	}
	startCmd.Flags().StringVar(&startLogLevel, "log-level", "", "Log level for the daemon")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the translation daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.Stop(ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon did not exit in time; killed process (pid %d)\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"health"},
		Short:   "Show daemon health and job counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			health, err := client.Health(cmd.Context())
			if err != nil {
				detail := wrapClientError(err, cfg.Paths.APIBind).Error()
				fmt.Fprintln(stdout, renderStatusLine("Status", statusError, detail, colorize))
				return nil
			}

			kind := statusOK
			if health.Status != "healthy" {
				kind = statusWarn
			}
			fmt.Fprintln(stdout, renderStatusLine("Status", kind, health.Status, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Address", statusInfo, cfg.Paths.APIBind, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Version", statusInfo, health.Service+" "+health.Version, colorize))
			if pid := daemonrun.ReadPID(cfg); pid > 0 {
				fmt.Fprintln(stdout, renderStatusLine("PID", statusInfo, fmt.Sprint(pid), colorize))
			}
			provider := health.Provider
			if provider == "" {
				provider = cfg.Engine.Provider + " (not initialized)"
			}
			fmt.Fprintln(stdout, renderStatusLine("Provider", statusInfo, provider, colorize))
			if health.Breaker != "" {
				breakerKind := statusOK
				if health.Breaker != "closed" {
					breakerKind = statusWarn
				}
				fmt.Fprintln(stdout, renderStatusLine("Circuit breaker", breakerKind, health.Breaker, colorize))
			}
			fmt.Fprintln(stdout, renderStatusLine("Auth", statusInfo, yesNo(cfg.Paths.APIToken != ""), colorize))
			if info, err := os.Stat(logPath(cfg)); err == nil {
				detail := fmt.Sprintf("%s (%s, updated %s)", logPath(cfg), humanize.IBytes(uint64(info.Size())), humanize.Time(info.ModTime()))
				fmt.Fprintln(stdout, renderStatusLine("Log", statusInfo, detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Jobs", colorize) {
				fmt.Fprintln(stdout, line)
			}
			rows := jobCountRows(health.Jobs)
			if len(rows) == 0 {
				fmt.Fprintln(stdout, "No jobs recorded")
				return nil
			}
			fmt.Fprint(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintln(stdout)
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func jobCountRows(counts map[string]int) [][]string {
	keys := make([]string, 0, len(counts))
	total := 0
	for key, count := range counts {
		keys = append(keys, key)
		total += count
	}
	if total == 0 {
		return nil
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys)+1)
	for _, key := range keys {
		rows = append(rows, []string{titleCase(key), fmt.Sprint(counts[key])})
	}
	rows = append(rows, []string{"Total", fmt.Sprint(total)})
	return rows
}

func logPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, daemonrun.LogFileName)
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func titleCase(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}
