package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/obsidianstack/hostpager/internal/version"
	"github.com/obsidianstack/hostpager/setup/internal/config"
	"github.com/obsidianstack/hostpager/setup/internal/orchestrator"
	"github.com/obsidianstack/hostpager/setup/internal/prompt"
)

var errInterrupted = errors.New("interrupted")

// exitError carries a non-zero exit code for a run that completed but failed.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

type configureOptions struct {
	nonInteractive bool
	yes            bool
	output         string
	logLevel       string
	envFile        string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hostpager-setup",
		Short: "Wire Datadog monitors to PagerDuty through hostpager-relay",
		Long: `hostpager-setup configures the alert path for a fixed set of hosts:
it discovers matching Azure VMs (optional), registers the relay as a Datadog
webhook, creates one CPU monitor per host, sends a PagerDuty test event and
checks that the relay is reachable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newConfigureCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hostpager-setup %s (commit %s, built %s)\n",
				version.Version, version.GitCommit, version.BuildDate)
		},
	}
}

func newConfigureCmd() *cobra.Command {
	opts := &configureOptions{}
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Run the end-to-end alert path configuration",
		Long: `Run the end-to-end alert path configuration.

Interactive by default. With --non-interactive, settings come from the
environment (and a .env file when present):

  AZURE_TENANT_ID, AZURE_CLIENT_ID, AZURE_CLIENT_SECRET, AZURE_SUBSCRIPTION_ID
  DD_API_KEY, DD_APP_KEY, DD_SITE
  PAGERDUTY_ROUTING_KEY
  RELAY_WEBHOOK_URL, RELAY_SHARED_SECRET
  TARGET_HOSTS (comma-separated)

Exit status is 0 when the webhook, at least one monitor and the PagerDuty
test all succeeded, 1 otherwise, 130 when interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigure(cmd.Context(), opts, os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.nonInteractive, "non-interactive", false, "read settings from the environment instead of prompting")
	f.BoolVarP(&opts.yes, "yes", "y", false, "skip the confirmation prompt")
	f.StringVarP(&opts.output, "output", "o", "table", "report format (table, json)")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	f.StringVar(&opts.envFile, "env-file", ".env", "dotenv file read in --non-interactive mode")
	return cmd
}

func setupLogging(level string, w io.Writer) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid --log-level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

func runConfigure(ctx context.Context, opts *configureOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	if opts.output != "table" && opts.output != "json" {
		return fmt.Errorf("invalid --output %q (want table or json)", opts.output)
	}
	if err := setupLogging(opts.logLevel, stderr); err != nil {
		return err
	}

	p := prompt.New(stdin, stderr)

	var (
		in  config.Input
		err error
	)
	if opts.nonInteractive {
		in, err = config.FromEnv(opts.envFile)
	} else {
		in, err = interruptible(ctx, p.Collect)
	}
	if err != nil {
		return err
	}

	req, err := config.NewRequest(in)
	if err != nil {
		return err
	}

	fmt.Fprintln(stderr)
	fmt.Fprintln(stderr, strings.Join(req.Summary(), "\n"))
	fmt.Fprintln(stderr)

	if !opts.yes && !opts.nonInteractive {
		proceed, err := interruptible(ctx, func() (bool, error) { return p.Confirm("Proceed?") })
		if err != nil {
			return err
		}
		if !proceed {
			fmt.Fprintln(stderr, "aborted")
			return exitError{code: 1}
		}
	}

	report := orchestrator.New(req).Run(ctx)
	if ctx.Err() != nil {
		return errInterrupted
	}

	render := orchestrator.Render
	if opts.output == "json" {
		render = orchestrator.RenderJSON
	}
	if err := render(stdout, report); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if code := report.ExitCode(); code != 0 {
		return exitError{code: code}
	}
	return nil
}

// interruptible runs a blocking read and returns errInterrupted as soon as ctx
// is cancelled. The read goroutine is abandoned; the process exits right after.
func interruptible[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	done := make(chan answer[T], 1)
	go func() {
		v, err := fn()
		done <- answer[T]{v, err}
	}()
	select {
	case a := <-done:
		return a.v, a.err
	case <-ctx.Done():
		var zero T
		return zero, errInterrupted
	}
}

type answer[T any] struct {
	v   T
	err error
}
