package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/infracheck/internal/checkup"
	"github.com/hazz-dev/infracheck/internal/config"
	"github.com/hazz-dev/infracheck/internal/report"
	"github.com/hazz-dev/infracheck/internal/target"
)

var suiteTitles = map[string]string{
	"network":    "Network Connectivity",
	"database":   "Managed Database Validation",
	"cache":      "Managed Cache Validation",
	"kafka":      "Managed Kafka Validation",
	"opensearch": "Managed OpenSearch Validation",
	"spaces":     "Object Storage Validation",
	"gradient":   "AI Inference Validation",
	"env":        "Environment Variable Audit",
}

func executeRunners(cmd *cobra.Command, build func(checkup.Options) []checkup.Runner) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg.Override(timeoutFlag)

	printer := report.NewPrinter(out, verbose)
	opts := checkup.Options{
		Resolver: target.NewResolver(nil),
		Reporter: printer,
		Timeouts: cfg.Timeouts,
		Verbose:  verbose,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runSuites(ctx, out, printer, build(opts))
}

// runSuites executes the runners in order and derives the process outcome.
// Skipped suites are reported but never counted against the run.
func runSuites(ctx context.Context, out io.Writer, printer *report.Printer, runners []checkup.Runner) error {
	suites := make([]checkup.Suite, 0, len(runners))
	for _, r := range runners {
		title := suiteTitles[r.System()]
		if title == "" {
			title = r.System()
		}
		printer.Header(title)
		suite := r.Run(ctx)
		if suite.Skipped {
			printer.Skip(r.System(), suite.SkipReason)
		}
		suites = append(suites, suite)
	}
	if report.Summarize(out, suites) != 0 {
		return errors.New("one or more checks failed")
	}
	return nil
}
