package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/hazz-dev/infracheck/internal/checkup"
	"github.com/hazz-dev/infracheck/internal/report"
)

type stubRunner struct {
	system string
	suite  checkup.Suite
}

func (s stubRunner) System() string                  { return s.system }
func (s stubRunner) Run(context.Context) checkup.Suite { return s.suite }

func TestRunSuites_AllPass(t *testing.T) {
	var buf bytes.Buffer
	runners := []checkup.Runner{
		stubRunner{system: "cache", suite: checkup.Suite{
			System:  "cache",
			Records: []checkup.Record{{Name: "PING", Passed: true}},
		}},
	}

	err := runSuites(context.Background(), &buf, report.NewPrinter(&buf, false), runners)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "1/1 checks passed") {
		t.Errorf("expected summary in output, got:\n%s", buf.String())
	}
}

func TestRunSuites_FailureSetsError(t *testing.T) {
	var buf bytes.Buffer
	runners := []checkup.Runner{
		stubRunner{system: "database", suite: checkup.Suite{
			System: "database",
			Records: []checkup.Record{
				{Name: "TCP Connectivity", Passed: true},
				{Name: "Authentication", Passed: false, Message: "password authentication failed"},
			},
		}},
	}

	err := runSuites(context.Background(), &buf, report.NewPrinter(&buf, false), runners)
	if err == nil {
		t.Fatal("expected error when a check fails")
	}
	out := buf.String()
	if !strings.Contains(out, "Authentication") {
		t.Errorf("expected failed check listed, got:\n%s", out)
	}
	if !strings.Contains(out, "password authentication failed") {
		t.Errorf("expected failure detail listed, got:\n%s", out)
	}
}

func TestRunSuites_SkippedSuiteIsNeutral(t *testing.T) {
	var buf bytes.Buffer
	runners := []checkup.Runner{
		stubRunner{system: "kafka", suite: checkup.Suite{
			System: "kafka", Skipped: true, SkipReason: "no broker configured",
		}},
		stubRunner{system: "network", suite: checkup.Suite{
			System:  "network",
			Records: []checkup.Record{{Name: "DNS Resolution", Passed: true}},
		}},
	}

	err := runSuites(context.Background(), &buf, report.NewPrinter(&buf, false), runners)
	if err != nil {
		t.Fatalf("skipped suite must not fail the run: %v", err)
	}
	if !strings.Contains(buf.String(), "no broker configured") {
		t.Errorf("expected skip reason in output, got:\n%s", buf.String())
	}
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	root := rootCmd()
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "infracheck") {
		t.Errorf("expected version string, got: %q", buf.String())
	}
}
