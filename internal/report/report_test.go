package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hazz-dev/infracheck/internal/checkup"
)

func TestSummarize_AllPass(t *testing.T) {
	suites := []checkup.Suite{
		{System: "network", Records: []checkup.Record{
			{Name: "DNS Resolution", Passed: true},
			{Name: "External HTTPS", Passed: true},
		}},
	}

	var buf bytes.Buffer
	if code := Summarize(&buf, suites); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(buf.String(), "2/2 checks passed") {
		t.Errorf("expected pass count, got:\n%s", buf.String())
	}
}

func TestSummarize_BuriedFailure(t *testing.T) {
	suites := []checkup.Suite{
		{System: "network", Records: []checkup.Record{{Name: "DNS Resolution", Passed: true}}},
		{System: "database", Records: []checkup.Record{
			{Name: "TCP Connectivity", Passed: true},
			{Name: "Authentication", Passed: false, Message: "bad password"},
			{Name: "Cleanup", Passed: true},
		}},
		{System: "cache", Records: []checkup.Record{{Name: "PING", Passed: true}}},
	}

	var buf bytes.Buffer
	if code := Summarize(&buf, suites); code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	out := buf.String()
	if !strings.Contains(out, "[database] Authentication") {
		t.Errorf("expected failure grouped under suite, got:\n%s", out)
	}
	if !strings.Contains(out, "bad password") {
		t.Errorf("expected failure message, got:\n%s", out)
	}
}

func TestSummarize_SkippedSuitesAreNeutral(t *testing.T) {
	suites := []checkup.Suite{
		{System: "network", Records: []checkup.Record{{Name: "DNS Resolution", Passed: true}}},
		{System: "kafka", Skipped: true, SkipReason: "no broker configured"},
		{System: "spaces", Skipped: true, SkipReason: "no credentials configured"},
	}

	var buf bytes.Buffer
	if code := Summarize(&buf, suites); code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
	if !strings.Contains(buf.String(), "2 suite(s) skipped") {
		t.Errorf("expected skip count, got:\n%s", buf.String())
	}
}

func TestSummarize_AllSkipped(t *testing.T) {
	suites := []checkup.Suite{
		{System: "kafka", Skipped: true},
		{System: "spaces", Skipped: true},
	}
	var buf bytes.Buffer
	if code := Summarize(&buf, suites); code != 0 {
		t.Fatalf("exit code = %d, want 0 when nothing ran", code)
	}
}

func TestPrinter_FailureShowsMessage(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	p.Check("TCP Connectivity", false, "connection refused")

	out := buf.String()
	if !strings.Contains(out, "TCP Connectivity") {
		t.Errorf("expected check name, got: %q", out)
	}
	if !strings.Contains(out, "connection refused") {
		t.Errorf("failure message must always print, got: %q", out)
	}
}

func TestPrinter_PassMessageOnlyVerbose(t *testing.T) {
	var quiet, loud bytes.Buffer

	NewPrinter(&quiet, false).Check("PING", true, "PONG in 2ms")
	if strings.Contains(quiet.String(), "PONG") {
		t.Errorf("pass detail must be hidden without verbose, got: %q", quiet.String())
	}

	NewPrinter(&loud, true).Check("PING", true, "PONG in 2ms")
	if !strings.Contains(loud.String(), "PONG") {
		t.Errorf("pass detail must show in verbose mode, got: %q", loud.String())
	}
}

func TestPrinter_Header(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf, false).Header("Managed Database Validation")
	if !strings.Contains(buf.String(), "Managed Database Validation") {
		t.Errorf("expected title in banner, got:\n%s", buf.String())
	}
}
