// Package report formats check output and derives the process exit code.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/hazz-dev/infracheck/internal/checkup"
)

var (
	passLabel = color.New(color.FgGreen).Sprint("PASS")
	failLabel = color.New(color.FgRed).Sprint("FAIL")
	warnLabel = color.New(color.FgYellow).Sprint("WARN")
	infoLabel = color.New(color.FgBlue).Sprint("INFO")
	skipLabel = color.New(color.FgCyan).Sprint("SKIP")
	headline  = color.New(color.Bold, color.FgCyan)
	bold      = color.New(color.Bold)
)

const rule = "============================================================"

// Printer writes colorized check progress to a console. It implements
// checkup.Reporter.
type Printer struct {
	out     io.Writer
	verbose bool
}

// NewPrinter returns a Printer writing to out. Verbose mode adds detail to
// passing lines that is otherwise shown only on failure.
func NewPrinter(out io.Writer, verbose bool) *Printer {
	return &Printer{out: out, verbose: verbose}
}

// Verbose reports whether verbose output was requested.
func (p *Printer) Verbose() bool { return p.verbose }

// Header prints a section banner for one suite.
func (p *Printer) Header(title string) {
	fmt.Fprintln(p.out)
	headline.Fprintln(p.out, rule)
	headline.Fprintf(p.out, "%s\n", center(title, len(rule)))
	headline.Fprintln(p.out, rule)
	fmt.Fprintln(p.out)
}

// Check prints one pass/fail line. The message, when present, is indented
// under the check name.
func (p *Printer) Check(name string, passed bool, message string) {
	label := passLabel
	if !passed {
		label = failLabel
	}
	fmt.Fprintf(p.out, "  [%s] %s\n", label, name)
	if message != "" && (p.verbose || !passed) {
		for _, line := range strings.Split(message, "\n") {
			fmt.Fprintf(p.out, "        %s\n", line)
		}
	}
}

// Info prints an informational line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.out, "  [%s] %s\n", infoLabel, fmt.Sprintf(format, args...))
}

// Warn prints a warning line. Warnings never affect the exit code.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.out, "  [%s] %s\n", warnLabel, fmt.Sprintf(format, args...))
}

// Skip prints the neutral line for an unconfigured suite.
func (p *Printer) Skip(system, reason string) {
	fmt.Fprintf(p.out, "  [%s] %s: %s\n", skipLabel, system, reason)
}

// Summarize flattens all suites in order, prints the total/passed counts and
// every failure grouped by suite, and returns the process exit code: 0 when
// every record in every non-skipped suite passed, 1 otherwise.
func Summarize(out io.Writer, suites []checkup.Suite) int {
	var total, passed, failed, skipped int
	for _, s := range suites {
		if s.Skipped {
			skipped++
			continue
		}
		for _, r := range s.Records {
			total++
			if r.Passed {
				passed++
			} else {
				failed++
			}
		}
	}

	fmt.Fprintln(out)
	bold.Fprintln(out, rule)
	bold.Fprintf(out, "Summary: ")
	fmt.Fprintf(out, "%d/%d checks passed", passed, total)
	if skipped > 0 {
		fmt.Fprintf(out, " (%d suite(s) skipped: not configured)", skipped)
	}
	fmt.Fprintln(out)

	if failed > 0 {
		fmt.Fprintln(out)
		color.New(color.FgRed).Fprintln(out, "Failed checks:")
		for _, s := range suites {
			if s.Skipped {
				continue
			}
			for _, r := range s.Records {
				if r.Passed {
					continue
				}
				fmt.Fprintf(out, "  - [%s] %s\n", s.System, r.Name)
				if r.Message != "" {
					fmt.Fprintf(out, "    %s\n", r.Message)
				}
			}
		}
	}
	bold.Fprintln(out, rule)

	if failed > 0 {
		return 1
	}
	return 0
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s
}
