// Package checkup runs connectivity and permission probes against managed
// services and records pass/fail observations.
package checkup

// Record is one atomic pass/fail observation from a probe step.
type Record struct {
	Name    string
	Passed  bool
	Message string
}

// Suite is the ordered result of one runner invocation. Record order is
// execution order. A skipped suite carries no records and never affects the
// aggregate exit code.
type Suite struct {
	System  string
	Records []Record
	Skipped bool
	// SkipReason explains a skip, typically the env vars that would enable
	// the check.
	SkipReason string
}

// Failed reports whether any record in the suite failed. Skipped suites never
// fail.
func (s *Suite) Failed() bool {
	if s.Skipped {
		return false
	}
	for _, r := range s.Records {
		if !r.Passed {
			return true
		}
	}
	return false
}

// add appends a record and returns whether it passed, which keeps the
// early-exit branches in runners terse.
func (s *Suite) add(name string, passed bool, message string) bool {
	s.Records = append(s.Records, Record{Name: name, Passed: passed, Message: message})
	return passed
}

// Reporter receives check progress for console display. The report package
// provides the color console implementation; tests use a no-op.
type Reporter interface {
	Check(name string, passed bool, message string)
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

// NopReporter discards all output.
type NopReporter struct{}

func (NopReporter) Check(string, bool, string) {}
func (NopReporter) Info(string, ...any)        {}
func (NopReporter) Warn(string, ...any)        {}
