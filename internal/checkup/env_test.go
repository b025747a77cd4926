package checkup

import (
	"context"
	"strings"
	"testing"
)

func TestCheckRequiredVar(t *testing.T) {
	t.Setenv("INFRACHECK_TEST_VAR", "")
	if ok, detail := checkRequiredVar("INFRACHECK_TEST_VAR"); ok || detail != "not set" {
		t.Errorf("unset var: ok=%v detail=%q", ok, detail)
	}

	t.Setenv("INFRACHECK_TEST_VAR", "${db.DATABASE_URL}")
	if ok, detail := checkRequiredVar("INFRACHECK_TEST_VAR"); ok || !strings.Contains(detail, "unresolved") {
		t.Errorf("bindable var: ok=%v detail=%q", ok, detail)
	}

	t.Setenv("INFRACHECK_TEST_VAR", "postgresql://u:p@h:5432/db")
	ok, detail := checkRequiredVar("INFRACHECK_TEST_VAR")
	if !ok {
		t.Errorf("set var: ok=%v detail=%q", ok, detail)
	}
	if strings.Contains(detail, "u:p@h") {
		t.Errorf("detail must be masked, got %q", detail)
	}
}

func TestCheckURLFormat(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"valid postgres", "postgresql://user:pw@host:25060/defaultdb?sslmode=require", true},
		{"valid mysql", "mysql://user:pw@host:25060/defaultdb", true},
		{"valid mongodb srv", "mongodb+srv://user:pw@cluster.example.com/admin", true},
		{"valid rediss", "rediss://default:pw@host:25061", true},
		{"valid https", "https://inference.do-ai.run", true},
		{"unknown scheme with separator", "foo://bar", true},
		{"unresolved binding", "${db.DATABASE_URL}", false},
		{"not a url", "just-a-string", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			valid, detail := checkURLFormat(tc.value)
			if valid != tc.valid {
				t.Errorf("checkURLFormat(%q) = %v (%s), want %v", tc.value, valid, detail, tc.valid)
			}
		})
	}
}

func TestCheckURLFormat_ReportsBindings(t *testing.T) {
	_, detail := checkURLFormat("postgresql://u:p@${db.HOSTNAME}:${db.PORT}/db")
	if !strings.Contains(detail, "${db.HOSTNAME}") {
		t.Errorf("expected binding names in detail, got %q", detail)
	}
}

func TestEnvRun_RequiredVarMissing(t *testing.T) {
	t.Setenv("INFRACHECK_REQUIRED_A", "")

	r := NewEnvRunner(testOpts(), []string{"INFRACHECK_REQUIRED_A"})
	suite := r.Run(context.Background())

	rec := findRecord(t, &suite, "Env: INFRACHECK_REQUIRED_A")
	if rec.Passed {
		t.Error("missing required var must fail")
	}
}

func TestEnvRun_RequiredVarSet(t *testing.T) {
	t.Setenv("INFRACHECK_REQUIRED_A", "postgresql://u:p@h:5432/db")

	r := NewEnvRunner(testOpts(), []string{"INFRACHECK_REQUIRED_A"})
	suite := r.Run(context.Background())

	rec := findRecord(t, &suite, "Env: INFRACHECK_REQUIRED_A")
	if !rec.Passed {
		t.Errorf("set required var must pass: %s", rec.Message)
	}
}

func TestEnvRun_DefaultRequiredList(t *testing.T) {
	r := NewEnvRunner(testOpts(), nil)
	if len(r.required) != len(defaultRequiredVars) {
		t.Errorf("empty list must fall back to defaults, got %v", r.required)
	}
}

func TestPlatformVars_SortedAndFiltered(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgresql://u:p@h:5432/db")
	t.Setenv("KAFKA_BROKER", "b:25073")
	t.Setenv("UNRELATED_VARIABLE_XYZ", "nope")

	names := make(map[string]bool)
	var prev string
	for _, kv := range platformVars() {
		names[kv.name] = true
		if prev > kv.name {
			t.Errorf("not sorted: %q before %q", prev, kv.name)
		}
		prev = kv.name
	}
	if !names["DATABASE_URL"] || !names["KAFKA_BROKER"] {
		t.Errorf("expected platform vars present, got %v", names)
	}
	if names["UNRELATED_VARIABLE_XYZ"] {
		t.Error("unrelated var must be filtered out")
	}
}

func TestExposedSecretWarnings(t *testing.T) {
	t.Setenv("APP_CONN_STRING", "host=db;password=hunter2")
	warnings := exposedSecretWarnings()
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "APP_CONN_STRING") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected warning for inline password, got %v", warnings)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("0123456789abc", 10); got != "0123456789..." {
		t.Errorf("truncate = %q", got)
	}
}
