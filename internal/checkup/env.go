package checkup

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/hazz-dev/infracheck/internal/redact"
)

// defaultRequiredVars is checked when the env subcommand gets no --required
// list.
var defaultRequiredVars = []string{"DATABASE_URL", "REDIS_URL"}

// urlFormatPatterns validate the shape of known connection variables.
var urlFormatPatterns = []struct {
	kind    string
	pattern *regexp.Regexp
}{
	{"postgresql", regexp.MustCompile(`^postgres(ql)?://[^:]+:[^@]+@[^:/]+:\d+/.+`)},
	{"mysql", regexp.MustCompile(`^mysql://[^:]+:[^@]+@[^:/]+:\d+/.+`)},
	{"mongodb", regexp.MustCompile(`^mongodb(\+srv)?://[^:]+:[^@]+@[^/]+/.+`)},
	{"redis", regexp.MustCompile(`^rediss?://[^@]*@?[^:/]+:\d+`)},
	{"http", regexp.MustCompile(`^https?://.+`)},
}

// bindablePattern matches unresolved platform bindings like ${db.DATABASE_URL}.
var bindablePattern = regexp.MustCompile(`\$\{[^}]+\}`)

// platformPrefixes select the environment variables included in the dump.
var platformPrefixes = []string{
	"DATABASE_", "REDIS_", "MONGO", "MYSQL_", "POSTGRES_", "PG_",
	"KAFKA_", "OPENSEARCH_", "SPACES_", "DO_", "DIGITALOCEAN_",
	"MODEL_", "INFERENCE_", "GRADIENT_", "CA_CERT", "APP_", "VALKEY_", "CACHE_",
}

// urlFormatVars are the connection variables whose format is validated when
// present.
var urlFormatVars = []string{
	"DATABASE_URL", "DATABASE_PRIVATE_URL",
	"MYSQL_URL", "MYSQL_PRIVATE_URL",
	"REDIS_URL", "REDIS_PRIVATE_URL",
	"MONGODB_URI", "MONGODB_PRIVATE_URI",
	"OPENSEARCH_URL", "OPENSEARCH_PRIVATE_URL",
	"INFERENCE_ENDPOINT",
}

// EnvRunner audits the environment: required variables present and resolved,
// connection URLs well-formed, platform variables dumped with secrets masked.
type EnvRunner struct {
	opts     Options
	required []string
}

// NewEnvRunner returns the env runner. An empty required list falls back to
// the defaults.
func NewEnvRunner(opts Options, required []string) *EnvRunner {
	if len(required) == 0 {
		required = defaultRequiredVars
	}
	return &EnvRunner{opts: opts, required: required}
}

func (r *EnvRunner) System() string { return "env" }

func (r *EnvRunner) Run(ctx context.Context) Suite {
	suite := Suite{System: r.System()}
	rep := r.opts.reporter()

	rep.Info("checking required variables...")
	for _, name := range r.required {
		passed, detail := checkRequiredVar(name)
		suite.add("Env: "+name, passed, detail)
		rep.Check(name, passed, detail)
	}

	vars := platformVars()
	if len(vars) > 0 {
		rep.Info("found %d platform-related variables", len(vars))
		for _, kv := range vars {
			if bindablePattern.MatchString(kv.value) {
				detail := "unresolved: " + truncate(kv.value, 40)
				suite.add("Env: "+kv.name, false, detail)
				rep.Check(kv.name, false, detail)
				continue
			}
			if r.opts.Verbose {
				display := kv.value
				if redact.SecretName(kv.name) {
					display = redact.MaskSecret(kv.value, 8)
				} else {
					display = truncate(display, 40)
				}
				rep.Info("%s=%s", kv.name, display)
			}
		}
	}

	rep.Info("validating URL formats...")
	for _, name := range urlFormatVars {
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		valid, detail := checkURLFormat(value)
		suite.add("URL: "+name, valid, detail)
		rep.Check(name+" format", valid, detail)
	}

	for _, w := range exposedSecretWarnings() {
		rep.Warn("%s", w)
	}

	return suite
}

func checkRequiredVar(name string) (bool, string) {
	value := os.Getenv(name)
	if value == "" {
		return false, "not set"
	}
	if bindablePattern.MatchString(value) {
		return false, "unresolved: " + truncate(value, 50)
	}
	return true, redact.MaskSecret(value, 8)
}

func checkURLFormat(value string) (bool, string) {
	if bindablePattern.MatchString(value) {
		matches := bindablePattern.FindAllString(value, 3)
		return false, "unresolved variables: " + strings.Join(matches, ", ")
	}
	for _, p := range urlFormatPatterns {
		if p.pattern.MatchString(value) {
			return true, fmt.Sprintf("valid %s URL format", p.kind)
		}
	}
	if strings.Contains(value, "://") {
		return true, "URL format (unknown scheme)"
	}
	return false, "invalid URL format"
}

type envVar struct {
	name, value string
}

func platformVars() []envVar {
	var vars []envVar
	for _, kv := range os.Environ() {
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			continue
		}
		name, value := kv[:eq], kv[eq+1:]
		upper := strings.ToUpper(name)
		for _, prefix := range platformPrefixes {
			if strings.HasPrefix(upper, prefix) {
				vars = append(vars, envVar{name, value})
				break
			}
		}
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].name < vars[j].name })
	return vars
}

// exposedSecretWarnings flags non-secret variables that appear to carry a
// password inline.
func exposedSecretWarnings() []string {
	var warnings []string
	for _, kv := range os.Environ() {
		eq := strings.IndexByte(kv, '=')
		if eq < 0 || eq == len(kv)-1 {
			continue
		}
		name, value := kv[:eq], kv[eq+1:]
		if redact.SecretName(name) {
			continue
		}
		if strings.Contains(strings.ToLower(value), "password=") &&
			!strings.Contains(strings.ToUpper(name), "URL") {
			warnings = append(warnings, name+" may contain an exposed password")
		}
	}
	return warnings
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
