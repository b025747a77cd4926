// Package redact keeps secret material out of check output.
package redact

import "strings"

// EmptyPlaceholder is shown when a secret value is absent.
const EmptyPlaceholder = "<empty>"

// MaskSecret shows at most the first show characters of s and replaces the
// rest with asterisks. Values no longer than show are fully masked so the
// whole secret is never revealed.
func MaskSecret(s string, show int) string {
	if s == "" {
		return EmptyPlaceholder
	}
	if len(s) <= show {
		return strings.Repeat("*", len(s))
	}
	return s[:show] + strings.Repeat("*", len(s)-show)
}

var secretKeywords = []string{"PASSWORD", "SECRET", "KEY", "TOKEN", "CREDENTIAL", "CERT", "PASS"}

// SecretName reports whether an environment variable name looks like it holds
// credential material and must be masked in dumps.
func SecretName(name string) bool {
	upper := strings.ToUpper(name)
	for _, kw := range secretKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
