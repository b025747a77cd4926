package redact

import "testing"

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name string
		in   string
		show int
		want string
	}{
		{"empty value", "", 4, EmptyPlaceholder},
		{"long value shows prefix", "supersecretpassword", 4, "supe***************"},
		{"value equal to show is fully masked", "abcd", 4, "****"},
		{"value shorter than show is fully masked", "ab", 4, "**"},
		{"show zero masks everything", "secret", 0, "******"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MaskSecret(tc.in, tc.show); got != tc.want {
				t.Errorf("MaskSecret(%q, %d) = %q, want %q", tc.in, tc.show, got, tc.want)
			}
		})
	}
}

func TestSecretName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"DATABASE_PASSWORD", true},
		{"SPACES_SECRET_KEY", true},
		{"MODEL_ACCESS_KEY", true},
		{"API_TOKEN", true},
		{"CA_CERT", true},
		{"db_pass", true},
		{"DATABASE_URL", false},
		{"REDIS_HOST", false},
		{"APP_NAME", false},
	}
	for _, tc := range tests {
		if got := SecretName(tc.name); got != tc.want {
			t.Errorf("SecretName(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
