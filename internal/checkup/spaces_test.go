package checkup

import (
	"context"
	"testing"
)

func clearSpacesEnv(t *testing.T) {
	t.Helper()
	for _, v := range []string{
		"SPACES_ACCESS_KEY", "DO_SPACES_KEY", "AWS_ACCESS_KEY_ID",
		"SPACES_SECRET_KEY", "DO_SPACES_SECRET", "AWS_SECRET_ACCESS_KEY",
		"SPACES_BUCKET", "DO_SPACES_BUCKET", "S3_BUCKET",
		"SPACES_REGION", "DO_SPACES_REGION", "AWS_REGION",
		"SPACES_ENDPOINT", "DO_SPACES_ENDPOINT", "AWS_ENDPOINT_URL",
	} {
		t.Setenv(v, "")
	}
}

func TestLoadSpacesConfig_Defaults(t *testing.T) {
	clearSpacesEnv(t)
	cfg := LoadSpacesConfig()
	if cfg.Region != "syd1" {
		t.Errorf("Region = %q, want syd1 default", cfg.Region)
	}
	if cfg.Endpoint != "https://syd1.digitaloceanspaces.com" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
}

func TestLoadSpacesConfig_EndpointDerivedFromRegion(t *testing.T) {
	clearSpacesEnv(t)
	t.Setenv("SPACES_REGION", "fra1")
	cfg := LoadSpacesConfig()
	if cfg.Endpoint != "https://fra1.digitaloceanspaces.com" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
}

func TestLoadSpacesConfig_ExplicitEndpointWins(t *testing.T) {
	clearSpacesEnv(t)
	t.Setenv("SPACES_REGION", "fra1")
	t.Setenv("SPACES_ENDPOINT", "https://minio.internal:9000")
	cfg := LoadSpacesConfig()
	if cfg.Endpoint != "https://minio.internal:9000" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
}

func TestLoadSpacesConfig_AWSAliases(t *testing.T) {
	clearSpacesEnv(t)
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA123")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "shhh")
	t.Setenv("S3_BUCKET", "my-bucket")
	cfg := LoadSpacesConfig()
	if cfg.AccessKey != "AKIA123" || cfg.SecretKey != "shhh" || cfg.Bucket != "my-bucket" {
		t.Errorf("aliases not read: %+v", cfg)
	}
}

func TestSpacesRun_SkipWithoutCredentials(t *testing.T) {
	clearSpacesEnv(t)
	r := NewSpacesRunner(testOpts())
	suite := r.Run(context.Background())
	if !suite.Skipped {
		t.Fatal("expected skip without credentials")
	}
}

func TestSpacesRun_MissingBucketIsFailure(t *testing.T) {
	clearSpacesEnv(t)
	t.Setenv("SPACES_ACCESS_KEY", "key")
	t.Setenv("SPACES_SECRET_KEY", "secret")

	r := NewSpacesRunner(testOpts())
	suite := r.Run(context.Background())
	if suite.Skipped {
		t.Fatal("partial configuration must not skip")
	}
	if !suite.Failed() {
		t.Fatalf("expected config failure: %+v", suite.Records)
	}
	if rec := findRecord(t, &suite, "Spaces Config"); rec.Passed {
		t.Error("config record should have failed")
	}
}
