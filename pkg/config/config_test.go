package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdirForTest(t, t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Output.Prefix != "parsed-" {
		t.Errorf("Expected default prefix 'parsed-', got %q", cfg.Output.Prefix)
	}
	if cfg.Schedule.Interval != 12*time.Hour {
		t.Errorf("Expected 12h interval, got %v", cfg.Schedule.Interval)
	}
	if cfg.Glossary.Timeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.Glossary.Timeout)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dbbs.yaml")
	content := `
glossary:
  url: https://example.com/glossary
output:
  dir: /tmp/out
schedule:
  interval: 30m
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("OUTPUT_BUCKET_NAME", "glossary-bucket")
	t.Setenv("DBBS_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Glossary.URL != "https://example.com/glossary" {
		t.Errorf("Unexpected glossary url: %q", cfg.Glossary.URL)
	}
	if cfg.Schedule.Interval != 30*time.Minute {
		t.Errorf("Expected 30m interval, got %v", cfg.Schedule.Interval)
	}
	if cfg.S3.Bucket != "glossary-bucket" {
		t.Errorf("Expected bucket from OUTPUT_BUCKET_NAME, got %q", cfg.S3.Bucket)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level from env, got %q", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate returned error: %v", err)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Expected error for a missing explicit config file")
	}
}

func TestValidateCollectsMissingKeys(t *testing.T) {
	cfg := &Config{
		COS:      COSConfig{URL: "https://bucket.cos.example.com"},
		Schedule: ScheduleConfig{Interval: time.Hour},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, key := range []string{"glossary.url", "cos.secret_id", "cos.secret_key"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Expected %s in error, got %q", key, err.Error())
		}
	}
}

func TestValidateRequiresSink(t *testing.T) {
	cfg := &Config{
		Glossary: GlossaryConfig{URL: "https://example.com"},
		Schedule: ScheduleConfig{Interval: time.Hour},
	}
	if err := cfg.Validate(); !errors.Is(err, ErrNoSinks) {
		t.Fatalf("Expected ErrNoSinks, got %v", err)
	}
}

func TestValidateReplication(t *testing.T) {
	cfg := &Config{}
	err := cfg.ValidateReplication()
	if err == nil || !strings.Contains(err.Error(), "mongo.uri") || !strings.Contains(err.Error(), "postgres.dsn") {
		t.Fatalf("Expected both keys reported, got %v", err)
	}

	cfg.Mongo.URI = "mongodb://localhost"
	cfg.Supabase.URL = "https://ref.supabase.co"
	if err := cfg.ValidateReplication(); err != nil {
		t.Errorf("Expected supabase to satisfy the target, got %v", err)
	}
}

// chdirForTest changes the working directory for the duration of the test
// and restores it on cleanup (equivalent to testing.T.Chdir, added in Go 1.24).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
