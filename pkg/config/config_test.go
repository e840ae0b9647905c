package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type testConfig struct {
	Name    string        `envconfig:"NAME" required:"true"`
	Timeout time.Duration `split_words:"true" default:"5s"`
}

func TestNewReadsPrefixedEnvironment(t *testing.T) {
	t.Setenv("CFGTEST_NAME", "agent")
	t.Setenv("CFGTEST_TIMEOUT", "2s")

	conf, err := New[testConfig]("CFGTEST")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if conf.Name != "agent" || conf.Timeout != 2*time.Second {
		t.Fatalf("unexpected config: %+v", conf)
	}
}

func TestNewRequiredMissing(t *testing.T) {
	if _, err := New[testConfig]("CFGMISSING"); err == nil {
		t.Fatal("expected error for missing required field")
	}
}

func TestExportEnvironmentFromDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CFGFILE_NAME=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("CFGFILE_NAME") })

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	if got := os.Getenv("CFGFILE_NAME"); got != "from-file" {
		t.Fatalf("expected exported value, got %q", got)
	}
}

func TestExportEnvironmentKeepsExistingVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override")
	if err := os.WriteFile(path, []byte("CFGKEEP_NAME=from-file\nCFGKEEP_MODEL=llama\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CFGKEEP_NAME", "from-process")
	t.Cleanup(func() { _ = os.Unsetenv("CFGKEEP_MODEL") })

	if err := exportEnvironment(path); err != nil {
		t.Fatalf("exportEnvironment() error = %v", err)
	}
	if got := os.Getenv("CFGKEEP_NAME"); got != "from-process" {
		t.Fatalf("process value must win, got %q", got)
	}
	if got := os.Getenv("CFGKEEP_MODEL"); got != "llama" {
		t.Fatalf("expected exported value, got %q", got)
	}
}

func TestNewErrorNamesSection(t *testing.T) {
	_, err := New[testConfig]("cfgsection")
	if err == nil || !strings.Contains(err.Error(), "CFGSECTION") {
		t.Fatalf("expected section name in error, got %v", err)
	}
}

func TestExportEnvironmentIfExistsIgnoresMissingFile(t *testing.T) {
	if err := exportEnvironmentIfExists(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
