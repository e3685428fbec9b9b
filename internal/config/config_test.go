package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv pins every variable New reads so tests stay hermetic no matter
// what the host shell exports.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvPort, EnvLogLevel, EnvMediaDir, EnvConfigFile, EnvHeadless,
		EnvCloudURL, EnvCloudToken, EnvCloudOrg,
	} {
		t.Setenv(key, "")
	}
	t.Setenv(EnvDataDir, t.TempDir())
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port() != DefaultPort {
		t.Errorf("port = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel {
		t.Errorf("log_level = %q, want %q", cfg.LogLevel(), DefaultLogLevel)
	}
	if filepath.Base(cfg.DBPath()) != DBFilename {
		t.Errorf("db_path = %q, want it to end in %s", cfg.DBPath(), DBFilename)
	}
	if cfg.CacheDir() != filepath.Join(cfg.DataDir(), "cache") {
		t.Errorf("cache_dir = %q, want it under the data dir", cfg.CacheDir())
	}
	if cfg.MediaDir() != filepath.Join(cfg.DataDir(), "media") {
		t.Errorf("media_dir = %q, want it under the data dir", cfg.MediaDir())
	}
	if cfg.CloudEnabled() {
		t.Error("cloud should be disabled without a URL and token")
	}
}

func TestNew_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPort, "9001")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvMediaDir, "/mnt/footage")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port() != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Port())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("log_level = %q, want %q", cfg.LogLevel(), "debug")
	}
	if cfg.MediaDir() != "/mnt/footage" {
		t.Errorf("media_dir = %q, want %q", cfg.MediaDir(), "/mnt/footage")
	}
}

func TestNew_InvalidPort(t *testing.T) {
	clearEnv(t)

	t.Setenv(EnvPort, "not-a-port")
	if _, err := New(); err == nil {
		t.Fatal("expected error for non-numeric port")
	}

	t.Setenv(EnvPort, "70000")
	if _, err := New(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestNew_FileValues(t *testing.T) {
	clearEnv(t)
	dataDir := os.Getenv(EnvDataDir)

	yml := strings.Join([]string{
		"port: 9100",
		"log_level: warn",
		"cloud:",
		"  url: https://api.cutroom.co",
		"  token: s3cret",
		"  org: acme",
	}, "\n")
	if err := os.WriteFile(filepath.Join(dataDir, ConfigFilename), []byte(yml), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port() != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Port())
	}
	if cfg.LogLevel() != "warn" {
		t.Errorf("log_level = %q, want %q", cfg.LogLevel(), "warn")
	}
	if !cfg.CloudEnabled() {
		t.Fatal("cloud should be enabled with a URL and token")
	}
	if cfg.CloudBaseURL() != "https://api.cutroom.co" {
		t.Errorf("cloud url = %q", cfg.CloudBaseURL())
	}
	if cfg.CloudOrgSlug() != "acme" {
		t.Errorf("cloud org = %q, want %q", cfg.CloudOrgSlug(), "acme")
	}
}

func TestNew_EnvBeatsFile(t *testing.T) {
	clearEnv(t)
	dataDir := os.Getenv(EnvDataDir)

	if err := os.WriteFile(filepath.Join(dataDir, ConfigFilename), []byte("port: 9100\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(EnvPort, "9200")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9200 {
		t.Errorf("port = %d, want the environment to win over the file", cfg.Port())
	}
}

func TestNew_ExplicitConfigFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := New(); err == nil {
		t.Fatal("expected error when an explicit config file is missing")
	}
}

func TestNew_MalformedConfigFile(t *testing.T) {
	clearEnv(t)
	dataDir := os.Getenv(EnvDataDir)

	if err := os.WriteFile(filepath.Join(dataDir, ConfigFilename), []byte("port: [oops\n"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := New(); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestNew_Headless(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Headless() {
		t.Error("headless should default to false")
	}

	t.Setenv(EnvHeadless, "true")
	cfg, err = New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Headless() {
		t.Error("headless = false, want true from the environment")
	}

	t.Setenv(EnvHeadless, "sideways")
	if _, err := New(); err == nil {
		t.Fatal("expected error for a non-boolean headless value")
	}
}

func TestCloudEnabled_RequiresToken(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvCloudURL, "https://api.cutroom.co")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CloudEnabled() {
		t.Error("cloud should stay disabled without a token")
	}
}
