package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// isolate points the config at an empty env file so a developer's .env
// never leaks into tests.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvEnvFile, filepath.Join(dir, "missing.env"))
	t.Setenv(EnvConfigFile, "")
	for _, key := range []string{
		EnvPort, EnvLogLevel, EnvDataDir, EnvFFprobePath, EnvProbeTimeout,
		EnvProbeCacheSize, EnvProbeCacheTTL, EnvSaveDebounce,
		EnvResolveConcurrency, EnvWatchMedia,
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestNew_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel {
		t.Errorf("LogLevel() = %q, want %q", cfg.LogLevel(), DefaultLogLevel)
	}
	if cfg.SaveDebounce() != 400*time.Millisecond {
		t.Errorf("SaveDebounce() = %v, want 400ms", cfg.SaveDebounce())
	}
	if !cfg.WatchMedia() {
		t.Error("WatchMedia() = false, want true")
	}
	if got, want := cfg.DBPath(), filepath.Join(cfg.DataDir(), DBFilename); got != want {
		t.Errorf("DBPath() = %q, want %q", got, want)
	}
	if got, want := cfg.MediaDir(), filepath.Join(cfg.DataDir(), "media"); got != want {
		t.Errorf("MediaDir() = %q, want %q", got, want)
	}
}

func TestNew_YAMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "clipforge.yaml")
	yml := "port: 9100\nlog_level: debug\ndata_dir: /srv/clipforge\nprobe_timeout: 5s\nresolve_concurrency: 8\nwatch_media: false\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(EnvConfigFile, path)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9100 || cfg.LogLevel() != "debug" || cfg.DataDir() != "/srv/clipforge" {
		t.Errorf("file values not applied: port=%d level=%q dir=%q", cfg.Port(), cfg.LogLevel(), cfg.DataDir())
	}
	if cfg.ProbeTimeout() != 5*time.Second {
		t.Errorf("ProbeTimeout() = %v, want 5s", cfg.ProbeTimeout())
	}
	if cfg.ResolveConcurrency() != 8 {
		t.Errorf("ResolveConcurrency() = %d, want 8", cfg.ResolveConcurrency())
	}
	if cfg.WatchMedia() {
		t.Error("WatchMedia() = true, want false")
	}
	if cfg.FFprobePath() != DefaultFFprobePath {
		t.Errorf("FFprobePath() = %q, want default", cfg.FFprobePath())
	}
}

func TestNew_EnvOverridesFileAndDotenv(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "clipforge.yaml")
	if err := os.WriteFile(cfgPath, []byte("port: 9100\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	envPath := filepath.Join(dir, "test.env")
	dotenv := "CLIPFORGE_CONFIG=" + cfgPath + "\nCLIPFORGE_FFPROBE_PATH=/opt/ffmpeg/bin/ffprobe\nCLIPFORGE_LOG_LEVEL=warn\n"
	if err := os.WriteFile(envPath, []byte(dotenv), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv(EnvEnvFile, envPath)
	os.Unsetenv(EnvConfigFile)
	os.Unsetenv(EnvFFprobePath)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvSaveDebounce, "1s")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9100 {
		t.Errorf("Port() = %d, want 9100 from the file named in .env", cfg.Port())
	}
	if cfg.FFprobePath() != "/opt/ffmpeg/bin/ffprobe" {
		t.Errorf("FFprobePath() = %q, want .env value", cfg.FFprobePath())
	}
	if cfg.LogLevel() != "error" {
		t.Errorf("LogLevel() = %q, want environment to win over .env", cfg.LogLevel())
	}
	if cfg.SaveDebounce() != time.Second {
		t.Errorf("SaveDebounce() = %v, want 1s", cfg.SaveDebounce())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port not a number", EnvPort, "abc"},
		{"port out of range", EnvPort, "70000"},
		{"unknown log level", EnvLogLevel, "chatty"},
		{"bad duration", EnvProbeTimeout, "soon"},
		{"zero debounce", EnvSaveDebounce, "0s"},
		{"zero concurrency", EnvResolveConcurrency, "0"},
		{"bad bool", EnvWatchMedia, "sometimes"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tc.key, tc.val)
			if _, err := New(); err == nil {
				t.Fatalf("New() with %s=%q: expected error", tc.key, tc.val)
			}
		})
	}
}

func TestNew_MissingConfigFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv(EnvConfigFile, filepath.Join(dir, "nope.yaml"))
	if _, err := New(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
