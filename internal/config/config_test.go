package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		fallback time.Duration
		want     time.Duration
	}{
		{name: "duration string", value: "90s", fallback: time.Minute, want: 90 * time.Second},
		{name: "minutes", value: "2m", fallback: time.Minute, want: 2 * time.Minute},
		{name: "bare seconds", value: "45", fallback: time.Minute, want: 45 * time.Second},
		{name: "garbage falls back", value: "soon", fallback: time.Minute, want: time.Minute},
		{name: "empty falls back", value: "", fallback: time.Minute, want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CLAUDEWATCH_TEST_DURATION", tt.value)
			got := getEnvDuration("CLAUDEWATCH_TEST_DURATION", tt.fallback)
			if got != tt.want {
				t.Errorf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetEnvPathsIncludesParents(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "child", "grandchild")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	// Compare against os.Getwd rather than the temp dir path so the
	// check is unaffected by symlinked temp directories.
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	paths := getEnvPaths()
	found := make(map[string]bool, len(paths))
	for _, p := range paths {
		found[p] = true
	}

	for _, dir := range []string{cwd, filepath.Dir(cwd), filepath.Dir(filepath.Dir(cwd))} {
		want := filepath.Join(dir, ".env")
		if !found[want] {
			t.Errorf("getEnvPaths() missing %q, got %v", want, paths)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CLAUDEWATCH_STORE_PATH", "")
	t.Setenv("CLAUDEWATCH_TOKEN_PATH", "")
	t.Setenv("CLAUDEWATCH_BASE_URL", "")
	t.Setenv("CLAUDEWATCH_REFRESH_INTERVAL", "")
	t.Setenv("CLAUDEWATCH_STALE_AFTER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.RefreshInterval != defaultRefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", cfg.RefreshInterval, defaultRefreshInterval)
	}
	if cfg.StaleAfter != defaultStaleAfter {
		t.Errorf("StaleAfter = %v, want %v", cfg.StaleAfter, defaultStaleAfter)
	}
	if cfg.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, defaultBaseURL)
	}
	if cfg.StorePath == "" || cfg.ManualTokenPath == "" {
		t.Errorf("expected default paths, got %q / %q", cfg.StorePath, cfg.ManualTokenPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLAUDEWATCH_STORE_PATH", dir+"/custom.db")
	t.Setenv("CLAUDEWATCH_TOKEN_PATH", dir+"/custom-token")
	t.Setenv("CLAUDEWATCH_BASE_URL", "http://localhost:8080")
	t.Setenv("CLAUDEWATCH_REFRESH_INTERVAL", "5s")
	t.Setenv("CLAUDEWATCH_STALE_AFTER", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.StorePath != dir+"/custom.db" {
		t.Errorf("StorePath = %q", cfg.StorePath)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.RefreshInterval != 5*time.Second {
		t.Errorf("RefreshInterval = %v", cfg.RefreshInterval)
	}
	if cfg.StaleAfter != 2*time.Second {
		t.Errorf("StaleAfter = %v", cfg.StaleAfter)
	}
}
