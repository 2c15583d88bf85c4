package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() returned nil")
	}

	if cfg.ServerURL != DefaultServerURL {
		t.Errorf("expected default ServerURL=%q, got %q", DefaultServerURL, cfg.ServerURL)
	}

	if cfg.DefaultTab != "details" {
		t.Errorf("expected default DefaultTab='details', got %q", cfg.DefaultTab)
	}

	if cfg.ScanGap() != 700*time.Millisecond {
		t.Errorf("expected default scan gap 700ms, got %v", cfg.ScanGap())
	}

	if cfg.StatusDuration() != 3*time.Second {
		t.Errorf("expected status messages for 3s, got %v", cfg.StatusDuration())
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	// Loading a non-existent file should return default config
	cfg, err := Load("/nonexistent/path/config.yaml")

	if err != nil {
		t.Fatalf("unexpected error loading non-existent file: %v", err)
	}

	if cfg == nil {
		t.Fatal("Load() returned nil config")
	}

	if cfg.RequestTimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("expected default timeout, got %d", cfg.RequestTimeoutSeconds)
	}
}

func TestSave_And_Load(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.ServerURL = "https://assets.example.com"
	cfg.DefaultTab = "disposal"
	cfg.Scan.BurstGapMS = 250

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if loaded.ServerURL != "https://assets.example.com" {
		t.Errorf("expected ServerURL to round-trip, got %q", loaded.ServerURL)
	}
	if loaded.DefaultTab != "disposal" {
		t.Errorf("expected DefaultTab='disposal', got %q", loaded.DefaultTab)
	}
	if loaded.Scan.BurstGapMS != 250 {
		t.Errorf("expected burst gap 250, got %d", loaded.Scan.BurstGapMS)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "server_url: http://10.0.0.5:5000/\nscan:\n  id_pattern: '^AS-\\d+$'\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerURL != "http://10.0.0.5:5000" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.ServerURL)
	}
	if cfg.Scan.IDPattern != `^AS-\d+$` {
		t.Errorf("expected custom pattern, got %q", cfg.Scan.IDPattern)
	}
	if cfg.Scan.BurstGapMS != DefaultBurstGapMS {
		t.Errorf("expected default gap, got %d", cfg.Scan.BurstGapMS)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("expected default log level, got %q", cfg.LogLevel)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "default_tab: archive\ncolor_theme: neon\nrequest_timeout_seconds: -1\nlog_level: loud\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DefaultTab != DefaultTab {
		t.Errorf("expected fallback tab, got %q", cfg.DefaultTab)
	}
	if cfg.ColorTheme != "auto" {
		t.Errorf("expected fallback theme, got %q", cfg.ColorTheme)
	}
	if cfg.RequestTimeoutSeconds != DefaultTimeoutSeconds {
		t.Errorf("expected fallback timeout, got %d", cfg.RequestTimeoutSeconds)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("expected fallback log level, got %q", cfg.LogLevel)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("server_url: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestSet(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{"server url", "server_url", "https://assets.local/", false},
		{"server url without scheme", "server_url", "assets.local", true},
		{"timeout", "request_timeout_seconds", "30", false},
		{"zero timeout", "request_timeout_seconds", "0", true},
		{"tab", "default_tab", "transfer", false},
		{"bad tab", "default_tab", "archive", true},
		{"gap", "scan.burst_gap_ms", "400", false},
		{"gap not a number", "scan.burst_gap_ms", "fast", true},
		{"pattern", "scan.id_pattern", `^\d{8}$`, false},
		{"bad pattern", "scan.id_pattern", "(", true},
		{"log level", "log_level", "debug", false},
		{"unknown key", "editor", "vim", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := cfg.Set(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) failed: %v", tt.key, err)
			}
			want := tt.value
			if tt.key == "server_url" {
				want = "https://assets.local"
			}
			if got != want {
				t.Errorf("expected %q, got %q", want, got)
			}
		})
	}
}

func TestKeysAreGettable(t *testing.T) {
	cfg := DefaultConfig()
	for _, key := range Keys {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("key %q listed but not readable: %v", key, err)
		}
	}
}
