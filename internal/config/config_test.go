package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolateConfig points XDG_CONFIG_HOME at a scratch directory so tests never
// pick up a developer's real config file, and returns the diskscope dir
// inside it.
func isolateConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)
	return filepath.Join(base, "diskscope")
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfig(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.DBPath != "" {
		t.Errorf("DBPath = %q, want empty", cfg.DBPath)
	}
	if cfg.TopK != 10 {
		t.Errorf("TopK = %d, want 10", cfg.TopK)
	}
	if cfg.MinDuplicateSize != "1 MiB" {
		t.Errorf("MinDuplicateSize = %q, want \"1 MiB\"", cfg.MinDuplicateSize)
	}
	if !cfg.UseCache {
		t.Error("UseCache should default to true")
	}
	if cfg.RetainFileList {
		t.Error("RetainFileList should default to false")
	}
	if !cfg.Progress {
		t.Error("Progress should default to true")
	}
	if cfg.Verbose {
		t.Error("Verbose should default to false")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolateConfig(t)
	t.Setenv("DISKSCOPE_TOP_K", "25")
	t.Setenv("DISKSCOPE_USE_CACHE", "false")
	t.Setenv("DISKSCOPE_MIN_DUPLICATE_SIZE", "4 MiB")
	t.Setenv("DISKSCOPE_VERBOSE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.TopK != 25 {
		t.Errorf("TopK = %d, want 25", cfg.TopK)
	}
	if cfg.UseCache {
		t.Error("UseCache should be overridden to false")
	}
	if cfg.MinDuplicateSize != "4 MiB" {
		t.Errorf("MinDuplicateSize = %q, want \"4 MiB\"", cfg.MinDuplicateSize)
	}
	if !cfg.Verbose {
		t.Error("Verbose should be overridden to true")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := isolateConfig(t)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	content := "top_k: 7\nretain_file_list: true\ndb_path: /tmp/elsewhere.db\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.TopK != 7 {
		t.Errorf("TopK = %d, want 7", cfg.TopK)
	}
	if !cfg.RetainFileList {
		t.Error("RetainFileList should be true from config file")
	}
	if cfg.DBPath != "/tmp/elsewhere.db" {
		t.Errorf("DBPath = %q, want /tmp/elsewhere.db", cfg.DBPath)
	}
}

func TestLoad_EnvBeatsConfigFile(t *testing.T) {
	dir := isolateConfig(t)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("top_k: 7\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("DISKSCOPE_TOP_K", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.TopK != 3 {
		t.Errorf("TopK = %d, want 3 (environment beats config file)", cfg.TopK)
	}
}

func TestLoad_MalformedConfigFile(t *testing.T) {
	dir := isolateConfig(t)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("top_k: [unclosed\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Error("Load() should fail on a malformed config file")
	}
}

func TestMinDuplicateBytes(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1 MiB", 1 << 20},
		{"512 KB", 512000},
		{"1.5GiB", 1610612736},
		{"0", 0},
	}

	for _, tt := range tests {
		cfg := &Config{MinDuplicateSize: tt.in}
		got, err := cfg.MinDuplicateBytes()
		if err != nil {
			t.Errorf("MinDuplicateBytes(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("MinDuplicateBytes(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestMinDuplicateBytes_Invalid(t *testing.T) {
	cfg := &Config{MinDuplicateSize: "a handful"}
	_, err := cfg.MinDuplicateBytes()
	if err == nil {
		t.Error("MinDuplicateBytes() should fail on unparseable input")
	}
	if !strings.Contains(err.Error(), "min_duplicate_size") {
		t.Errorf("error %q should name the offending setting", err)
	}
}

func TestDir_RespectsXDGConfigHome(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() failed: %v", err)
	}
	if dir != filepath.Join(base, "diskscope") {
		t.Errorf("Dir() = %q, want %q", dir, filepath.Join(base, "diskscope"))
	}
}

func TestDir_FallsBackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory available: %v", err)
	}

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir() failed: %v", err)
	}
	if dir != filepath.Join(home, ".config", "diskscope") {
		t.Errorf("Dir() = %q, want %q", dir, filepath.Join(home, ".config", "diskscope"))
	}
}
