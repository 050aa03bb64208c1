package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsWhenFileMissing(t *testing.T) {
	w, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer w.Close()

	cfg := w.Current()
	if cfg.ThreadPool.MaxInFlight != 8 {
		t.Fatalf("expected default MaxInFlight=8, got %d", cfg.ThreadPool.MaxInFlight)
	}
	if !cfg.Visibility.EnableVisibilityUpdate {
		t.Fatal("expected EnableVisibilityUpdate default true")
	}
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[thread_pool]
max_in_flight = 16
extract_chunk = 128
prepare_chunk = 128

[visibility]
enable_visibility_update = false
default_arena_capacity = 2048

[logging]
level = "warn"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer w.Close()

	cfg := w.Current()
	if cfg.ThreadPool.MaxInFlight != 16 {
		t.Fatalf("expected MaxInFlight=16, got %d", cfg.ThreadPool.MaxInFlight)
	}
	if cfg.Visibility.EnableVisibilityUpdate {
		t.Fatal("expected EnableVisibilityUpdate=false")
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[thread_pool]\nmax_in_flight = 4\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(path, []byte("[thread_pool]\nmax_in_flight = 32\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if w.Current().ThreadPool.MaxInFlight == 32 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected reload to observe MaxInFlight=32, got %d", w.Current().ThreadPool.MaxInFlight)
}
