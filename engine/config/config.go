// Package config loads the frame orchestrator's tunables from a TOML file
// and watches it for edits, the way assets.AssetManager watches the asset
// tree: a single fsnotify watcher feeding a background goroutine that
// reloads and republishes on write.
package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/forgegraph/engine/core"
)

// ThreadPool controls the pipeline's JobSystem.
type ThreadPool struct {
	MaxInFlight  int `toml:"max_in_flight"`
	ExtractChunk int `toml:"extract_chunk"`
	PrepareChunk int `toml:"prepare_chunk"`
}

// Visibility controls the visibility region's per-frame update pass.
type Visibility struct {
	EnableVisibilityUpdate bool `toml:"enable_visibility_update"`
	DefaultArenaCapacity   int  `toml:"default_arena_capacity"`
}

// Logging controls the core package's singleton logger.
type Logging struct {
	Level string `toml:"level"`
}

// Config is the root of config.toml.
type Config struct {
	ThreadPool ThreadPool `toml:"thread_pool"`
	Visibility Visibility `toml:"visibility"`
	Logging    Logging    `toml:"logging"`
}

func defaultConfig() Config {
	return Config{
		ThreadPool: ThreadPool{MaxInFlight: 8, ExtractChunk: 64, PrepareChunk: 64},
		Visibility: Visibility{EnableVisibilityUpdate: true, DefaultArenaCapacity: 1024},
		Logging:    Logging{Level: "debug"},
	}
}

func parse(data []byte) (Config, error) {
	cfg := defaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

// Watcher holds the live Config and reloads it from disk on write,
// mirroring assets.AssetManager's fsnotify-driven reload loop.
type Watcher struct {
	path string

	mu  sync.RWMutex
	cfg Config

	fsnotify *fsnotify.Watcher
	done     chan struct{}
}

// Load reads path once (falling back to defaultConfig if it doesn't exist
// yet) and starts watching it for writes. Call Close when done.
func Load(path string) (*Watcher, error) {
	cfg := defaultConfig()
	if data, err := os.ReadFile(path); err == nil {
		cfg, err = parse(data)
		if err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: new watcher: %w", err)
	}
	if err := fsWatch.Add(path); err != nil && !os.IsNotExist(err) {
		fsWatch.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}

	w := &Watcher{path: path, cfg: cfg, fsnotify: fsWatch, done: make(chan struct{})}
	core.SetLevel(cfg.Logging.Level)
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			data, err := os.ReadFile(w.path)
			if err != nil {
				core.LogError("config: reload %s: %v", w.path, err)
				continue
			}
			cfg, err := parse(data)
			if err != nil {
				core.LogError("config: reload %s: %v", w.path, err)
				continue
			}
			w.mu.Lock()
			w.cfg = cfg
			w.mu.Unlock()
			core.SetLevel(cfg.Logging.Level)
			core.LogInfo("config: reloaded %s", w.path)
		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("config: watch error: %v", err)
		case <-w.done:
			return
		}
	}
}

// Current returns a copy of the live Config, safe for concurrent use.
func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

func (w *Watcher) Close() error {
	close(w.done)
	return w.fsnotify.Close()
}
