package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"docktail/pkg/logging"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/docktail"
	configFileName = "config.yaml"
)

// GetDefaultConfigPathOrPanic returns the default per-user config directory.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}
	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads config.yaml from configPath, overlaying it on defaults.
// A missing file is not an error.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	defaults := Default()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "no config.yaml found at %s, using defaults", configFilePath)
			return defaults, nil
		}
		return defaults, fmt.Errorf("reading %s: %w", configFilePath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return defaults, fmt.Errorf("parsing %s: %w", configFilePath, err)
	}

	return mergeDefaults(cfg, defaults), nil
}

// Watcher re-resolves configuration whenever config.yaml changes on disk,
// the way internal/teleport's filesystem watcher and internal/reconciler's
// directory detector keep an in-memory value fresh without a restart.
type Watcher struct {
	configPath string
	watcher    *fsnotify.Watcher

	mu      sync.RWMutex
	current Config
}

// NewWatcher loads the initial configuration and starts watching its
// directory for changes. Callers must call Close when done.
func NewWatcher(configPath string) (*Watcher, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	if err := fw.Add(configPath); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", configPath, err)
	}

	w := &Watcher{configPath: configPath, watcher: fw, current: cfg}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := LoadConfig(w.configPath)
			if err != nil {
				logging.Error("ConfigLoader", err, "reloading config after change to %s", event.Name)
				continue
			}
			w.mu.Lock()
			w.current = cfg
			w.mu.Unlock()
			logging.Info("ConfigLoader", "reloaded configuration from %s", w.configPath)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("ConfigLoader", err, "config watcher error")
		}
	}
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Close stops the underlying filesystem watch.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
