package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// Config holds the REPL's configurable defaults.
type Config struct {
	Cols   int    `json:"cols"`
	Rows   int    `json:"rows"`
	NodeID uint64 `json:"node_id"`
	DumpDir string `json:"dump_dir,omitempty"` //nolint:tagliatelle // snake_case for config file
}

// ConfigFileName is the project-local config file name.
const ConfigFileName = ".cellsync.json"

// DefaultConfig returns the built-in defaults, used when no config file
// overrides them.
func DefaultConfig() Config {
	return Config{
		Cols:   80,
		Rows:   24,
		NodeID: 1,
	}
}

// LoadConfig merges configuration with precedence (highest wins):
//  1. Defaults
//  2. Global user config ($XDG_CONFIG_HOME/cellsync/config.json, or
//     ~/.config/cellsync/config.json)
//  3. Project config (.cellsync.json in workDir)
//  4. CLI flag overrides (applied by the caller after LoadConfig returns)
func LoadConfig(workDir string) (Config, error) {
	cfg := DefaultConfig()

	if globalCfg, ok, err := loadConfigFile(globalConfigPath()); err != nil {
		return Config{}, err
	} else if ok {
		cfg = mergeConfig(cfg, globalCfg)
	}

	projectPath := filepath.Join(workDir, ConfigFileName)
	if projectCfg, ok, err := loadConfigFile(projectPath); err != nil {
		return Config{}, err
	} else if ok {
		cfg = mergeConfig(cfg, projectCfg)
	}

	return cfg, nil
}

func globalConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cellsync", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "cellsync", "config.json")
}

// loadConfigFile reads a hujson (JSON-with-comments) config file. ok is
// false if path is empty or the file does not exist.
func loadConfigFile(path string) (Config, bool, error) {
	if path == "" {
		return Config{}, false, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("%w: %s: %w", errConfigFileRead, path, err)
	}

	standard, err := hujson.Standardize(raw)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w: %s: %w", errConfigInvalid, path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standard, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("%w: %s: %w", errConfigInvalid, path, err)
	}

	return cfg, true, nil
}

// mergeConfig overlays non-zero fields of override onto base.
func mergeConfig(base, override Config) Config {
	if override.Cols != 0 {
		base.Cols = override.Cols
	}

	if override.Rows != 0 {
		base.Rows = override.Rows
	}

	if override.NodeID != 0 {
		base.NodeID = override.NodeID
	}

	if strings.TrimSpace(override.DumpDir) != "" {
		base.DumpDir = override.DumpDir
	}

	return base
}
