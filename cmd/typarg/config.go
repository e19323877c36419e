package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

const configName = "typarg.toml"

// Config is the contents of typarg.toml. Relative paths are resolved
// against the directory holding the file.
type Config struct {
	Classpath  []string    `toml:"classpath"`
	Java       []string    `toml:"java"`
	GoPackages []string    `toml:"go_packages"`
	LogLevel   string      `toml:"log_level"`
	Format     string      `toml:"format"`
	Serve      ServeConfig `toml:"serve"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

type ServeConfig struct {
	Addr         string   `toml:"addr"`
	AllowOrigins []string `toml:"allow_origins"`
}

// Dir returns the directory relative paths are resolved against.
func (c *Config) Dir() string {
	if c.Path == "" {
		return ""
	}
	return filepath.Dir(c.Path)
}

func findConfig(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, configName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadConfig(path string) (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Format != "" && !slices.Contains(formats, cfg.Format) {
		return nil, fmt.Errorf("%s: format must be one of %s", path, strings.Join(formats, ", "))
	}
	cfg.Path = path

	dir := cfg.Dir()
	for _, list := range [][]string{cfg.Classpath, cfg.Java} {
		for i, p := range list {
			if !filepath.IsAbs(p) {
				list[i] = filepath.Join(dir, filepath.FromSlash(p))
			}
		}
	}
	return &cfg, nil
}
