package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds settings resolved from a YAML config file. Flags given
// on the command line win over the file.
type Config struct {
	// Database is the path to the SQLite catalog.
	Database string `yaml:"database"`
	// Format is the default output format ("text" or "json").
	Format string `yaml:"format"`
}

// configFileName is looked for in the working directory and the user's
// home directory, in that order. CLASSQL_CONFIG overrides the search.
const configFileName = ".classql.yaml"

// LoadConfig resolves the config file, returning a zero Config when no
// file exists. A file that exists but fails to parse is an error - a
// silently ignored typo in the config is worse than a refusal.
func LoadConfig() (Config, error) {
	path, ok := findConfigFile()
	if !ok {
		return Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Format != "" && !isValidFormat(cfg.Format) {
		return Config{}, fmt.Errorf("config %s: invalid format %q: must be one of %v",
			path, cfg.Format, ValidFormats)
	}
	return cfg, nil
}

func findConfigFile() (string, bool) {
	if path := os.Getenv("CLASSQL_CONFIG"); path != "" {
		return path, true
	}
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	path := filepath.Join(home, configFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", false
	}
	return path, true
}
