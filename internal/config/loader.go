package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment selects the overlay file applied on top of base.yaml.
type Environment string

const (
	Local      Environment = "local"
	Production Environment = "production"
)

// ParseEnvironment validates an APP_ENVIRONMENT value. Empty means Local.
func ParseEnvironment(s string) (Environment, error) {
	switch s {
	case "", string(Local):
		return Local, nil
	case string(Production):
		return Production, nil
	default:
		return "", fmt.Errorf("unknown environment: %s", s)
	}
}

// Files returns the base and overlay paths for an environment in dir.
func Files(dir string, env Environment) []string {
	return []string{
		filepath.Join(dir, "base.yaml"),
		filepath.Join(dir, string(env)+".yaml"),
	}
}

// LoadDotEnv loads KEY=VALUE files into the process environment.
// Missing files are ignored; existing variables are not overwritten.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := decodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFiles reads the first file and overlays the rest in order. Only the
// first file is required.
func LoadFiles(paths ...string) (*Config, error) {
	if len(paths) == 0 {
		return nil, errors.New("no config files given")
	}

	var cfg Config
	if err := decodeFile(paths[0], &cfg); err != nil {
		return nil, err
	}
	for _, p := range paths[1:] {
		err := decodeFile(p, &cfg)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	// Expand ${VAR} environment variables
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config yaml %s: %w", path, err)
	}
	return nil
}

// LoadWithDefaults loads config files and applies default values.
func LoadWithDefaults(paths ...string) (*Config, error) {
	cfg, err := LoadFiles(paths...)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// LoadAndValidate loads config files, applies defaults, and validates.
func LoadAndValidate(paths ...string) (*Config, error) {
	cfg, err := LoadWithDefaults(paths...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}
