package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
//
// Per-unit endpoint overrides come from the environment; an optional .env
// next to the config file is merged in first (never overriding real env).
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loadEnvFile(filepath.Join(filepath.Dir(resolvedPath), ".env"))

	base := Default()
	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg, overrideWarnings := applyEnvOverrides(base)
			warnings := append([]Warning{{
				Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
			}}, overrideWarnings...)
			return Loaded{
				Path:     resolvedPath,
				Config:   cfg,
				Warnings: warnings,
				Exists:   false,
			}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, warnings, err := Parse(string(content), base)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}

	cfg, overrideWarnings := applyEnvOverrides(cfg)
	warnings = append(warnings, overrideWarnings...)

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: warnings,
		Exists:   true,
	}, nil
}

// loadEnvFile merges an optional dotenv file into the process environment.
func loadEnvFile(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// applyEnvOverrides layers SORI_* environment variables over parsed config.
func applyEnvOverrides(cfg Config) (Config, []Warning) {
	warnings := make([]Warning, 0)

	override := func(name string, apply func(string)) {
		value := strings.TrimSpace(os.Getenv(name))
		if value == "" {
			return
		}
		apply(value)
		warnings = append(warnings, Warning{Message: fmt.Sprintf("%s overrides config file value", name)})
	}

	override("SORI_BACKEND_HTTP", func(v string) { cfg.Backend.HTTP = v })
	override("SORI_BACKEND_GRPC", func(v string) { cfg.Backend.GRPC = v })
	override("SORI_FEED_ADDR", func(v string) { cfg.Feed.Addr = v })

	return cfg, warnings
}
