// Package sources loads the source registry bootstrap file. The file
// declares the feeds and pages to curate from; entries are upserted by
// URL on startup so edits take effect on restart without losing
// article history.
package sources

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/personaflow/personaflow/app/database"
	"github.com/personaflow/personaflow/app/feed"
)

type Config struct {
	URL     string `yaml:"url"`
	Kind    string `yaml:"kind"`
	Name    string `yaml:"name"`
	Enabled *bool  `yaml:"enabled"`
}

type File struct {
	Sources []Config `yaml:"sources"`
}

// Load reads and validates the bootstrap file. A missing file is not an
// error; sources can be managed entirely through the API.
func Load(path string) ([]Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Debug("No sources file found", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}

	for i := range file.Sources {
		if err := setDefaults(&file.Sources[i]); err != nil {
			return nil, fmt.Errorf("invalid source at index %d: %w", i, err)
		}
	}

	return file.Sources, nil
}

func setDefaults(config *Config) error {
	if config.URL == "" {
		return fmt.Errorf("source URL is required")
	}

	// Sources dedup on the canonical URL, so the bootstrap file and the
	// API register the same feed under the same key.
	canonicalURL, err := feed.CanonicalURL(config.URL)
	if err != nil {
		return fmt.Errorf("invalid source URL %q: %w", config.URL, err)
	}
	config.URL = canonicalURL

	if config.Kind == "" {
		config.Kind = database.SourceKindRSS
	}
	if config.Kind != database.SourceKindRSS && config.Kind != database.SourceKindWeb {
		return fmt.Errorf("source kind must be RSS or WEB, got %q", config.Kind)
	}
	if config.Name == "" {
		config.Name = config.URL
	}
	if config.Enabled == nil {
		enabled := true
		config.Enabled = &enabled
	}
	return nil
}

// Sync registers the loaded sources, keeping ids stable for URLs that
// already exist.
func Sync(repo database.SourceRepository, configs []Config) error {
	for _, config := range configs {
		if err := repo.UpsertSource(config.URL, config.Kind, config.Name, *config.Enabled); err != nil {
			return fmt.Errorf("failed to register source %s: %w", config.URL, err)
		}
		slog.Debug("Registered source", "url", config.URL, "kind", config.Kind, "enabled", *config.Enabled)
	}

	return nil
}
