package router

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// sourcesFile is the on-disk layout of a static sources list.
type sourcesFile struct {
	Version int      `toml:"version"`
	Sources []Source `toml:"sources"`
}

// StaticDiscoverer reads the source list from a TOML file.
//
//	version = 1
//
//	[[sources]]
//	name = "CAM-1 (Studio)"
//	address = "10.0.0.21:5961"
//	label = "Camera 1"
type StaticDiscoverer struct {
	path string
}

// NewStaticDiscoverer creates a discoverer backed by the file at path.
func NewStaticDiscoverer(path string) *StaticDiscoverer {
	if path == "" {
		path = "sources.toml"
	}
	return &StaticDiscoverer{path: path}
}

// Discover loads the file. The timeout is unused since reading is immediate.
func (d *StaticDiscoverer) Discover(_ context.Context, _ time.Duration) ([]Source, error) {
	sources, err := LoadSourcesFile(d.path)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSources, d.path)
	}
	return sources, nil
}

// LoadSourcesFile parses a sources file, preserving file order.
func LoadSourcesFile(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file sourcesFile
	if unmarshalErr := toml.Unmarshal(data, &file); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", unmarshalErr)
	}

	for i, src := range file.Sources {
		if src.Name == "" {
			return nil, fmt.Errorf("source %d in %s has no name", i, path)
		}
	}

	return file.Sources, nil
}

// SaveSourcesFile writes sources in the format LoadSourcesFile reads.
func SaveSourcesFile(path string, sources []Source) error {
	data, err := toml.Marshal(sourcesFile{Version: 1, Sources: sources})
	if err != nil {
		return fmt.Errorf("failed to marshal sources: %w", err)
	}
	if writeErr := os.WriteFile(path, data, 0o644); writeErr != nil {
		return fmt.Errorf("failed to write sources file: %w", writeErr)
	}
	return nil
}
