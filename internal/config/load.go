package config

import (
	"fmt"
	"os"
	"path/filepath"

	"text2cypher/internal/spec"
)

// Load reads, parses, normalizes and validates a config file. Relative
// generator and store paths come back resolved against the project root, so
// commands behave the same from any subdirectory.
func Load(path string) (spec.Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return spec.Config{}, fmt.Errorf("resolve config path: %w", err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return spec.Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := spec.ParseConfig(data)
	if err != nil {
		return spec.Config{}, err
	}
	Normalize(&cfg)
	root := RootFromConfigPath(absPath)
	if err := Validate(&cfg, root); err != nil {
		return spec.Config{}, err
	}
	cfg.Generator.Path = ResolvePath(root, cfg.Generator.Path)
	cfg.Store.Path = ResolvePath(root, cfg.Store.Path)
	return cfg, nil
}
