package config

import (
	"fmt"
	"os"
	"path/filepath"

	"text2cypher/internal/generate"
)

const defaultConfig = `version: 1
graph:
  uri: "bolt://localhost:7687"
  username: "neo4j"
  password_env: "NEO4J_PASSWORD"
  query_timeout_ms: 10000

schema:
  node_types: []
  relationship_types: []

model:
  provider: "openrouter"
  model: "openai/gpt-4o-mini"
  api_key_env: "OPENROUTER_API_KEY"
  max_attempts: 3

eval:
  concurrency: 4
  compare:
    ignore_duplicates: false
    ignore_column_order: false
  direction_check:
    enabled: true
    max_relationship_types: 4

generator:
  path: "` + DefaultGeneratorPath + `"

store:
  path: "` + DefaultStorePath + `"
`

// Scaffold writes a starter config and generator config into root's config
// directory. Existing files are never overwritten.
func Scaffold(root string) (string, error) {
	configPath := ConfigPath(root)
	generatorPath := filepath.Join(ConfigDir(root), GeneratorFileName)
	for _, path := range []string{configPath, generatorPath} {
		if info, err := os.Stat(path); err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("path %q is a directory", path)
			}
			return "", fmt.Errorf("file already exists at %q", path)
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(ConfigDir(root), 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return "", fmt.Errorf("write config file: %w", err)
	}
	if err := generate.WriteConfig(generatorPath, generate.DefaultConfig()); err != nil {
		return "", fmt.Errorf("write generator file: %w", err)
	}
	return configPath, nil
}
