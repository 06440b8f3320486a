package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"text2cypher/internal/spec"
)

// EnvFileName is loaded from the project root before secrets are read.
const EnvFileName = ".env"

// Secrets holds credentials resolved from the environment.
type Secrets struct {
	GraphPassword string
	APIKey        string
}

// LoadEnv loads root/.env into the process environment. Variables already
// set win. A missing file is not an error.
func LoadEnv(root string) error {
	path := filepath.Join(root, EnvFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ResolveSecrets reads the credentials named by cfg using lookup, which
// defaults to os.LookupEnv.
func ResolveSecrets(cfg spec.Config, lookup func(string) (string, bool)) (Secrets, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	collector := &issueCollector{}
	apiKey, ok := lookup(cfg.Model.APIKeyEnv)
	if !ok || strings.TrimSpace(apiKey) == "" {
		collector.add("model.api_key_env", fmt.Sprintf("environment variable %s is not set", cfg.Model.APIKeyEnv))
	}
	password, _ := lookup(cfg.Graph.PasswordEnv)
	if err := collector.result(); err != nil {
		return Secrets{}, err
	}
	return Secrets{GraphPassword: password, APIKey: strings.TrimSpace(apiKey)}, nil
}
