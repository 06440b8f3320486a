package config

import "text2cypher/internal/spec"

// Defaults applied by Normalize.
const (
	DefaultUsername         = "neo4j"
	DefaultPasswordEnv      = "NEO4J_PASSWORD"
	DefaultQueryTimeoutMs   = 10_000
	DefaultProvider         = "openrouter"
	DefaultAPIKeyEnv        = "OPENROUTER_API_KEY"
	DefaultMaxAttempts      = 3
	DefaultRequestTimeoutMs = 60_000
	DefaultConcurrency      = 4
	DefaultMaxRelTypes      = 4
	DefaultDirectionTimeout = 5_000
	DefaultBackoffInitialMs = 200
	DefaultBackoffMaxMs     = 10_000
)

// Normalize fills defaults for omitted fields.
func Normalize(cfg *spec.Config) {
	if cfg.Graph.Username == "" {
		cfg.Graph.Username = DefaultUsername
	}
	if cfg.Graph.PasswordEnv == "" {
		cfg.Graph.PasswordEnv = DefaultPasswordEnv
	}
	if cfg.Graph.QueryTimeoutMs == 0 {
		cfg.Graph.QueryTimeoutMs = DefaultQueryTimeoutMs
	}
	if cfg.Model.Provider == "" {
		cfg.Model.Provider = DefaultProvider
	}
	if cfg.Model.APIKeyEnv == "" {
		cfg.Model.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.Model.MaxAttempts == 0 {
		cfg.Model.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Model.RequestTimeoutMs == 0 {
		cfg.Model.RequestTimeoutMs = DefaultRequestTimeoutMs
	}
	if cfg.Model.Backoff.InitialMs == 0 {
		cfg.Model.Backoff.InitialMs = DefaultBackoffInitialMs
	}
	if cfg.Model.Backoff.MaxMs == 0 {
		cfg.Model.Backoff.MaxMs = DefaultBackoffMaxMs
	}
	if cfg.Eval.Concurrency == 0 {
		cfg.Eval.Concurrency = DefaultConcurrency
	}
	if cfg.Eval.DirectionCheck.Enabled == nil {
		enabled := true
		cfg.Eval.DirectionCheck.Enabled = &enabled
	}
	if cfg.Eval.DirectionCheck.MaxRelationshipTypes == 0 {
		cfg.Eval.DirectionCheck.MaxRelationshipTypes = DefaultMaxRelTypes
	}
	if cfg.Eval.DirectionCheck.TimeoutMs == 0 {
		cfg.Eval.DirectionCheck.TimeoutMs = DefaultDirectionTimeout
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}
}
