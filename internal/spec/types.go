package spec

// Config is the on-disk configuration of the evaluation tool.
type Config struct {
	Version   int             `yaml:"version"`
	Graph     GraphConfig     `yaml:"graph"`
	Schema    SchemaConfig    `yaml:"schema"`
	Model     ModelConfig     `yaml:"model"`
	Eval      EvalConfig      `yaml:"eval"`
	Generator GeneratorConfig `yaml:"generator"`
	Store     StoreConfig     `yaml:"store"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type GraphConfig struct {
	URI            string `yaml:"uri"`
	Username       string `yaml:"username"`
	PasswordEnv    string `yaml:"password_env"`
	Database       string `yaml:"database"`
	QueryTimeoutMs int    `yaml:"query_timeout_ms"`
	RetryTimeoutMs int    `yaml:"retry_timeout_ms"`
	MaxConnections int    `yaml:"max_connections"`
}

type SchemaConfig struct {
	NodeTypes         []string `yaml:"node_types"`
	RelationshipTypes []string `yaml:"relationship_types"`
}

type ModelConfig struct {
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url"`
	APIKeyEnv         string        `yaml:"api_key_env"`
	MaxAttempts       int           `yaml:"max_attempts"`
	RequestTimeoutMs  int           `yaml:"request_timeout_ms"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Backoff           BackoffConfig `yaml:"backoff"`
}

type BackoffConfig struct {
	InitialMs int `yaml:"initial_ms"`
	MaxMs     int `yaml:"max_ms"`
}

type EvalConfig struct {
	Concurrency    int                  `yaml:"concurrency"`
	Compare        CompareConfig        `yaml:"compare"`
	DirectionCheck DirectionCheckConfig `yaml:"direction_check"`
}

type CompareConfig struct {
	IgnoreDuplicates  bool `yaml:"ignore_duplicates"`
	IgnoreColumnOrder bool `yaml:"ignore_column_order"`
}

type DirectionCheckConfig struct {
	// Enabled defaults to true when omitted.
	Enabled              *bool `yaml:"enabled"`
	MaxRelationshipTypes int   `yaml:"max_relationship_types"`
	TimeoutMs            int   `yaml:"timeout_ms"`
}

type GeneratorConfig struct {
	Path string `yaml:"path"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}
