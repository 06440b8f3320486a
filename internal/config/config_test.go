package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"text2cypher/internal/generate"
	"text2cypher/internal/spec"
)

func validConfig() spec.Config {
	cfg := spec.Config{
		Version: 1,
		Graph:   spec.GraphConfig{URI: "bolt://localhost:7687"},
		Model:   spec.ModelConfig{Model: "openai/gpt-4o-mini"},
	}
	Normalize(&cfg)
	return cfg
}

func issueFields(t *testing.T, err error) []string {
	t.Helper()
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T (%v)", err, err)
	}
	return validationErr.Fields()
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := spec.Config{Version: 1}
	Normalize(&cfg)

	if cfg.Graph.Username != "neo4j" || cfg.Graph.PasswordEnv != "NEO4J_PASSWORD" || cfg.Graph.QueryTimeoutMs != 10_000 {
		t.Fatalf("unexpected graph defaults %+v", cfg.Graph)
	}
	if cfg.Model.Provider != "openrouter" || cfg.Model.APIKeyEnv != "OPENROUTER_API_KEY" || cfg.Model.MaxAttempts != 3 {
		t.Fatalf("unexpected model defaults %+v", cfg.Model)
	}
	if cfg.Eval.Concurrency != 4 || cfg.Eval.DirectionCheck.MaxRelationshipTypes != 4 || cfg.Eval.DirectionCheck.TimeoutMs != 5_000 {
		t.Fatalf("unexpected eval defaults %+v", cfg.Eval)
	}
	if cfg.Eval.DirectionCheck.Enabled == nil || !*cfg.Eval.DirectionCheck.Enabled {
		t.Fatalf("expected direction check enabled by default")
	}
	if cfg.Store.Path != DefaultStorePath {
		t.Fatalf("unexpected store path %q", cfg.Store.Path)
	}
}

func TestNormalizeKeepsExplicitDisable(t *testing.T) {
	disabled := false
	cfg := spec.Config{Eval: spec.EvalConfig{DirectionCheck: spec.DirectionCheckConfig{Enabled: &disabled}}}
	Normalize(&cfg)
	if *cfg.Eval.DirectionCheck.Enabled {
		t.Fatalf("expected explicit disable to survive normalization")
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := Validate(&cfg, t.TempDir()); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateReportsEveryIssue(t *testing.T) {
	cfg := validConfig()
	cfg.Version = 2
	cfg.Graph.URI = "http://localhost:7474"
	cfg.Graph.RetryTimeoutMs = 20_000
	cfg.Schema.NodeTypes = []string{"Person", "Person", " "}
	cfg.Model.Provider = "ollama"
	cfg.Model.Model = ""
	cfg.Eval.Concurrency = -1
	cfg.Generator.Path = "missing.yml"

	fields := strings.Join(issueFields(t, Validate(&cfg, t.TempDir())), ",")
	for _, want := range []string{
		"version",
		"graph.uri",
		"graph.retry_timeout_ms",
		"schema.node_types[1]",
		"schema.node_types[2]",
		"model.provider",
		"model.model",
		"eval.concurrency",
		"generator.path",
	} {
		if !strings.Contains(fields, want) {
			t.Fatalf("expected issue for %s, got %s", want, fields)
		}
	}
}

func TestLoadAppliesDefaultsAndValidates(t *testing.T) {
	root := t.TempDir()
	path := ConfigPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data := "version: 1\ngraph:\n  uri: neo4j://db:7687\nmodel:\n  model: openai/gpt-4o-mini\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Eval.Concurrency != DefaultConcurrency {
		t.Fatalf("expected defaults applied, got %+v", cfg.Eval)
	}
	if want := filepath.Join(root, DefaultStorePath); cfg.Store.Path != want {
		t.Fatalf("expected store path %s, got %s", want, cfg.Store.Path)
	}

	if err := os.WriteFile(path, []byte("version: 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "graph.uri") {
		t.Fatalf("expected graph.uri validation error, got %v", err)
	}
}

func TestLoadResolvesPathsFromAnyDirectory(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("eval symlinks: %v", err)
	}
	path, err := Scaffold(root)
	if err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	nested := filepath.Join(root, "benchmarks")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Chdir(nested)
	rel, err := filepath.Rel(nested, path)
	if err != nil {
		t.Fatalf("rel: %v", err)
	}
	cfg, err := Load(rel)
	if err != nil {
		t.Fatalf("load %s: %v", rel, err)
	}
	if want := filepath.Join(root, DefaultGeneratorPath); cfg.Generator.Path != want {
		t.Fatalf("expected generator path %s, got %s", want, cfg.Generator.Path)
	}
	if want := filepath.Join(root, DefaultStorePath); cfg.Store.Path != want {
		t.Fatalf("expected store path %s, got %s", want, cfg.Store.Path)
	}
}

func TestFindConfigPathWalksUp(t *testing.T) {
	root := t.TempDir()
	if _, err := Scaffold(root); err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	found, err := FindConfigPath(nested)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found != ConfigPath(root) {
		t.Fatalf("expected %s, got %s", ConfigPath(root), found)
	}
	if RootFromConfigPath(found) != root {
		t.Fatalf("expected root %s, got %s", root, RootFromConfigPath(found))
	}
	if _, err := FindConfigPath(t.TempDir()); err == nil {
		t.Fatalf("expected missing config error")
	}
}

func TestScaffoldWritesLoadableFiles(t *testing.T) {
	root := t.TempDir()
	path, err := Scaffold(root)
	if err != nil {
		t.Fatalf("scaffold: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load scaffolded config: %v", err)
	}
	generator, err := generate.LoadConfig(ResolvePath(root, cfg.Generator.Path))
	if err != nil {
		t.Fatalf("load scaffolded generator: %v", err)
	}
	if generator.ID() != generate.DefaultConfig().ID() {
		t.Fatalf("expected the default generator config, got %+v", generator)
	}
	if _, err := Scaffold(root); err == nil {
		t.Fatalf("expected scaffold to refuse overwriting")
	}
}

func TestLoadEnvAndResolveSecrets(t *testing.T) {
	root := t.TempDir()
	t.Setenv("T2C_TEST_KEY", "")
	os.Unsetenv("T2C_TEST_KEY")
	t.Setenv("T2C_TEST_PASSWORD", "from-env")
	env := "T2C_TEST_KEY=sk-from-file\nT2C_TEST_PASSWORD=from-file\n"
	if err := os.WriteFile(filepath.Join(root, EnvFileName), []byte(env), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	if err := LoadEnv(root); err != nil {
		t.Fatalf("load env: %v", err)
	}
	cfg := validConfig()
	cfg.Model.APIKeyEnv = "T2C_TEST_KEY"
	cfg.Graph.PasswordEnv = "T2C_TEST_PASSWORD"
	secrets, err := ResolveSecrets(cfg, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if secrets.APIKey != "sk-from-file" {
		t.Fatalf("expected key from .env, got %q", secrets.APIKey)
	}
	if secrets.GraphPassword != "from-env" {
		t.Fatalf("expected existing environment to win, got %q", secrets.GraphPassword)
	}

	if err := LoadEnv(t.TempDir()); err != nil {
		t.Fatalf("missing .env should be ignored: %v", err)
	}
}

func TestResolveSecretsRequiresAPIKey(t *testing.T) {
	cfg := validConfig()
	lookup := func(string) (string, bool) { return "", false }
	_, err := ResolveSecrets(cfg, lookup)
	fields := issueFields(t, err)
	if len(fields) != 1 || fields[0] != "model.api_key_env" {
		t.Fatalf("unexpected issues %v", fields)
	}
}

func TestResolvePath(t *testing.T) {
	cases := map[string]string{
		"":             "",
		":memory:":     ":memory:",
		"/abs/x.yml":   "/abs/x.yml",
		"rel/x.duckdb": filepath.Join("/root", "rel/x.duckdb"),
	}
	for input, want := range cases {
		if got := ResolvePath("/root", input); got != want {
			t.Fatalf("ResolvePath(%q) = %q, want %q", input, got, want)
		}
	}
}
