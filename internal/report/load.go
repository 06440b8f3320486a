package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"text2cypher/internal/runner"
)

// WriteSummary writes summary as indented JSON, creating parent directories.
func WriteSummary(path string, summary runner.RunSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadSummary reads a summary written by WriteSummary.
func LoadSummary(path string) (runner.RunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return runner.RunSummary{}, err
	}
	var summary runner.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return runner.RunSummary{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return summary, nil
}
