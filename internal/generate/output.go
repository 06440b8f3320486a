package generate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"text2cypher/internal/cypher"
)

// errMalformedOutput marks model output that holds no usable query. It
// consumes an attempt like an empty completion does.
var errMalformedOutput = errors.New("malformed model output")

var querySchema = jsonschema.MustCompileString("query.schema.json", `{
  "type": "object",
  "required": ["query"],
  "properties": {
    "query": { "type": "string", "minLength": 1 },
    "reasoning": { "type": "string" }
  }
}`)

var pruneSchema = jsonschema.MustCompileString("prune.schema.json", `{
  "type": "object",
  "required": ["nodes"],
  "properties": {
    "nodes": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["label"],
        "properties": { "label": { "type": "string", "minLength": 1 } }
      }
    },
    "edges": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["label"],
        "properties": { "label": { "type": "string", "minLength": 1 } }
      }
    }
  }
}`)

type queryOutput struct {
	Query     string `json:"query"`
	Reasoning string `json:"reasoning"`
}

type prunedOutput struct {
	Nodes []struct {
		Label string `json:"label"`
	} `json:"nodes"`
	Edges []struct {
		Label string `json:"label"`
	} `json:"edges"`
}

// parseQuery reads {"query": ...} output, falling back to a fenced block
// or the raw text.
func parseQuery(text string) (queryOutput, error) {
	if raw, ok := jsonObject(text); ok {
		var out queryOutput
		if err := decodeValidated(raw, querySchema, &out); err == nil {
			out.Query = cypher.Clean(out.Query)
			if out.Query != "" {
				return out, nil
			}
		}
	}
	query := cypher.ExtractQuery(text)
	if query == "" || strings.HasPrefix(query, "{") {
		return queryOutput{}, fmt.Errorf("%w: no query found", errMalformedOutput)
	}
	return queryOutput{Query: query}, nil
}

func parsePruned(text string) (prunedOutput, error) {
	raw, ok := jsonObject(text)
	if !ok {
		return prunedOutput{}, fmt.Errorf("%w: no json object", errMalformedOutput)
	}
	var out prunedOutput
	if err := decodeValidated(raw, pruneSchema, &out); err != nil {
		return prunedOutput{}, err
	}
	return out, nil
}

func decodeValidated(raw string, schema *jsonschema.Schema, target any) error {
	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return fmt.Errorf("%w: %v", errMalformedOutput, err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("%w: %v", errMalformedOutput, err)
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return fmt.Errorf("%w: %v", errMalformedOutput, err)
	}
	return nil
}

// jsonObject returns the outermost {...} span of text.
func jsonObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
