package prompt

import (
	"context"
	"strings"
	"testing"
)

func TestRenderGenerateIsDeterministic(t *testing.T) {
	input := GenerateInput{
		Question:  "How many friends does person 933 have?",
		Schema:    `{"nodes":[],"edges":[]}`,
		Exemplars: []Exemplar{{Question: "Who is person 1?", Query: "MATCH (p:Person {id: 1}) RETURN p.firstName"}},
	}
	first, err := RenderGenerate(context.Background(), input)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := RenderGenerate(context.Background(), input)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical renders")
	}
	if !strings.HasPrefix(first.System, "Translate the question") {
		t.Fatalf("expected default instructions, got %q", first.System)
	}
	wantUser := "Example 1\nquestion: Who is person 1?\nquery: MATCH (p:Person {id: 1}) RETURN p.firstName\n\n" +
		"input_schema: {\"nodes\":[],\"edges\":[]}\nquestion: How many friends does person 933 have?"
	if first.User != wantUser {
		t.Fatalf("unexpected user prompt:\n%s", first.User)
	}
}

func TestRenderGenerateReasoningAndInstructions(t *testing.T) {
	message, err := RenderGenerate(context.Background(), GenerateInput{Question: "q", Instructions: "Custom.", Reasoning: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(message.System, "Custom.") || !strings.Contains(message.System, `"reasoning"`) {
		t.Fatalf("unexpected system prompt %q", message.System)
	}
}

func TestRenderAnswer(t *testing.T) {
	message, err := RenderAnswer(context.Background(), AnswerInput{Question: "q", Query: "RETURN 1", Context: "[1]"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if message.User != "question: q\ncypher_query: RETURN 1\ncontext: [1]" {
		t.Fatalf("unexpected answer prompt %q", message.User)
	}
}

func TestRenderKeepsPromptTextUnescaped(t *testing.T) {
	input := GenerateInput{
		Question: `Who wrote "Tom & Jerry"?`,
		Schema:   `{"edges":[{"label":"hasCreator","from":"Post","to":"Person"}]}`,
		Exemplars: []Exemplar{{
			Question: "Who follows person 1?",
			Query:    "MATCH (a:Person)-[:FOLLOWS]->(b:Person {id: 1}) WHERE a.age < 30 RETURN a.name",
		}},
	}
	message, err := RenderGenerate(context.Background(), input)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, text := range []string{message.System, message.User} {
		for _, escaped := range []string{"&#34;", "&lt;", "&gt;", "&amp;"} {
			if strings.Contains(text, escaped) {
				t.Fatalf("prompt must be plain text, found %s in:\n%s", escaped, text)
			}
		}
	}
	if !strings.Contains(message.System, "<SYNTAX>") || !strings.HasSuffix(message.System, `{"query": "<cypher>"}. The query must not contain newlines.`) {
		t.Fatalf("unexpected system prompt:\n%s", message.System)
	}
	for _, want := range []string{"WHERE a.age < 30", `question: Who wrote "Tom & Jerry"?`, "input_schema: " + input.Schema} {
		if !strings.Contains(message.User, want) {
			t.Fatalf("expected %q in user prompt:\n%s", want, message.User)
		}
	}

	prune, err := RenderPrune(context.Background(), PruneInput{Question: "q", Schema: "{}"})
	if err != nil {
		t.Fatalf("render prune: %v", err)
	}
	if lines := strings.Split(prune.System, "\n"); len(lines) != len(pruneInstructions) || lines[0] != pruneInstructions[0] {
		t.Fatalf("expected one line per instruction, got:\n%s", prune.System)
	}
	if prune.User != "input_schema: {}\nquestion: q" {
		t.Fatalf("unexpected prune request %q", prune.User)
	}
}
