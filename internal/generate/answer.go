package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"text2cypher/internal/llm"
	"text2cypher/internal/prompt"
	"text2cypher/internal/result"
)

// NotEnoughInformation is returned without a model call when the query
// produced no rows.
const NotEnoughInformation = "I don't have enough information to answer the question."

// Answerer turns query results into a natural-language answer. It is not
// part of scoring.
type Answerer struct {
	Client llm.Client
	Logger *slog.Logger
}

// Answer synthesizes a reply for question from the executed query rows.
func (answerer Answerer) Answer(ctx context.Context, question, query string, rows result.Raw) (string, error) {
	if len(rows.Rows) == 0 {
		return NotEnoughInformation, nil
	}
	flattened := make([]any, 0, len(rows.Rows))
	for _, row := range rows.Rows {
		flattened = append(flattened, row...)
	}
	contextJSON, err := json.Marshal(flattened)
	if err != nil {
		contextJSON = []byte(fmt.Sprint(flattened))
	}
	message, err := prompt.RenderAnswer(ctx, prompt.AnswerInput{Question: question, Query: query, Context: string(contextJSON)})
	if err != nil {
		return "", fmt.Errorf("render answer prompt: %w", err)
	}
	reply, err := answerer.Client.Complete(ctx, llm.Request{System: message.System, User: message.User})
	if err != nil {
		return "", fmt.Errorf("answer question: %w", err)
	}
	if answerer.Logger != nil {
		answerer.Logger.Debug("answer synthesized", "rows", len(rows.Rows))
	}
	return reply, nil
}
