package prompt

import (
	"context"
	"strings"

	"github.com/a-h/templ"
)

// Message is a rendered system/user prompt pair.
type Message struct {
	System string
	User   string
}

// RenderGenerate builds the query generation prompt.
func RenderGenerate(ctx context.Context, input GenerateInput) (Message, error) {
	return renderPair(ctx, GenerateSystem(input), GenerateUser(input))
}

// RenderPrune builds the schema pruning prompt.
func RenderPrune(ctx context.Context, input PruneInput) (Message, error) {
	return renderPair(ctx, PruneSystem(), PruneUser(input))
}

// RenderAnswer builds the answer synthesis prompt.
func RenderAnswer(ctx context.Context, input AnswerInput) (Message, error) {
	return renderPair(ctx, AnswerSystem(), AnswerUser(input))
}

func renderPair(ctx context.Context, system, user templ.Component) (Message, error) {
	systemText, err := render(ctx, system)
	if err != nil {
		return Message{}, err
	}
	userText, err := render(ctx, user)
	if err != nil {
		return Message{}, err
	}
	return Message{System: systemText, User: userText}, nil
}

func render(ctx context.Context, component templ.Component) (string, error) {
	var builder strings.Builder
	if err := component.Render(ctx, &builder); err != nil {
		return "", err
	}
	return strings.TrimSpace(builder.String()), nil
}
