package llm

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// DefaultOpenRouterBaseURL is the OpenRouter OpenAI-compatible endpoint.
const DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

const defaultRequestTimeout = 60 * time.Second

// HTTPDoer abstracts HTTP clients used by the provider.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// OpenRouterOptions configures an OpenRouterClient.
type OpenRouterOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient     HTTPDoer
	RequestTimeout time.Duration
	// RequestsPerSecond <= 0 disables client-side rate limiting.
	RequestsPerSecond float64
	Burst             int
	Logger            *slog.Logger
}

// OpenRouterClient implements Client over the OpenRouter chat completions
// API. It is safe for concurrent use; the rate limiter is shared by all
// callers.
type OpenRouterClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewOpenRouterClient validates options and builds a client.
func NewOpenRouterClient(opts OpenRouterOptions) (*OpenRouterClient, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	config := openai.DefaultConfig(opts.APIKey)
	config.BaseURL = DefaultOpenRouterBaseURL
	if strings.TrimSpace(opts.BaseURL) != "" {
		config.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		config.HTTPClient = opts.HTTPClient
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	limit := rate.Inf
	burst := opts.Burst
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		if burst <= 0 {
			burst = 1
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenRouterClient{
		client:  openai.NewClientWithConfig(config),
		model:   opts.Model,
		timeout: timeout,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}, nil
}

// Model returns the configured model id.
func (client *OpenRouterClient) Model() string {
	return client.model
}

// Complete sends one non-streaming chat completion.
func (client *OpenRouterClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := client.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &ProviderError{Reason: ReasonRateLimit, Model: client.model, Message: err.Error(), Err: err}
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	chatReq := openai.ChatCompletionRequest{
		Model:       client.model,
		Messages:    messages,
		Temperature: temperature(req.Temperature),
		Seed:        req.Seed,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, client.timeout)
	defer cancel()
	started := time.Now()
	resp, err := client.client.CreateChatCompletion(attemptCtx, chatReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		providerErr := newProviderError(client.model, err)
		client.logger.Debug("completion failed", "model", client.model, "reason", providerErr.Reason, "elapsed", time.Since(started))
		return "", providerErr
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	client.logger.Debug("completion finished",
		"model", client.model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"elapsed", time.Since(started),
	)
	return content, nil
}

// temperature keeps an explicit zero from being dropped by omitempty.
func temperature(value float64) float32 {
	if value <= 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(value)
}
