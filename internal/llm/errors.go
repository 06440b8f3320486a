package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Reason categorizes a failed completion.
type Reason string

const (
	ReasonRateLimit      Reason = "rate_limit"
	ReasonTimeout        Reason = "timeout"
	ReasonServerError    Reason = "server_error"
	ReasonNetwork        Reason = "network"
	ReasonAuth           Reason = "auth"
	ReasonBilling        Reason = "billing"
	ReasonInvalidRequest Reason = "invalid_request"
	ReasonUnknown        Reason = "unknown"
)

// Retryable reports whether retrying may succeed.
func (reason Reason) Retryable() bool {
	switch reason {
	case ReasonRateLimit, ReasonTimeout, ReasonServerError, ReasonNetwork:
		return true
	default:
		return false
	}
}

// ProviderError is a classified completion failure.
type ProviderError struct {
	Reason  Reason
	Model   string
	Status  int
	Message string
	Err     error
}

// Error returns a readable message.
func (err *ProviderError) Error() string {
	parts := []string{fmt.Sprintf("[%s]", err.Reason)}
	if err.Model != "" {
		parts = append(parts, "model="+err.Model)
	}
	if err.Status != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", err.Status))
	}
	if err.Message != "" {
		parts = append(parts, err.Message)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the transport error.
func (err *ProviderError) Unwrap() error {
	return err.Err
}

// IsRetryable reports whether a completion error is transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrEmptyCompletion) {
		return true
	}
	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Reason.Retryable()
	}
	return classify(err).Retryable()
}

func newProviderError(model string, err error) *ProviderError {
	providerErr := &ProviderError{Reason: classify(err), Model: model, Message: err.Error(), Err: err}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		providerErr.Status = apiErr.HTTPStatusCode
		providerErr.Message = apiErr.Message
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		providerErr.Status = reqErr.HTTPStatusCode
	}
	return providerErr
}

func classify(err error) Reason {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ReasonTimeout
		}
		return ReasonNetwork
	}
	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "rate limit") || strings.Contains(message, "too many requests"):
		return ReasonRateLimit
	case strings.Contains(message, "timeout"):
		return ReasonTimeout
	case strings.Contains(message, "connection refused") || strings.Contains(message, "connection reset") || strings.Contains(message, "eof"):
		return ReasonNetwork
	}
	return ReasonUnknown
}

func classifyStatus(status int) Reason {
	switch {
	case status == http.StatusTooManyRequests:
		return ReasonRateLimit
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ReasonTimeout
	case status >= 500:
		return ReasonServerError
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ReasonAuth
	case status == http.StatusPaymentRequired:
		return ReasonBilling
	case status >= 400:
		return ReasonInvalidRequest
	default:
		return ReasonUnknown
	}
}
