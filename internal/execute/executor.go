// Package execute runs candidate queries against the graph engine under a
// time bound and classifies the outcome.
package execute

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"text2cypher/internal/cypher"
	"text2cypher/internal/graph"
	"text2cypher/internal/result"
)

const DefaultTimeout = 10 * time.Second

// Status is the execution result class.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusSyntaxError  Status = "syntax_error"
	StatusRuntimeError Status = "runtime_error"
	StatusTimeout      Status = "timeout"
)

// Outcome is the result of executing one query. Rows is set only on success.
type Outcome struct {
	Status   Status
	Rows     result.Raw
	Message  string
	Attempts int
}

// OK reports whether the query produced rows.
func (outcome Outcome) OK() bool {
	return outcome.Status == StatusSuccess
}

// Executor runs queries one at a time per call. It holds no mutable state and
// may be shared by concurrent workers.
type Executor struct {
	Engine       graph.Engine
	Timeout      time.Duration
	RetryTimeout time.Duration
	Logger       *slog.Logger
}

// Execute runs query and classifies the result. A timed-out query is retried
// once with RetryTimeout. The error return is reserved for caller
// cancellation and graph.ErrUnavailable; every other failure is an Outcome.
func (executor *Executor) Execute(ctx context.Context, query string) (Outcome, error) {
	return executor.ExecuteWithin(ctx, query, executor.timeout())
}

// ExecuteWithin is Execute with an explicit first-attempt timeout.
func (executor *Executor) ExecuteWithin(ctx context.Context, query string, timeout time.Duration) (Outcome, error) {
	if timeout <= 0 {
		timeout = executor.timeout()
	}
	outcome, err := executor.attempt(ctx, query, timeout)
	outcome.Attempts = 1
	if err != nil || outcome.Status != StatusTimeout {
		return outcome, err
	}
	retryTimeout := executor.retryTimeout(timeout)
	executor.logger().Debug("query timed out, retrying", "timeout", timeout, "retry_timeout", retryTimeout)
	outcome, err = executor.attempt(ctx, query, retryTimeout)
	outcome.Attempts = 2
	return outcome, err
}

func (executor *Executor) attempt(ctx context.Context, query string, timeout time.Duration) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	started := time.Now()
	raw, err := executor.Engine.Query(queryCtx, query, timeout)
	if err == nil {
		raw.Ordered = cypher.HasOrderBy(query)
		executor.logger().Debug("query executed", "rows", len(raw.Rows), "elapsed", time.Since(started).Round(time.Millisecond))
		return Outcome{Status: StatusSuccess, Rows: raw}, nil
	}
	if ctx.Err() != nil {
		return Outcome{}, ctx.Err()
	}
	if errors.Is(err, graph.ErrUnavailable) {
		return Outcome{}, err
	}
	if queryErr, ok := graph.AsQueryError(err); ok {
		return Outcome{Status: statusFor(queryErr.Kind), Message: queryErr.Message}, nil
	}
	if queryCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return Outcome{Status: StatusTimeout, Message: "query exceeded " + timeout.String()}, nil
	}
	return Outcome{Status: StatusRuntimeError, Message: err.Error()}, nil
}

func statusFor(kind graph.ErrorKind) Status {
	switch kind {
	case graph.KindSyntax:
		return StatusSyntaxError
	case graph.KindTimeout:
		return StatusTimeout
	default:
		return StatusRuntimeError
	}
}

func (executor *Executor) timeout() time.Duration {
	if executor.Timeout > 0 {
		return executor.Timeout
	}
	return DefaultTimeout
}

func (executor *Executor) retryTimeout(first time.Duration) time.Duration {
	if executor.RetryTimeout > 0 && first == executor.timeout() {
		return executor.RetryTimeout
	}
	return first / 2
}

func (executor *Executor) logger() *slog.Logger {
	if executor.Logger != nil {
		return executor.Logger
	}
	return slog.Default()
}
