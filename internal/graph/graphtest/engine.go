// Package graphtest provides a scripted in-memory Engine for tests.
package graphtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"text2cypher/internal/graph"
	"text2cypher/internal/result"
)

// Response is one scripted reply. Delay simulates engine work; a delay
// longer than the query timeout yields a timeout QueryError.
type Response struct {
	Rows  [][]any
	Err   error
	Delay time.Duration
}

// Call records one Query invocation.
type Call struct {
	Query   string
	Timeout time.Duration
}

// Engine answers queries from a script keyed by exact query text. Each call
// consumes the next response for its query; the last one repeats.
// Unknown queries fail with a syntax error.
type Engine struct {
	mu        sync.Mutex
	responses map[string][]Response
	calls     []Call
	Meta      graph.Metadata
	MetaErr   error
}

// New returns an empty scripted engine.
func New() *Engine {
	return &Engine{responses: map[string][]Response{}}
}

// On scripts the responses for a query.
func (engine *Engine) On(query string, responses ...Response) *Engine {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	engine.responses[query] = append(engine.responses[query], responses...)
	return engine
}

// Rows scripts a single successful reply.
func (engine *Engine) Rows(query string, rows ...[]any) *Engine {
	return engine.On(query, Response{Rows: rows})
}

// Calls returns a copy of the recorded calls.
func (engine *Engine) Calls() []Call {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return append([]Call(nil), engine.calls...)
}

// Query implements graph.Engine.
func (engine *Engine) Query(ctx context.Context, query string, timeout time.Duration) (result.Raw, error) {
	engine.mu.Lock()
	engine.calls = append(engine.calls, Call{Query: query, Timeout: timeout})
	queue := engine.responses[query]
	var response Response
	found := len(queue) > 0
	if found {
		response = queue[0]
		if len(queue) > 1 {
			engine.responses[query] = queue[1:]
		}
	}
	engine.mu.Unlock()

	if !found {
		return result.Raw{}, &graph.QueryError{Kind: graph.KindSyntax, Message: fmt.Sprintf("unscripted query %q", query)}
	}
	if response.Delay > 0 {
		wait := response.Delay
		timedOut := timeout > 0 && timeout < wait
		if timedOut {
			wait = timeout
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return result.Raw{}, ctx.Err()
		case <-timer.C:
		}
		if timedOut {
			return result.Raw{}, &graph.QueryError{Kind: graph.KindTimeout, Message: "query exceeded its time limit"}
		}
	}
	if err := ctx.Err(); err != nil {
		return result.Raw{}, err
	}
	if response.Err != nil {
		return result.Raw{}, response.Err
	}
	rows := make([][]any, 0, len(response.Rows))
	for _, row := range response.Rows {
		rows = append(rows, append([]any(nil), row...))
	}
	return result.Raw{Rows: rows}, nil
}

// Metadata implements graph.MetadataSource.
func (engine *Engine) Metadata(ctx context.Context) (graph.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return graph.Metadata{}, err
	}
	if engine.MetaErr != nil {
		return graph.Metadata{}, engine.MetaErr
	}
	return engine.Meta, nil
}

// SyntaxError is a convenience scripted failure.
func SyntaxError(message string) Response {
	return Response{Err: &graph.QueryError{Kind: graph.KindSyntax, Code: "Neo.ClientError.Statement.SyntaxError", Message: message}}
}

// RuntimeError is a convenience scripted failure.
func RuntimeError(message string) Response {
	return Response{Err: &graph.QueryError{Kind: graph.KindRuntime, Message: message}}
}

// Unavailable is a scripted connection loss.
func Unavailable() Response {
	return Response{Err: fmt.Errorf("%w: connection refused", graph.ErrUnavailable)}
}
