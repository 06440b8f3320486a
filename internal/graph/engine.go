// Package graph is the boundary to the graph database engine.
package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"text2cypher/internal/result"
)

// ErrUnavailable reports that the engine cannot be reached at all.
var ErrUnavailable = errors.New("graph engine unavailable")

// Engine executes read-only Cypher queries.
type Engine interface {
	Query(ctx context.Context, query string, timeout time.Duration) (result.Raw, error)
}

// MetadataSource enumerates node labels, relationship types and properties.
type MetadataSource interface {
	Metadata(ctx context.Context) (Metadata, error)
}

// ErrorKind classifies a failed query.
type ErrorKind string

const (
	KindSyntax  ErrorKind = "syntax"
	KindRuntime ErrorKind = "runtime"
	KindTimeout ErrorKind = "timeout"
)

// QueryError is returned for queries the engine rejected or aborted.
type QueryError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

// Error returns a readable message for the query failure.
func (err *QueryError) Error() string {
	if err == nil {
		return ""
	}
	if err.Code != "" {
		return fmt.Sprintf("%s error (%s): %s", err.Kind, err.Code, err.Message)
	}
	return fmt.Sprintf("%s error: %s", err.Kind, err.Message)
}

// Unwrap returns the underlying driver error.
func (err *QueryError) Unwrap() error {
	if err == nil {
		return nil
	}
	return err.Err
}

// AsQueryError extracts a QueryError from err.
func AsQueryError(err error) (*QueryError, bool) {
	var queryErr *QueryError
	if errors.As(err, &queryErr) {
		return queryErr, true
	}
	return nil, false
}
