package runner

import (
	"io"
	"sync"
)

// lockedWriter serializes writes to an underlying writer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// Write writes to the underlying writer with a mutex guard.
func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// wrapVerboseWriter returns a concurrency-safe writer when workers > 1.
func wrapVerboseWriter(workers int, writer io.Writer) io.Writer {
	if workers <= 1 || writer == nil {
		return writer
	}
	if _, ok := writer.(*lockedWriter); ok {
		return writer
	}
	return &lockedWriter{w: writer}
}
