// Package storetest opens throwaway run history databases for tests.
package storetest

import (
	"testing"
	"time"

	"text2cypher/internal/store"
	"text2cypher/internal/testutil"
)

const defaultTimeout = 5 * time.Second

// Open returns an in-memory store with the schema applied. It is closed
// when the test ends.
func Open(t testing.TB) *store.Store {
	t.Helper()
	ctx := testutil.Context(t, defaultTimeout)
	db, err := store.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}
