//go:build integration
// +build integration

package graph

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const integrationPassword = "integration-secret"

func startNeo4j(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "neo4j:5.26-community",
			ExposedPorts: []string{"7687/tcp"},
			Env:          map[string]string{"NEO4J_AUTH": "neo4j/" + integrationPassword},
			WaitingFor:   wait.ForListeningPort("7687/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start neo4j container: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "7687")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return fmt.Sprintf("bolt://%s:%s", host, port.Port())
}

func seedSocialGraph(t *testing.T, uri string) {
	t.Helper()
	ctx := context.Background()
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth("neo4j", integrationPassword, ""))
	if err != nil {
		t.Fatalf("driver: %v", err)
	}
	defer driver.Close(ctx)
	_, err = neo4j.ExecuteQuery(ctx, driver,
		"CREATE (a:Person {id: 933, firstName: 'Mahinda'})-[:KNOWS {since: 2010}]->(b:Person {id: 1129}), "+
			"(a)-[:KNOWS]->(:Person {id: 4194}), (m:Comment {id: 1})-[:HAS_CREATOR]->(b)",
		nil, neo4j.EagerResultTransformer)
	if err != nil {
		t.Fatalf("seed graph: %v", err)
	}
}

func TestNeo4jEngineIntegration(t *testing.T) {
	uri := startNeo4j(t)
	var engine *Neo4jEngine
	deadline := time.Now().Add(time.Minute)
	for {
		var err error
		engine, err = NewNeo4jEngine(context.Background(), Neo4jOptions{URI: uri, Username: "neo4j", Password: integrationPassword})
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("connect: %v", err)
		}
		time.Sleep(time.Second)
	}
	defer engine.Close(context.Background())
	seedSocialGraph(t, uri)

	ctx := context.Background()
	raw, err := engine.Query(ctx, "MATCH (:Person {id: 933})-[:KNOWS]->(f) RETURN count(f) AS friends", 5*time.Second)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(raw.Rows) != 1 || raw.Rows[0][0] != int64(2) {
		t.Fatalf("unexpected rows %#v", raw.Rows)
	}

	_, err = engine.Query(ctx, "MATCH (p:Person RETURN p", 5*time.Second)
	if queryErr, ok := AsQueryError(err); !ok || queryErr.Kind != KindSyntax {
		t.Fatalf("expected syntax error, got %v", err)
	}

	_, err = engine.Query(ctx, "CREATE (:Person {id: 1})", 5*time.Second)
	if _, ok := AsQueryError(err); !ok {
		t.Fatalf("expected write to be rejected, got %v", err)
	}
	raw, err = engine.Query(ctx, "MATCH (p:Person {id: 1}) RETURN p", 5*time.Second)
	if err != nil || len(raw.Rows) != 0 {
		t.Fatalf("expected no committed writes, got %v rows err=%v", raw.Rows, err)
	}

	meta, err := engine.Metadata(ctx)
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	found := false
	for _, pattern := range meta.Patterns {
		if pattern == (Pattern{From: "Comment", Type: "HAS_CREATOR", To: "Person"}) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected HAS_CREATOR pattern in %+v", meta.Patterns)
	}

	if _, err := NewNeo4jEngine(ctx, Neo4jOptions{URI: "bolt://127.0.0.1:1", Username: "neo4j", Password: "x"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
