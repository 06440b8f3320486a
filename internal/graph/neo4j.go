package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"text2cypher/internal/result"
)

const defaultMetadataTimeout = 60 * time.Second

// Neo4jOptions configures a Bolt connection.
type Neo4jOptions struct {
	URI             string
	Username        string
	Password        string
	Database        string
	MaxConnections  int
	MetadataTimeout time.Duration
	Logger          *slog.Logger
}

// Neo4jEngine runs queries over Bolt using the Neo4j driver. Every query
// runs in a read-mode session inside an explicit transaction that is always
// rolled back, so the engine never commits writes.
type Neo4jEngine struct {
	driver          neo4j.DriverWithContext
	database        string
	metadataTimeout time.Duration
	logger          *slog.Logger
}

// NewNeo4jEngine connects to the engine and verifies connectivity.
func NewNeo4jEngine(ctx context.Context, opts Neo4jOptions) (*Neo4jEngine, error) {
	if strings.TrimSpace(opts.URI) == "" {
		return nil, fmt.Errorf("%w: uri is required", ErrUnavailable)
	}
	driver, err := neo4j.NewDriverWithContext(
		opts.URI,
		neo4j.BasicAuth(opts.Username, opts.Password, ""),
		func(cfg *neo4j.Config) {
			if opts.MaxConnections > 0 {
				cfg.MaxConnectionPoolSize = opts.MaxConnections
			}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create driver: %v", ErrUnavailable, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("%w: verify connectivity: %v", ErrUnavailable, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.MetadataTimeout
	if timeout <= 0 {
		timeout = defaultMetadataTimeout
	}
	return &Neo4jEngine{driver: driver, database: opts.Database, metadataTimeout: timeout, logger: logger}, nil
}

// Close releases the connection pool.
func (engine *Neo4jEngine) Close(ctx context.Context) error {
	return engine.driver.Close(ctx)
}

// Query executes one read-only query bounded by timeout.
func (engine *Neo4jEngine) Query(ctx context.Context, query string, timeout time.Duration) (result.Raw, error) {
	keys, records, err := engine.collect(ctx, query, timeout)
	if err != nil {
		return result.Raw{}, err
	}
	rows := make([][]any, 0, len(records))
	for _, record := range records {
		cells := make([]any, 0, len(record.Values))
		for _, value := range record.Values {
			cells = append(cells, plainValue(value))
		}
		rows = append(rows, cells)
	}
	return result.Raw{Columns: keys, Rows: rows}, nil
}

func (engine *Neo4jEngine) collect(ctx context.Context, query string, timeout time.Duration) ([]string, []*neo4j.Record, error) {
	queryCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	cleanupCtx := context.WithoutCancel(ctx)

	session := engine.driver.NewSession(queryCtx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: engine.database,
	})
	defer session.Close(cleanupCtx)

	var txOptions []func(*neo4j.TransactionConfig)
	if timeout > 0 {
		txOptions = append(txOptions, neo4j.WithTxTimeout(timeout))
	}
	tx, err := session.BeginTransaction(queryCtx, txOptions...)
	if err != nil {
		return nil, nil, engine.classify(ctx, queryCtx, err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(cleanupCtx); rollbackErr != nil {
			engine.logger.Debug("graph rollback failed", "error", rollbackErr)
		}
	}()

	res, err := tx.Run(queryCtx, query, nil)
	if err != nil {
		return nil, nil, engine.classify(ctx, queryCtx, err)
	}
	records, err := res.Collect(queryCtx)
	if err != nil {
		return nil, nil, engine.classify(ctx, queryCtx, err)
	}
	keys, err := res.Keys()
	if err != nil {
		return nil, nil, engine.classify(ctx, queryCtx, err)
	}
	return keys, records, nil
}

// classify maps driver errors onto QueryError kinds, ErrUnavailable or the
// caller's context error.
func (engine *Neo4jEngine) classify(parent, queryCtx context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	var neoErr *neo4j.Neo4jError
	if errors.As(err, &neoErr) {
		switch {
		case strings.Contains(neoErr.Code, "TransactionTimedOut"):
			return &QueryError{Kind: KindTimeout, Code: neoErr.Code, Message: neoErr.Msg, Err: err}
		case strings.HasPrefix(neoErr.Code, "Neo.ClientError.Statement.Syntax"):
			return &QueryError{Kind: KindSyntax, Code: neoErr.Code, Message: neoErr.Msg, Err: err}
		case strings.HasPrefix(neoErr.Code, "Neo.ClientError.Security."):
			return fmt.Errorf("%w: %s", ErrUnavailable, neoErr.Msg)
		default:
			return &QueryError{Kind: KindRuntime, Code: neoErr.Code, Message: neoErr.Msg, Err: err}
		}
	}
	if queryCtx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return &QueryError{Kind: KindTimeout, Message: "query exceeded its time limit", Err: err}
	}
	if neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &QueryError{Kind: KindRuntime, Message: err.Error(), Err: err}
}

// Metadata enumerates labels, relationship types, properties and the
// directed patterns present in the data.
func (engine *Neo4jEngine) Metadata(ctx context.Context) (Metadata, error) {
	var meta Metadata
	_, nodeRecords, err := engine.collect(ctx, nodePropertiesQuery, engine.metadataTimeout)
	if err != nil {
		return Metadata{}, fmt.Errorf("node properties: %w", err)
	}
	for _, record := range nodeRecords {
		for _, label := range stringList(record.Values[0]) {
			meta.NodeProperties = append(meta.NodeProperties, PropertyInfo{
				Owner:    label,
				Property: stringValue(record.Values[1]),
				Types:    stringList(record.Values[2]),
			})
		}
	}

	_, relRecords, err := engine.collect(ctx, relPropertiesQuery, engine.metadataTimeout)
	if err != nil {
		return Metadata{}, fmt.Errorf("relationship properties: %w", err)
	}
	for _, record := range relRecords {
		meta.RelationshipProperties = append(meta.RelationshipProperties, PropertyInfo{
			Owner:    relTypeName(stringValue(record.Values[0])),
			Property: stringValue(record.Values[1]),
			Types:    stringList(record.Values[2]),
		})
	}

	_, patternRecords, err := engine.collect(ctx, patternsQuery, engine.metadataTimeout)
	if err != nil {
		return Metadata{}, fmt.Errorf("relationship patterns: %w", err)
	}
	for _, record := range patternRecords {
		meta.Patterns = append(meta.Patterns, Pattern{
			From: stringValue(record.Values[0]),
			Type: stringValue(record.Values[1]),
			To:   stringValue(record.Values[2]),
		})
	}
	engine.logger.Debug("graph metadata loaded",
		"node_properties", len(meta.NodeProperties),
		"relationship_properties", len(meta.RelationshipProperties),
		"patterns", len(meta.Patterns),
	)
	return meta, nil
}

const (
	nodePropertiesQuery = "CALL db.schema.nodeTypeProperties() YIELD nodeLabels, propertyName, propertyTypes " +
		"RETURN nodeLabels, propertyName, propertyTypes"
	relPropertiesQuery = "CALL db.schema.relTypeProperties() YIELD relType, propertyName, propertyTypes " +
		"RETURN relType, propertyName, propertyTypes"
	patternsQuery = "MATCH (a)-[r]->(b) UNWIND labels(a) AS source UNWIND labels(b) AS target " +
		"RETURN DISTINCT source, type(r) AS rel, target"
)

// relTypeName turns ":`KNOWS`" into "KNOWS".
func relTypeName(raw string) string {
	name := strings.TrimPrefix(raw, ":")
	return strings.Trim(name, "`")
}

func stringValue(value any) string {
	if text, ok := value.(string); ok {
		return text
	}
	return ""
}

func stringList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if text, ok := item.(string); ok {
			out = append(out, text)
		}
	}
	return out
}
