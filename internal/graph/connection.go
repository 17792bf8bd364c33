// Package graph talks to the Neo4j database that holds the canonical
// parliamentary entities and receives the derived analysis nodes.
package graph

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sirupsen/logrus"

	"vlos-insights-go/internal/logger"
)

// Connection wraps a Neo4j driver plus the target database name. Safe for
// concurrent use; sessions are created per call.
type Connection struct {
	driver   neo4j.DriverWithContext
	database string
	log      *logrus.Entry
}

// Connect builds a connection from NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD and
// NEO4J_DATABASE and verifies connectivity.
func Connect(ctx context.Context) (*Connection, error) {
	uri := envOr("NEO4J_URI", "bolt://localhost:7687")
	user := envOr("NEO4J_USER", "neo4j")
	pass := os.Getenv("NEO4J_PASSWORD")
	database := envOr("NEO4J_DATABASE", "neo4j")

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, pass, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	log := logger.New().WithField("component", "graph")
	log.WithField("uri", uri).Info("connected to neo4j")

	return &Connection{driver: driver, database: database, log: log}, nil
}

func (c *Connection) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func checkIdent(kind, s string) error {
	if !identRe.MatchString(s) {
		return fmt.Errorf("invalid %s %q", kind, s)
	}
	return nil
}

// MergeNode idempotently upserts a node, merging on one key property and
// layering the remaining properties on top.
func (c *Connection) MergeNode(ctx context.Context, label, key string, keyVal any, props map[string]any) error {
	if err := checkIdent("label", label); err != nil {
		return err
	}
	if err := checkIdent("property", key); err != nil {
		return err
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: c.database})
	defer session.Close(ctx)

	query := fmt.Sprintf("MERGE (n:%s {%s: $key_val}) SET n += $props", label, key)
	_, err := session.Run(ctx, query, map[string]any{"key_val": keyVal, "props": props})
	if err != nil {
		return fmt.Errorf("merge node %s: %w", label, err)
	}
	return nil
}

// MergeRel idempotently links two existing nodes. Missing endpoints make the
// MERGE a no-op rather than an error, matching how the entity loaders work.
func (c *Connection) MergeRel(ctx context.Context, fromLabel, fromKey string, fromVal any, toLabel, toKey string, toVal any, relType string) error {
	for kind, ident := range map[string]string{
		"label":    fromLabel,
		"to label": toLabel,
		"rel type": relType,
		"property": fromKey,
		"to key":   toKey,
	} {
		if err := checkIdent(kind, ident); err != nil {
			return err
		}
	}

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: c.database})
	defer session.Close(ctx)

	query := fmt.Sprintf(
		"MATCH (a:%s {%s: $from_val}) MATCH (b:%s {%s: $to_val}) MERGE (a)-[:%s]->(b)",
		fromLabel, fromKey, toLabel, toKey, relType,
	)
	_, err := session.Run(ctx, query, map[string]any{"from_val": fromVal, "to_val": toVal})
	if err != nil {
		return fmt.Errorf("merge rel %s: %w", relType, err)
	}
	return nil
}

// Read runs a read query and collects all records.
func (c *Connection) Read(ctx context.Context, query string, params map[string]any) ([]*neo4j.Record, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: c.database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return result.Collect(ctx)
}

// RecordString reads a string field from a record, empty when absent or null.
func RecordString(record *neo4j.Record, key string) string {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// RecordInt reads an integer field from a record, zero when absent.
func RecordInt(record *neo4j.Record, key string) int {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

// RecordTime reads a temporal field from a record. The loaders store
// timestamps as RFC3339 strings; native Neo4j temporals are handled too.
func RecordTime(record *neo4j.Record, key string) *time.Time {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case time.Time:
		return &t
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05Z07:00", "2006-01-02T15:04:05"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return &parsed
			}
		}
	}
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
