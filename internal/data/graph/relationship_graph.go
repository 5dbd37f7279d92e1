// Package graph mirrors active user relationships into Neo4j so that
// multi-hop questions ("who does X know that also knows Y") can be
// answered with a graph traversal instead of repeated SQL self-joins.
// This mirror is optional and best-effort: the user_relationships table
// in Postgres (internal/data/repos.RelationshipRepo) is always the
// source of truth, and a write failure here never fails the caller.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/chatcortex/internal/domain/model"
	"github.com/yungbote/chatcortex/internal/platform/logger"
	"github.com/yungbote/chatcortex/internal/platform/neo4jdb"
)

// RelationshipMirror upserts one user_relationships row into the graph as
// a (Person)-[:RELATIONSHIP]->(Person) edge, keyed by (chat_id, name)
// since related people need not have their own Telegram account.
type RelationshipMirror struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewRelationshipMirror(client *neo4jdb.Client, log *logger.Logger) *RelationshipMirror {
	return &RelationshipMirror{client: client, log: log.With("component", "graph.RelationshipMirror")}
}

// Enabled reports whether a live Neo4j driver is configured. Callers use
// this to skip graph work entirely rather than calling into a nil client.
func (m *RelationshipMirror) Enabled() bool {
	return m != nil && m.client != nil && m.client.Driver != nil
}

func personKey(chatID int64, name string) string {
	return fmt.Sprintf("%d:%s", chatID, name)
}

// UpsertEdge mirrors one active relationship edge. Deactivated
// relationships are pruned by DeactivateEdge, not this method.
func (m *RelationshipMirror) UpsertEdge(ctx context.Context, rel *model.UserRelationship, userDisplayName string) error {
	if !m.Enabled() || rel == nil {
		return nil
	}

	session := m.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: m.client.Database,
	})
	defer session.Close(ctx)

	now := time.Now().UTC().Format(time.RFC3339Nano)
	params := map[string]any{
		"from_key":  personKey(rel.ChatID, userDisplayName),
		"from_name": userDisplayName,
		"to_key":    personKey(rel.ChatID, rel.RelatedPersonName),
		"to_name":   rel.RelatedPersonName,
		"chat_id":   rel.ChatID,
		"rel_type":  rel.RelationshipType,
		"label":     rel.SurfaceLabel,
		"confidence": rel.Confidence,
		"synced_at": now,
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if res, err := tx.Run(ctx, `
CREATE CONSTRAINT person_key_unique IF NOT EXISTS FOR (p:Person) REQUIRE p.key IS UNIQUE
`, nil); err != nil {
			if m.log != nil {
				m.log.Warn("neo4j schema init failed (continuing)", "error", err)
			}
		} else {
			_, _ = res.Consume(ctx)
		}

		res, err := tx.Run(ctx, `
MERGE (a:Person {key: $from_key})
SET a.name = $from_name, a.chat_id = $chat_id
MERGE (b:Person {key: $to_key})
SET b.name = $to_name, b.chat_id = $chat_id
MERGE (a)-[e:RELATIONSHIP {rel_type: $rel_type}]->(b)
SET e.label = $label,
    e.confidence = $confidence,
    e.active = true,
    e.synced_at = $synced_at
`, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("graph: upsert relationship edge: %w", err)
	}
	return nil
}

// DeactivateEdge marks an edge inactive rather than deleting it, mirroring
// the Postgres repo's soft-deactivation semantics (spec.md §3's exclusive-
// relationship supersession).
func (m *RelationshipMirror) DeactivateEdge(ctx context.Context, chatID int64, fromName, toName, relType string) error {
	if !m.Enabled() {
		return nil
	}

	session := m.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: m.client.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (a:Person {key: $from_key})-[e:RELATIONSHIP {rel_type: $rel_type}]->(b:Person {key: $to_key})
SET e.active = false
`, map[string]any{
			"from_key": personKey(chatID, fromName),
			"to_key":   personKey(chatID, toName),
			"rel_type": relType,
		})
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	if err != nil {
		return fmt.Errorf("graph: deactivate relationship edge: %w", err)
	}
	return nil
}

// NeighborsWithinHops returns the names of every Person reachable from
// start within maxHops active RELATIONSHIP edges (either direction),
// powering multi-hop questions the SQL repo cannot answer in one query.
func (m *RelationshipMirror) NeighborsWithinHops(ctx context.Context, chatID int64, startName string, maxHops int) ([]string, error) {
	if !m.Enabled() {
		return nil, nil
	}
	if maxHops <= 0 {
		maxHops = 2
	}

	session := m.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: m.client.Database,
	})
	defer session.Close(ctx)

	query := fmt.Sprintf(`
MATCH (start:Person {key: $start_key})-[:RELATIONSHIP*1..%d {active: true}]-(n:Person)
WHERE n <> start
RETURN DISTINCT n.name AS name
`, maxHops)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, map[string]any{"start_key": personKey(chatID, startName)})
		if err != nil {
			return nil, err
		}
		var names []string
		for res.Next(ctx) {
			if v, ok := res.Record().Get("name"); ok {
				if s, ok := v.(string); ok {
					names = append(names, s)
				}
			}
		}
		return names, res.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("graph: neighbors within hops: %w", err)
	}
	return result.([]string), nil
}
