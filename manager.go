package neoseed

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
)

// Endpoint names one side of a derived relationship: nodes with Label,
// compared on property Key.
type Endpoint struct {
	Label string
	Key   string
}

// Derivation describes relationships created by matching attribute values
// across two node sets rather than by explicit ids. An edge of type Type is
// created From -> To for every pair where From.Key = To.Key. Pairs with no
// match simply produce no edge.
type Derivation struct {
	Type string
	From Endpoint
	To   Endpoint
}

// HasRoleDerivation links each User to the Role its roleId points at.
var HasRoleDerivation = Derivation{
	Type: RelHasRole,
	From: Endpoint{Label: "User", Key: "roleId"},
	To:   Endpoint{Label: "Role", Key: "roleId"},
}

// CreatedDerivation links each User to the Tests whose creatorId points at it.
var CreatedDerivation = Derivation{
	Type: RelCreated,
	From: Endpoint{Label: "User", Key: "userId"},
	To:   Endpoint{Label: "Test", Key: "creatorId"},
}

// Query renders the derivation as Cypher.
func (d Derivation) Query() (string, error) {
	for _, id := range []string{d.Type, d.From.Label, d.From.Key, d.To.Label, d.To.Key} {
		if !validIdent(id) {
			return "", fmt.Errorf("invalid identifier %q in %s derivation", id, d.Type)
		}
	}
	return fmt.Sprintf(`MATCH (a:%s), (b:%s)
WHERE a.%s = b.%s
CREATE (a)-[:%s]->(b)
RETURN count(*) AS cnt`, d.From.Label, d.To.Label, d.From.Key, d.To.Key, d.Type), nil
}

// RelationManager handles operations that span entity types: linking
// nodes, deriving relationships and exporting graphs.
type RelationManager struct {
	exec Executor
	// metaCache stores parsed entityMetadata keyed by reflect.Type.
	metaCache sync.Map
}

// NewRelationManager creates a RelationManager bound to exec.
func NewRelationManager(exec Executor) *RelationManager {
	return &RelationManager{exec: exec}
}

// RepositoryFor returns a repository for T that shares the manager's executor.
func RepositoryFor[T any](m *RelationManager) (*Repository[T], error) {
	return NewRepository[T](m.exec)
}

// CreateRelation creates a directed relationship between two existing
// entities, matching both nodes on their primary keys. If either node is
// missing nothing is created and no error is returned.
//
// Parameters:
//   - ctx: The context for the query execution.
//   - fromEntity: A pointer to the start entity (e.g., &User{}).
//   - toEntity: A pointer to the end entity (e.g., &Role{}).
//   - relType: The relationship type (e.g., "HAS_ROLE").
//   - relProps: Optional properties to set on the relationship.
//
// Returns:
//
//	An error if either entity is invalid or the query fails.
func (m *RelationManager) CreateRelation(ctx context.Context, fromEntity any, toEntity any, relType string, relProps map[string]any) error {
	if !validIdent(relType) {
		return fmt.Errorf("invalid relationship type %q", relType)
	}
	fromMeta, fromPK, err := m.metaAndPK(fromEntity)
	if err != nil {
		return err
	}
	toMeta, toPK, err := m.metaAndPK(toEntity)
	if err != nil {
		return err
	}

	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("a", fromMeta.Label).WithProperties(map[string]any{fromMeta.PK.Prop: fromPK})).
		Match(gocypher.N("b", toMeta.Label).WithProperties(map[string]any{toMeta.PK.Prop: toPK})).
		Create(
			gocypher.N("a", ""), // reference the matched aliases without labels
			gocypher.R("r", relType).To().WithProperties(relProps),
			gocypher.N("b", ""),
		).
		Build()
	if err != nil {
		return err
	}
	return m.exec.Execute(ctx, query, params).Err()
}

// Derive runs the equality join described by d, creating one relationship
// per matching pair.
//
// Parameters:
//   - ctx: The context for the query execution.
//   - d: The labels, keys and relationship type to join on.
//
// Returns:
//
//	The number of relationships created, or an error if d contains an
//	invalid identifier or the query fails.
func (m *RelationManager) Derive(ctx context.Context, d Derivation) (int64, error) {
	query, err := d.Query()
	if err != nil {
		return 0, err
	}
	res := m.exec.Execute(ctx, query, nil)
	if err := res.Err(); err != nil {
		return 0, err
	}
	return firstInt(res, "cnt")
}

// metaAndPK returns the cached metadata and primary key value of entity.
func (m *RelationManager) metaAndPK(entity any) (*entityMetadata, any, error) {
	val := reflect.ValueOf(entity)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return nil, nil, fmt.Errorf("entity must be a non-nil pointer")
	}
	typ := val.Elem().Type()

	if cached, ok := m.metaCache.Load(typ); ok {
		meta := cached.(*entityMetadata)
		return meta, meta.pkValue(val), nil
	}

	meta, err := parseTagsFromType(typ)
	if err != nil {
		return nil, nil, err
	}
	m.metaCache.Store(typ, meta)
	return meta, meta.pkValue(val), nil
}

// FindGraph executes a caller-supplied query and folds every node and
// relationship in its rows into a GraphResult, each element appearing
// once. The query must RETURN the nodes and relationships to include,
// e.g. `RETURN u, r, t`.
//
// Parameters:
//   - ctx: The context for the query execution.
//   - query: The Cypher query text.
//   - params: The query parameters, or nil.
//
// Returns:
//
//	A GraphResult, ErrNotFound when the query returns no rows, or the
//	query error.
func (m *RelationManager) FindGraph(ctx context.Context, query string, params map[string]any) (*GraphResult, error) {
	res := m.exec.Execute(ctx, query, params)
	if err := res.Err(); err != nil {
		return nil, err
	}
	if res.Empty() {
		return nil, ErrNotFound
	}

	graph := &GraphResult{
		Nodes: make([]*GraphNode, 0),
		Edges: make([]*Edge, 0),
	}
	seenNodes := make(map[string]bool)
	seenEdges := make(map[string]bool)

	for rec := range res.Rows() {
		for _, key := range rec.Keys() {
			value, _ := rec.Get(key)
			switch v := value.(type) {
			case neo4j.Node:
				if !seenNodes[v.ElementId] {
					graph.Nodes = append(graph.Nodes, &GraphNode{
						ID:         v.ElementId,
						Labels:     v.Labels,
						Properties: v.Props,
					})
					seenNodes[v.ElementId] = true
				}
			case neo4j.Relationship:
				if !seenEdges[v.ElementId] {
					graph.Edges = append(graph.Edges, &Edge{
						ID:         v.ElementId,
						Source:     v.StartElementId,
						Target:     v.EndElementId,
						Type:       v.Type,
						Properties: v.Props,
					})
					seenEdges[v.ElementId] = true
				}
			}
		}
	}
	return graph, nil
}
