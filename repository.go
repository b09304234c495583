package neoseed

import (
	"context"
	"fmt"
	"reflect"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/saulfrancisco-ruizacevedo/gocypher"
)

// Repository provides CRUD operations for one entity type T, mapped to nodes
// through its `graph` struct tags.
type Repository[T any] struct {
	exec Executor
	meta *entityMetadata
}

// NewRepository creates a new generic repository for the type T.
// It parses the `graph` struct tags of T to understand its mapping to a node.
//
// Parameters:
//   - exec: The Executor used to run every Cypher query.
//
// Returns:
//
//	A new Repository instance or an error if the struct tags are invalid.
func NewRepository[T any](exec Executor) (*Repository[T], error) {
	meta, err := parseTags[T]()
	if err != nil {
		return nil, err
	}
	return &Repository[T]{exec: exec, meta: meta}, nil
}

// Label returns the node label used for T.
func (r *Repository[T]) Label() string {
	return r.meta.Label
}

// Save creates a new node or updates an existing one.
// It uses a MERGE query on the struct's primary key (`pk` option); every
// other tagged field is SET on the node.
//
// Parameters:
//   - ctx: The context for the query execution.
//   - entity: A pointer to the struct instance to be saved.
//
// Returns:
//
//	An error if the query building or execution fails.
func (r *Repository[T]) Save(ctx context.Context, entity *T) error {
	val := reflect.ValueOf(entity).Elem()
	mergeProps := map[string]any{r.meta.PK.Prop: r.meta.pkValue(val)}

	setProps := make(map[string]any)
	for prop, v := range r.meta.properties(val) {
		if prop != r.meta.PK.Prop {
			setProps["n."+prop] = v
		}
	}

	query, params, err := gocypher.NewQueryBuilder().
		Merge(gocypher.N("n", r.meta.Label).WithProperties(mergeProps)).
		Set(setProps).
		Return("n").
		Build()
	if err != nil {
		return err
	}
	return r.exec.Execute(ctx, query, params).Err()
}

// Create inserts a new node unconditionally. Unlike Save it never matches an
// existing node, so calling it twice yields two nodes.
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	props := r.meta.properties(reflect.ValueOf(entity))
	query, params, err := gocypher.NewQueryBuilder().
		Create(gocypher.N("n", r.meta.Label).WithProperties(props)).
		Return("n").
		Build()
	if err != nil {
		return err
	}
	return r.exec.Execute(ctx, query, params).Err()
}

// CreateAll inserts every entity with a single UNWIND statement, so a
// whole label is seeded in one round trip.
//
// Parameters:
//   - ctx: The context for the query execution.
//   - entities: The values to insert. An empty slice issues no query.
//
// Returns:
//
//	The number of nodes created, or an error if the query failed.
func (r *Repository[T]) CreateAll(ctx context.Context, entities []T) (int64, error) {
	if len(entities) == 0 {
		return 0, nil
	}
	rows := make([]map[string]any, 0, len(entities))
	for i := range entities {
		rows = append(rows, r.meta.properties(reflect.ValueOf(&entities[i])))
	}

	query := fmt.Sprintf("UNWIND $rows AS row CREATE (n:%s) SET n = row RETURN count(n) AS created", r.meta.Label)
	res := r.exec.Execute(ctx, query, map[string]any{"rows": rows})
	if err := res.Err(); err != nil {
		return 0, err
	}
	return firstInt(res, "created")
}

// FindByID retrieves a single entity by its primary key.
//
// Parameters:
//   - ctx: The context for the query execution.
//   - id: The primary key value of the entity to find.
//
// Returns:
//
//	A pointer to the populated entity, ErrNotFound if no node matches, or
//	another error if the query fails or more than one node matches.
func (r *Repository[T]) FindByID(ctx context.Context, id any) (*T, error) {
	props := map[string]any{r.meta.PK.Prop: id}
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("n", r.meta.Label).WithProperties(props)).
		Return("n").
		Build()
	if err != nil {
		return nil, err
	}

	found, err := r.find(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	if len(found) > 1 {
		return nil, fmt.Errorf("expected 1 record but found %d", len(found))
	}
	return found[0], nil
}

// FindAll returns every node with T's label.
func (r *Repository[T]) FindAll(ctx context.Context) ([]*T, error) {
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("n", r.meta.Label)).
		Return("n").
		Build()
	if err != nil {
		return nil, err
	}
	return r.find(ctx, query, params)
}

// FindByProperty returns every entity whose property prop equals value.
//
// Parameters:
//   - ctx: The context for the query execution.
//   - prop: A property name declared in T's `graph` tags.
//   - value: The value to match.
//
// Returns:
//
//	The matching entities (possibly none), or an error if prop is not
//	mapped or the query fails.
func (r *Repository[T]) FindByProperty(ctx context.Context, prop string, value any) ([]*T, error) {
	if !r.meta.hasProp(prop) {
		return nil, fmt.Errorf("%s has no property %q", r.meta.Label, prop)
	}
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("n", r.meta.Label).WithProperties(map[string]any{prop: value})).
		Return("n").
		Build()
	if err != nil {
		return nil, err
	}
	return r.find(ctx, query, params)
}

// Count returns the number of nodes with T's label.
func (r *Repository[T]) Count(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS total", r.meta.Label)
	res := r.exec.Execute(ctx, query, nil)
	if err := res.Err(); err != nil {
		return 0, err
	}
	return firstInt(res, "total")
}

// CountByProperty returns the number of nodes whose property prop equals value.
func (r *Repository[T]) CountByProperty(ctx context.Context, prop string, value any) (int64, error) {
	if !r.meta.hasProp(prop) {
		return 0, fmt.Errorf("%s has no property %q", r.meta.Label, prop)
	}
	query := fmt.Sprintf("MATCH (n:%s {%s: $value}) RETURN count(n) AS total", r.meta.Label, prop)
	res := r.exec.Execute(ctx, query, map[string]any{"value": value})
	if err := res.Err(); err != nil {
		return 0, err
	}
	return firstInt(res, "total")
}

// Delete removes a node by its primary key.
// It uses DETACH DELETE, so every relationship of the node goes with it.
//
// Parameters:
//   - ctx: The context for the query execution.
//   - id: The primary key value of the entity to delete.
//
// Returns:
//
//	An error if the query building or execution fails. Deleting a missing
//	node is not an error.
func (r *Repository[T]) Delete(ctx context.Context, id any) error {
	props := map[string]any{r.meta.PK.Prop: id}
	query, params, err := gocypher.NewQueryBuilder().
		Match(gocypher.N("n", r.meta.Label).WithProperties(props)).
		DetachDelete("n").
		Build()
	if err != nil {
		return err
	}
	return r.exec.Execute(ctx, query, params).Err()
}

// find runs a query that returns nodes in column "n" and maps each to T.
func (r *Repository[T]) find(ctx context.Context, query string, params map[string]any) ([]*T, error) {
	res := r.exec.Execute(ctx, query, params)
	if err := res.Err(); err != nil {
		return nil, err
	}

	out := make([]*T, 0, res.Len())
	for rec := range res.Rows() {
		node, err := Value[neo4j.Node](rec, "n")
		if err != nil {
			return nil, err
		}
		entity := new(T)
		if err := r.meta.populate(node.Props, reflect.ValueOf(entity)); err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

// firstInt reads an integer column from the first row of res.
func firstInt(res Result, key string) (int64, error) {
	rec, ok := res.First()
	if !ok {
		return 0, fmt.Errorf("%w: %q (no rows)", ErrFieldMissing, key)
	}
	return rec.Int(key)
}
