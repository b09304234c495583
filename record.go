package neoseed

import (
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Record is one materialized result row. Columns keep the order the query
// returned them in.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord builds a Record from parallel key and value slices.
func NewRecord(keys []string, values []any) Record {
	m := make(map[string]any, len(keys))
	for i, k := range keys {
		if i < len(values) {
			m[k] = values[i]
		}
	}
	return Record{keys: keys, values: m}
}

func recordFromDriver(r *neo4j.Record) Record {
	return NewRecord(r.Keys, r.Values)
}

// Keys returns the column names in order.
func (r Record) Keys() []string {
	return r.keys
}

// Get returns the raw value of a column.
func (r Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Map returns the record as a column map.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Value returns the column value converted to T.
func Value[T any](r Record, key string) (T, error) {
	var zero T
	raw, ok := r.values[key]
	if !ok {
		return zero, fmt.Errorf("%w: %q", ErrFieldMissing, key)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %T, want %T", ErrFieldType, key, raw, zero)
	}
	return v, nil
}

// String returns a string column.
func (r Record) String(key string) (string, error) {
	return Value[string](r, key)
}

// Int returns an integer column. The driver decodes every integer as int64;
// plain Go ints are accepted for records built by hand.
func (r Record) Int(key string) (int64, error) {
	raw, ok := r.values[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrFieldMissing, key)
	}
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%w: %q is %T, want int64", ErrFieldType, key, raw)
	}
}

// Bool returns a boolean column.
func (r Record) Bool(key string) (bool, error) {
	return Value[bool](r, key)
}

// Date returns a DATE column as a time.Time at midnight UTC.
func (r Record) Date(key string) (time.Time, error) {
	raw, ok := r.values[key]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrFieldMissing, key)
	}
	switch v := raw.(type) {
	case dbtype.Date:
		return v.Time(), nil
	case time.Time:
		return v, nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q is %T, want date", ErrFieldType, key, raw)
	}
}
