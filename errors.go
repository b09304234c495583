package neoseed

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var (
	// ErrNotFound is returned by lookups when no node matches the criteria.
	ErrNotFound = errors.New("record not found")

	// ErrConnectionClosed is returned when a query is issued on a closed connection.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrFieldMissing is returned when a record has no column with the requested name.
	ErrFieldMissing = errors.New("field missing")

	// ErrFieldType is returned when a column holds a value of an unexpected type.
	ErrFieldType = errors.New("field has unexpected type")

	// ErrInvalidConfig is returned when connection settings fail validation.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvalidFixtures is returned when seed data fails validation.
	ErrInvalidFixtures = errors.New("invalid fixtures")
)

// Query error kinds that are not Neo4j status codes.
const (
	KindConnectivity = "connectivity"
	KindUsage        = "usage"
	KindClosed       = "closed"
	KindContext      = "context"
	KindUnknown      = "unknown"
)

// ConnectionError is the fatal startup failure: the database could not be
// reached or refused the credentials.
type ConnectionError struct {
	URI string
	Err error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.URI, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// QueryError records a failed query execution together with the query text.
type QueryError struct {
	Kind  string
	Query string
	Err   error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error (%s): %v\nQuery: %s", e.Kind, e.Err, e.Query)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// newQueryError classifies err and wraps it with the query text.
func newQueryError(query string, err error) *QueryError {
	return &QueryError{Kind: errorKind(err), Query: query, Err: err}
}

func errorKind(err error) string {
	var neoErr *neo4j.Neo4jError
	var connErr *neo4j.ConnectivityError
	var usageErr *neo4j.UsageError

	switch {
	case errors.Is(err, ErrConnectionClosed):
		return KindClosed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindContext
	case errors.As(err, &neoErr):
		return neoErr.Code
	case errors.As(err, &connErr):
		return KindConnectivity
	case errors.As(err, &usageErr):
		return KindUsage
	default:
		return KindUnknown
	}
}
