// Package neoseed provides a thin wrapper around the official Neo4j Go driver
// and a loader that wipes, seeds, links and queries a small role/user/test
// graph through it.
package neoseed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/saulfrancisco-ruizacevedo/go-neoseed"

// Executor runs a Cypher query and returns its fully buffered rows.
// Failures are carried inside the Result rather than returned, so a caller
// can keep going after a bad query.
type Executor interface {
	Execute(ctx context.Context, query string, params map[string]any) Result
}

// Connection owns one Neo4j driver for the lifetime of the process and hands
// out a fresh session for every Execute call.
type Connection struct {
	mu       sync.Mutex
	driver   neo4j.DriverWithContext
	uri      string
	database string
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Connection.
type Option func(*Connection)

// WithLogger sets the logger used for status lines and query failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTracerProvider sets the provider used to trace queries. The global
// provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Connection) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

func newConnection(cfg Config, opts ...Option) *Connection {
	c := &Connection{
		uri:      cfg.URI,
		database: cfg.Database,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open creates the driver and verifies that the server is reachable with the
// given credentials. Any failure is returned as a *ConnectionError; there is
// no retry.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Connection, error) {
	c := newConnection(cfg, opts...)

	if err := cfg.Validate(); err != nil {
		return nil, &ConnectionError{URI: cfg.URI, Err: err}
	}

	c.logger.Info("connecting to neo4j", "uri", cfg.URI, "database", cfg.Database)

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""),
		func(nc *neo4j.Config) {
			if cfg.MaxPoolSize > 0 {
				nc.MaxConnectionPoolSize = cfg.MaxPoolSize
			}
			nc.SocketConnectTimeout = cfg.ConnectTimeout
			nc.ConnectionAcquisitionTimeout = cfg.ConnectTimeout
		})
	if err != nil {
		c.logger.Error("neo4j connection failed", "uri", cfg.URI, "error", err)
		return nil, &ConnectionError{URI: cfg.URI, Err: fmt.Errorf("could not create driver: %w", err)}
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		c.logger.Error("neo4j connection failed", "uri", cfg.URI, "error", err)
		return nil, &ConnectionError{URI: cfg.URI, Err: err}
	}

	c.driver = driver
	c.logger.Info("connected to neo4j", "uri", cfg.URI)
	return c, nil
}

// Verify re-checks connectivity on an open connection.
func (c *Connection) Verify(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.driver == nil {
		return ErrConnectionClosed
	}
	return c.driver.VerifyConnectivity(ctx)
}

// Execute runs query in its own session and buffers every row before the
// session is released. A failure is logged together with the query text and
// returned inside an empty Result; Execute never panics or aborts.
func (c *Connection) Execute(ctx context.Context, query string, params map[string]any) Result {
	ctx, span := c.tracer.Start(ctx, "neoseed.Execute",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "neo4j"),
			attribute.String("db.name", c.database),
			attribute.String("db.statement", query),
		))
	defer span.End()

	res, err := c.run(ctx, query, params)
	if err != nil {
		qe := newQueryError(query, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, qe.Kind)
		c.logger.Error("query failed", "kind", qe.Kind, "error", err, "query", query)
		return Result{err: qe}
	}

	span.SetAttributes(attribute.Int("db.rows", res.Len()))
	c.logger.Debug("query completed", "rows", res.Len(), "elapsed", res.Elapsed())
	return res
}

// run holds the lock for the whole call, so at most one session is open.
func (c *Connection) run(ctx context.Context, query string, params map[string]any) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.driver == nil {
		return Result{}, ErrConnectionClosed
	}

	c.logger.Debug("executing query", "query", query)
	start := time.Now()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() {
		if err := session.Close(ctx); err != nil {
			c.logger.Warn("failed to close session", "error", err)
		}
	}()

	// Auto-commit run: the driver does not retry these, so every query is
	// attempted exactly once.
	out, err := session.Run(ctx, query, params)
	if err != nil {
		return Result{}, err
	}
	records, err := out.Collect(ctx)
	if err != nil {
		return Result{}, err
	}
	summary, err := out.Consume(ctx)
	if err != nil {
		return Result{}, err
	}

	rows := make([]Record, 0, len(records))
	for _, r := range records {
		rows = append(rows, recordFromDriver(r))
	}
	res := NewResult(rows, countersFromSummary(summary))
	res.elapsed = time.Since(start)
	return res, nil
}

// Close releases the driver and its pooled connections. Calling it again is
// a no-op.
func (c *Connection) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.driver == nil {
		return nil
	}
	err := c.driver.Close(ctx)
	c.driver = nil
	if err != nil {
		return fmt.Errorf("close driver: %w", err)
	}
	c.logger.Info("connection closed", "uri", c.uri)
	return nil
}
