package neoseed

import (
	"fmt"
	"time"
)

// Config holds the settings for one database connection.
type Config struct {
	// URI of the Neo4j server, e.g. "bolt://localhost:7687" or
	// "neo4j+s://host:7687" for routed TLS connections.
	URI string `mapstructure:"uri"`

	// User and Password are used for basic authentication.
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`

	// Database selects the logical database. Empty uses the server default.
	Database string `mapstructure:"database"`

	// MaxPoolSize limits the driver connection pool. Zero keeps the driver default.
	MaxPoolSize int `mapstructure:"max_pool_size"`

	// ConnectTimeout bounds socket connects and connection acquisition.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// DefaultConfig returns a Config for a local single-instance server.
// Password is intentionally left empty and must be supplied.
func DefaultConfig() Config {
	return Config{
		URI:            "bolt://localhost:7687",
		User:           "neo4j",
		Database:       "neo4j",
		MaxPoolSize:    10,
		ConnectTimeout: 10 * time.Second,
	}
}

// Validate checks that the connection settings are usable.
func (c Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("%w: uri cannot be empty", ErrInvalidConfig)
	}
	if c.User == "" {
		return fmt.Errorf("%w: user cannot be empty", ErrInvalidConfig)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: password cannot be empty", ErrInvalidConfig)
	}
	if c.MaxPoolSize < 0 {
		return fmt.Errorf("%w: max_pool_size must not be negative", ErrInvalidConfig)
	}
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("%w: connect_timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
