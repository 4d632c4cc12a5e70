// Package neo4j implements the repository interfaces on a Neo4j graph.
//
// Users and movies are nodes; a favorite is a (:User)-[:HAS_FAVORITE]->(:Movie)
// relationship. Every repository call opens exactly one session, runs one
// managed transaction in it and closes the session on every exit path.
package neo4j

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/sakif/movieflix/internal/metrics"
	"github.com/sakif/movieflix/internal/repository"
)

const backendName = "neo4j"

// constraintViolation is the status code Neo4j reports when a write breaks
// a uniqueness constraint.
const constraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

var _ repository.Store = (*Store)(nil)

// constraints are applied by EnsureConstraints. IF NOT EXISTS keeps them
// idempotent across restarts.
var constraints = []string{
	"CREATE CONSTRAINT user_email IF NOT EXISTS FOR (u:User) REQUIRE u.email IS UNIQUE",
	"CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.userId IS UNIQUE",
}

// Config holds connection settings for the graph store.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Store is the graph-backed repository.Store.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

// New creates a driver for cfg and verifies that the server is reachable.
func New(ctx context.Context, cfg Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j: creating driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: verifying connectivity to %s: %w", cfg.URI, err)
	}

	return NewWithDriver(driver, cfg.Database), nil
}

// NewWithDriver wraps an existing driver. The Store takes ownership: Close
// closes the driver.
func NewWithDriver(driver neo4j.DriverWithContext, database string) *Store {
	return &Store{driver: driver, database: database}
}

// EnsureConstraints creates the uniqueness constraints the repository relies
// on. Duplicate-email detection in CreateUser depends on user_email.
func (s *Store) EnsureConstraints(ctx context.Context) error {
	for _, stmt := range constraints {
		_, err := s.executeWrite(ctx, "ensure_constraints", func(tx neo4j.ManagedTransaction) (any, error) {
			result, err := tx.Run(ctx, stmt, nil)
			if err != nil {
				return nil, err
			}
			return result.Consume(ctx)
		})
		if err != nil {
			return fmt.Errorf("neo4j: applying constraint: %w", err)
		}
	}
	return nil
}

// Ping verifies the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

// Close releases the driver and all pooled connections.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) executeRead(ctx context.Context, operation string, work neo4j.ManagedTransactionWork) (any, error) {
	defer metrics.ObserveQuery(backendName, operation, time.Now())

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	return session.ExecuteRead(ctx, work)
}

func (s *Store) executeWrite(ctx context.Context, operation string, work neo4j.ManagedTransactionWork) (any, error) {
	defer metrics.ObserveQuery(backendName, operation, time.Now())

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: s.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	return session.ExecuteWrite(ctx, work)
}

func isConstraintViolation(err error) bool {
	var neoErr *neo4j.Neo4jError
	return errors.As(err, &neoErr) && neoErr.Code == constraintViolation
}
