// Package graphstore wraps the neo4j driver behind a small store type so
// every pipeline stage in a run shares one verified connection and scoped
// sessions that are released on all exit paths.
package graphstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Config struct {
	Uri      string `json:"uri"`
	Username string `json:"username"`
	Password string `json:"password"`
	// Database defaults to "neo4j" when empty.
	Database string `json:"database"`
}

type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

// Connect builds a driver and verifies connectivity. An unreachable store
// is a fatal condition for callers; nothing downstream degrades gracefully
// without it.
func Connect(ctx context.Context, config Config) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(
		config.Uri,
		neo4j.BasicAuth(config.Username, config.Password, ""),
	)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	database := config.Database
	if database == "" {
		database = "neo4j"
	}
	return &Store{driver: driver, database: database}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Read runs work inside a managed read transaction on a session scoped to
// this call.
func (s *Store) Read(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)
	return session.ExecuteRead(ctx, work)
}

// Write runs work inside a managed write transaction on a session scoped
// to this call.
func (s *Store) Write(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)
	return session.ExecuteWrite(ctx, work)
}
