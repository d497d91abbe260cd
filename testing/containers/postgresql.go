//go:build integration

// Package containers starts disposable database servers for integration tests.
package containers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gaborage/go-dbaction/config"
)

// PostgreSQLOptions configures the PostgreSQL test container.
type PostgreSQLOptions struct {
	// ImageTag is the postgres image tag (default "17-alpine").
	ImageTag string
	Username string
	Password string
	Database string
	// StartupTimeout bounds the wait for the server to accept connections (default 60s).
	StartupTimeout time.Duration
}

// DefaultPostgreSQLOptions returns the options used when none are given.
func DefaultPostgreSQLOptions() PostgreSQLOptions {
	return PostgreSQLOptions{
		ImageTag:       "17-alpine",
		Username:       "testuser",
		Password:       "testpass",
		Database:       "testdb",
		StartupTimeout: 60 * time.Second,
	}
}

// PostgreSQL is a running PostgreSQL container.
type PostgreSQL struct {
	container *postgres.PostgresContainer
	connStr   string
}

// StartPostgreSQL starts a container and terminates it when the test ends. The test is
// skipped when no Docker daemon is reachable.
func StartPostgreSQL(ctx context.Context, t *testing.T, opts *PostgreSQLOptions) *PostgreSQL {
	t.Helper()

	o := DefaultPostgreSQLOptions()
	if opts != nil {
		o = *opts
	}
	if !dockerAvailable(ctx) {
		t.Skip("Docker is not available - skipping integration test")
	}

	c, err := postgres.Run(ctx,
		"postgres:"+o.ImageTag,
		postgres.WithDatabase(o.Database),
		postgres.WithUsername(o.Username),
		postgres.WithPassword(o.Password),
		testcontainers.WithWaitStrategy(
			// The server restarts once after running the init scripts.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(o.StartupTimeout),
		),
	)
	if err != nil {
		t.Fatalf("start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("terminate PostgreSQL container: %v", err)
		}
	})

	connStr, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("PostgreSQL connection string: %v", err)
	}
	t.Logf("PostgreSQL container ready at %s", redact(connStr))

	return &PostgreSQL{container: c, connStr: connStr}
}

// ConnectionString returns the URL of the database.
func (p *PostgreSQL) ConnectionString() string {
	return p.connStr
}

// DatabaseConfig returns a configuration pointing at the container.
func (p *PostgreSQL) DatabaseConfig() *config.DatabaseConfig {
	cfg := &config.DatabaseConfig{
		Type:             "postgresql",
		ConnectionString: p.connStr,
	}
	cfg.Pool.Max.Connections = 4
	cfg.Pool.Idle.Connections = 1
	return cfg
}

// MappedPort returns the host port forwarded to the server.
func (p *PostgreSQL) MappedPort(ctx context.Context) (int, error) {
	if p.container == nil {
		return 0, errors.New("container not initialized")
	}
	port, err := p.container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return 0, fmt.Errorf("mapped port: %w", err)
	}
	return port.Int(), nil
}

func dockerAvailable(ctx context.Context) bool {
	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		return false
	}
	defer provider.Close()

	_, err = provider.DaemonHost(ctx)
	return err == nil
}

// redact hides the password of a connection URL for logging.
func redact(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil || u.User == nil {
		return "postgres://****@<host>"
	}
	return u.Redacted()
}
