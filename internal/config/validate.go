package config

import (
	"fmt"
	"slices"
	"strings"
)

var drivers = []string{DriverMemory, DriverPostgres, DriverSQLite, DriverFirestore}

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if !slices.Contains(drivers, c.Store.Driver) {
		return fmt.Errorf("store.driver must be one of %s (got %q)", strings.Join(drivers, ", "), c.Store.Driver)
	}

	switch c.Store.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres store")
		}
		if c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("database.min_conns (%d) must not exceed max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
		}
	case DriverSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required for the sqlite store")
		}
	case DriverFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("firestore.project_id is required for the firestore store")
		}
	}

	if c.Server.WriteRateLimit < 0 {
		return fmt.Errorf("server.write_rate_limit must be >= 0 (got %d)", c.Server.WriteRateLimit)
	}

	if err := c.Sync.validate(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}

func (s *SyncConfig) validate() error {
	if s.IdleTimeout <= 0 {
		return fmt.Errorf("idle_timeout must be > 0 (got %s)", s.IdleTimeout)
	}
	if s.LoaderWait < 0 {
		return fmt.Errorf("loader_wait must be >= 0 (got %s)", s.LoaderWait)
	}
	if s.ResolveTimeout <= 0 {
		return fmt.Errorf("resolve_timeout must be > 0 (got %s)", s.ResolveTimeout)
	}
	return nil
}
