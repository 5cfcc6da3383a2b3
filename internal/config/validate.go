package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

var neo4jSchemes = []string{"neo4j", "neo4j+s", "neo4j+ssc", "bolt", "bolt+s", "bolt+ssc"}

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Neo4j.validate(); err != nil {
		errs = append(errs, fmt.Errorf("neo4j: %w", err))
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in [0, 65535] (got %d)", c.Server.Port))
	}

	if strings.TrimSpace(c.GraphQL.SchemaPath) == "" {
		errs = append(errs, errors.New("graphql.schema_path must not be empty"))
	}
	if c.GraphQL.MaxLimit < 0 {
		errs = append(errs, fmt.Errorf("graphql.max_limit must be >= 0 (got %d)", c.GraphQL.MaxLimit))
	}

	if c.Auth.Enabled() && len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret)))
	}

	if c.RateLimit.Enabled() && c.RateLimit.CleanupInterval <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.cleanup_interval must be > 0 (got %v)", c.RateLimit.CleanupInterval))
	}

	return errors.Join(errs...)
}

func (n *Neo4jConfig) validate() error {
	u, err := url.Parse(n.URI)
	if err != nil {
		return fmt.Errorf("uri: %w", err)
	}
	if !slices.Contains(neo4jSchemes, u.Scheme) {
		return fmt.Errorf("uri scheme must be one of %s (got %q)", strings.Join(neo4jSchemes, ", "), u.Scheme)
	}
	if n.MaxConnPoolSize <= 0 {
		return fmt.Errorf("max_conn_pool_size must be > 0 (got %d)", n.MaxConnPoolSize)
	}
	return nil
}
