// Package graphdb owns the Neo4j driver handle. It opens the connection,
// checks liveness and runs parameterised Cypher on behalf of the generated
// resolvers.
package graphdb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jconfig "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	"github.com/heartmarshall/neographql/internal/config"
)

const (
	modeRead  = "read"
	modeWrite = "write"
)

// queryObserver receives the outcome of every Cypher execution.
type queryObserver interface {
	ObserveQuery(mode string, duration time.Duration, err error)
}

// ServerInfo describes the Neo4j server reached during Connect.
type ServerInfo struct {
	Address string
	Agent   string
}

// Client runs Cypher statements against a Neo4j database.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	info     ServerInfo
	log      *slog.Logger
	debug    bool
	observer queryObserver
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. With debug enabled every statement and its
// parameters are logged at debug level.
func WithLogger(log *slog.Logger, debug bool) Option {
	return func(c *Client) {
		c.log = log
		c.debug = debug
	}
}

// WithObserver reports query durations and failures to o.
func WithObserver(o queryObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// Connect creates a driver from Neo4jConfig and fetches the server info
// for fail-fast validation. The driver is closed again if the server is
// unreachable.
func Connect(ctx context.Context, cfg config.Neo4jConfig, userAgent string, opts ...Option) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.User, cfg.Password, ""),
		func(c *neo4jconfig.Config) {
			c.MaxConnectionPoolSize = cfg.MaxConnPoolSize
			c.ConnectionAcquisitionTimeout = cfg.ConnAcquisitionTimeout
			if userAgent != "" {
				c.UserAgent = userAgent
			}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create driver: %w", err)
	}

	info, err := driver.GetServerInfo(ctx)
	if err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("get server info: %w", err)
	}

	c := &Client{
		driver:   driver,
		database: cfg.Database,
		info:     ServerInfo{Address: info.Address(), Agent: info.Agent()},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// ServerInfo returns the server details captured by Connect.
func (c *Client) ServerInfo() ServerInfo {
	return c.info
}

// Ping verifies that the driver can still reach the server.
func (c *Client) Ping(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Close releases every pooled connection.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// Read executes a single statement with reader routing and returns its
// records.
func (c *Client) Read(ctx context.Context, stmt Statement) ([]Record, error) {
	start := time.Now()
	c.trace(ctx, modeRead, stmt)

	opts := []neo4j.ExecuteQueryConfigurationOption{neo4j.ExecuteQueryWithReadersRouting()}
	if c.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(c.database))
	}

	res, err := neo4j.ExecuteQuery(ctx, c.driver, stmt.Cypher, stmt.Params, neo4j.EagerResultTransformer, opts...)
	c.observe(modeRead, start, err)
	if err != nil {
		return nil, mapError(err, modeRead)
	}

	records := make([]Record, 0, len(res.Records))
	for _, r := range res.Records {
		records = append(records, r.AsMap())
	}
	return records, nil
}

// Write executes statements in order inside one managed write transaction.
// The transaction is retried by the driver on transient failures.
func (c *Client) Write(ctx context.Context, stmts ...Statement) (*WriteResult, error) {
	start := time.Now()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.database,
	})
	defer session.Close(ctx) //nolint:errcheck

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result := &WriteResult{Records: []Record{}}
		for _, stmt := range stmts {
			c.trace(ctx, modeWrite, stmt)

			cursor, err := tx.Run(ctx, stmt.Cypher, stmt.Params)
			if err != nil {
				return nil, err
			}
			records, err := cursor.Collect(ctx)
			if err != nil {
				return nil, err
			}
			summary, err := cursor.Consume(ctx)
			if err != nil {
				return nil, err
			}

			for _, r := range records {
				result.Records = append(result.Records, r.AsMap())
			}
			result.Counters.Add(countersFrom(summary.Counters()))
		}
		return result, nil
	})
	c.observe(modeWrite, start, err)
	if err != nil {
		return nil, mapError(err, modeWrite)
	}

	return out.(*WriteResult), nil
}

func countersFrom(sc neo4j.Counters) Counters {
	return Counters{
		NodesCreated:         sc.NodesCreated(),
		NodesDeleted:         sc.NodesDeleted(),
		RelationshipsCreated: sc.RelationshipsCreated(),
		RelationshipsDeleted: sc.RelationshipsDeleted(),
		PropertiesSet:        sc.PropertiesSet(),
	}
}

func (c *Client) trace(ctx context.Context, mode string, stmt Statement) {
	if !c.debug {
		return
	}
	c.log.DebugContext(ctx, "cypher",
		slog.String("mode", mode),
		slog.String("statement", stmt.Cypher),
		slog.Any("params", stmt.Params),
	)
}

func (c *Client) observe(mode string, start time.Time, err error) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveQuery(mode, time.Since(start), err)
}
