package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/neographql/internal/adapter/graphdb"
	"github.com/heartmarshall/neographql/internal/auth"
	"github.com/heartmarshall/neographql/internal/config"
	"github.com/heartmarshall/neographql/internal/metrics"
	"github.com/heartmarshall/neographql/internal/schema"
	gqltransport "github.com/heartmarshall/neographql/internal/transport/graphql"
	"github.com/heartmarshall/neographql/internal/transport/graphql/dataloader"
	"github.com/heartmarshall/neographql/internal/transport/middleware"
	"github.com/heartmarshall/neographql/internal/transport/rest"
)

// Startup failures. Each one ends the sequence; later steps never run.
var (
	ErrConnect = errors.New("connection error")
	ErrSchema  = errors.New("failed to get schema")
	ErrServe   = errors.New("failed to start the server")
)

// database is what the app needs from the graph database client.
type database interface {
	schema.Runner
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	ServerInfo() graphdb.ServerInfo
}

// App runs the connect, compile and serve steps in order.
type App struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *metrics.Metrics

	connect func(ctx context.Context, cfg config.Neo4jConfig) (database, error)
	compile func(typeDefs string, runner schema.Runner, opts schema.Options) (*schema.Compiled, error)
	listen  func(network, addr string) (net.Listener, error)
}

// New creates an App backed by Neo4j and a TCP listener.
func New(cfg *config.Config, log *slog.Logger) *App {
	a := &App{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
		compile: schema.Compile,
		listen:  net.Listen,
	}
	a.connect = func(ctx context.Context, nc config.Neo4jConfig) (database, error) {
		client, err := graphdb.Connect(ctx, nc, UserAgent(),
			graphdb.WithLogger(log, cfg.GraphQL.Debug),
			graphdb.WithObserver(a.metrics),
		)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	a.metrics.SetBuildInfo(Version)
	return a
}

// Run loads configuration and the type-definition file, then serves until
// ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	return New(cfg, logger).Run(ctx, cfg.GraphQL.SchemaPath)
}

// Run executes the startup sequence for the type definitions at
// schemaPath and blocks serving requests until ctx is cancelled.
func (a *App) Run(ctx context.Context, schemaPath string) error {
	db, compiled, err := a.prepare(ctx, schemaPath)
	if err != nil {
		return err
	}
	defer a.close(db)

	return a.serve(ctx, db, compiled)
}

// Check runs the connect and compile steps only.
func (a *App) Check(ctx context.Context, schemaPath string) (*schema.Compiled, error) {
	db, compiled, err := a.prepare(ctx, schemaPath)
	if err != nil {
		return nil, err
	}
	a.close(db)
	return compiled, nil
}

func (a *App) prepare(ctx context.Context, schemaPath string) (database, *schema.Compiled, error) {
	db, err := a.connect(ctx, a.cfg.Neo4j)
	if err != nil {
		return nil, nil, a.fail(ErrConnect, err)
	}
	info := db.ServerInfo()
	a.log.Info("connected to neo4j",
		slog.String("address", info.Address),
		slog.String("agent", info.Agent),
	)

	typeDefs, err := os.ReadFile(schemaPath)
	if err != nil {
		a.close(db)
		return nil, nil, a.fail(ErrSchema, fmt.Errorf("read type definitions: %w", err))
	}

	compiled, err := a.compile(string(typeDefs), db, schema.Options{
		Debug:    a.cfg.GraphQL.Debug,
		Logger:   a.log,
		MaxLimit: a.cfg.GraphQL.MaxLimit,
		Observer: a.metrics,
	})
	if err != nil {
		a.close(db)
		return nil, nil, a.fail(ErrSchema, err)
	}
	return db, compiled, nil
}

func (a *App) serve(ctx context.Context, db database, compiled *schema.Compiled) error {
	ln, err := a.listen("tcp", a.cfg.Server.Addr())
	if err != nil {
		return a.fail(ErrServe, err)
	}

	var limiter *middleware.RateLimiter
	if a.cfg.RateLimit.Enabled() {
		limiter = middleware.NewRateLimiter(a.cfg.RateLimit)
		defer limiter.Stop()
	}

	srv := &http.Server{
		Handler:      a.routes(compiled, db, limiter),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	a.log.Info("server ready", slog.String("url", a.readyURL(ln.Addr())))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		a.log.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return a.fail(ErrServe, err)
	}
	a.log.Info("server stopped")
	return nil
}

// routes builds the HTTP handler: probes and metrics beside the GraphQL
// endpoint, which gets the full middleware chain.
func (a *App) routes(compiled *schema.Compiled, db database, limiter *middleware.RateLimiter) http.Handler {
	endpoint := a.cfg.GraphQL.Endpoint()

	var authMW, limitMW middleware.Middleware
	if a.cfg.Auth.Enabled() {
		authMW = middleware.Auth(auth.NewJWTManager(a.cfg.Auth.JWTSecret, a.cfg.Auth.JWTIssuer))
	}
	if limiter != nil {
		limitMW = limiter.Middleware
	}

	graphqlHandler := middleware.Chain(
		middleware.CORS(a.cfg.CORS),
		limitMW,
		authMW,
		middleware.WithRequest(),
		dataloader.Middleware(),
	)(gqltransport.NewHandler(compiled.Executable(), a.log))

	mux := http.NewServeMux()
	mux.Handle(endpoint, graphqlHandler)
	if a.cfg.GraphQL.PlaygroundEnabled {
		mux.Handle("GET /playground", playground.Handler("neographql", endpoint))
	}
	rest.NewHealthHandler(db, BuildVersion(), db.ServerInfo().Agent).Register(mux)
	mux.Handle("GET /metrics", a.metrics.Handler())

	probes := []string{"/health", "/live", "/ready", "/metrics"}
	return middleware.Chain(
		middleware.Recovery(a.log),
		middleware.RequestID(),
		middleware.Logger(a.log, probes...),
		middleware.Metrics(a.metrics, append([]string{endpoint, "/playground"}, probes...)...),
	)(mux)
}

// readyURL renders the address clients should use. A wildcard host is
// shown as localhost.
func (a *App) readyURL(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String() + a.cfg.GraphQL.Endpoint()
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + a.cfg.GraphQL.Endpoint()
}

// fail logs a startup failure with its cause and returns it wrapped in
// kind.
func (a *App) fail(kind, err error) error {
	cause := errors.Unwrap(err)
	if cause == nil {
		cause = err
	}
	a.log.Error(kind.Error(),
		slog.String("error", err.Error()),
		slog.String("cause", cause.Error()),
	)
	return fmt.Errorf("%w: %w", kind, err)
}

func (a *App) close(db database) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Close(ctx); err != nil {
		a.log.Warn("close neo4j driver", slog.String("error", err.Error()))
	}
}
