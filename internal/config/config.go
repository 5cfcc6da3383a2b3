package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Neo4j     Neo4jConfig     `yaml:"neo4j"`
	GraphQL   GraphQLConfig   `yaml:"graphql"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       LogConfig       `yaml:"log"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"4000"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Neo4jConfig holds graph database connection settings.
type Neo4jConfig struct {
	URI                    string        `yaml:"uri"                      env:"NEO4J_URI"                      env-required:"true"`
	User                   string        `yaml:"user"                     env:"NEO4J_USER"                     env-required:"true"`
	Password               string        `yaml:"password"                 env:"NEO4J_PASSWORD"                 env-required:"true"`
	Database               string        `yaml:"database"                 env:"NEO4J_DATABASE"`
	MaxConnPoolSize        int           `yaml:"max_conn_pool_size"       env:"NEO4J_MAX_CONN_POOL_SIZE"       env-default:"100"`
	ConnAcquisitionTimeout time.Duration `yaml:"conn_acquisition_timeout" env:"NEO4J_CONN_ACQUISITION_TIMEOUT" env-default:"60s"`
}

// GraphQLConfig holds GraphQL schema and endpoint settings.
type GraphQLConfig struct {
	SchemaPath        string `yaml:"schema_path"        env:"GRAPHQL_SCHEMA_PATH"        env-default:"./schema.graphql"`
	Path              string `yaml:"path"               env:"GRAPHQL_PATH"               env-default:"/"`
	Debug             bool   `yaml:"debug"              env:"GRAPHQL_DEBUG"              env-default:"true"`
	PlaygroundEnabled bool   `yaml:"playground_enabled" env:"GRAPHQL_PLAYGROUND_ENABLED" env-default:"true"`
	MaxLimit          int    `yaml:"max_limit"          env:"GRAPHQL_MAX_LIMIT"          env-default:"1000"`
}

// AuthConfig holds JWT verification settings. An empty secret disables
// token verification: every request is anonymous.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER"`
}

// Enabled reports whether bearer tokens are verified.
func (c AuthConfig) Enabled() bool {
	return c.JWTSecret != ""
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// RateLimitConfig holds per-IP rate limiting settings. Zero disables it.
type RateLimitConfig struct {
	PerMinute       int           `yaml:"per_minute"       env:"RATE_LIMIT_PER_MINUTE"       env-default:"0"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" env:"RATE_LIMIT_CLEANUP_INTERVAL" env-default:"5m"`
}

// Enabled reports whether requests are rate limited.
func (c RateLimitConfig) Enabled() bool {
	return c.PerMinute > 0
}

// Endpoint returns the GraphQL path normalised to start with a slash.
func (c GraphQLConfig) Endpoint() string {
	if !strings.HasPrefix(c.Path, "/") {
		return "/" + c.Path
	}
	return c.Path
}
