package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/neographql/internal/app"
	"github.com/heartmarshall/neographql/internal/auth"
	"github.com/heartmarshall/neographql/internal/config"
	"github.com/heartmarshall/neographql/internal/schema"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "neographql",
		Short:        "GraphQL API generated from type definitions, backed by Neo4j",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context())
		},
	}

	cmd.AddCommand(serveCmd(), checkCmd(), printSchemaCmd(), tokenCmd(), versionCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Neo4j, compile the schema and serve it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context())
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Connect to Neo4j and compile the schema without serving",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := app.NewLogger(cfg.Log)

			compiled, err := app.New(cfg, logger).Check(cmd.Context(), cfg.GraphQL.SchemaPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d node type(s)\n", len(compiled.Model().Nodes))
			return nil
		},
	}
}

func printSchemaCmd() *cobra.Command {
	var path string

	c := &cobra.Command{
		Use:   "print-schema",
		Short: "Print the augmented schema; no database connection is made",
		RunE: func(cmd *cobra.Command, _ []string) error {
			typeDefs, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read type definitions: %w", err)
			}
			compiled, err := schema.Compile(string(typeDefs), nil, schema.Options{})
			if err != nil {
				slog.Error("failed to get schema", slog.String("error", err.Error()))
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), compiled.SDL())
			return nil
		},
	}

	def := os.Getenv("GRAPHQL_SCHEMA_PATH")
	if def == "" {
		def = "./schema.graphql"
	}
	c.Flags().StringVarP(&path, "schema", "s", def, "type definitions file")
	return c
}

func tokenCmd() *cobra.Command {
	var subject string
	var ttl time.Duration

	c := &cobra.Command{
		Use:   "token",
		Short: "Issue a JWT signed with AUTH_JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cfg.Auth.Enabled() {
				return fmt.Errorf("token: AUTH_JWT_SECRET is not set")
			}

			token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer).GenerateToken(subject, nil, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	c.Flags().StringVar(&subject, "subject", "", "token subject (required)")
	c.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = c.MarkFlagRequired("subject")
	return c
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), app.BuildVersion())
		},
	}
}
