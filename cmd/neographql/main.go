// Command neographql serves a GraphQL API generated from type definitions
// and backed by Neo4j.
//
// Commands:
//
//	serve         connect, compile the schema and serve it (default)
//	check         connect and compile, then exit
//	print-schema  print the augmented schema without a database
//	token         issue a signed JWT for @authentication types
//	version       print build information
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
