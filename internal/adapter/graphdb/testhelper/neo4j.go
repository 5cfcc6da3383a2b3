// Package testhelper starts a throwaway Neo4j container for integration tests.
package testhelper

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/heartmarshall/neographql/internal/adapter/graphdb"
	"github.com/heartmarshall/neographql/internal/config"
)

const (
	testUser     = "neo4j"
	testPassword = "testpassword"
)

var (
	once      sync.Once
	sharedURI string
	initErr   error
)

// Neo4jConfig starts a shared Neo4j container (once for the entire test run)
// and returns a config pointing at it. The container lives until the process exits.
func Neo4jConfig(t *testing.T) config.Neo4jConfig {
	t.Helper()

	once.Do(func() {
		sharedURI, initErr = startContainer()
	})
	if initErr != nil {
		t.Fatalf("testhelper: failed to setup neo4j: %v", initErr)
	}

	return config.Neo4jConfig{
		URI:                    sharedURI,
		User:                   testUser,
		Password:               testPassword,
		MaxConnPoolSize:        10,
		ConnAcquisitionTimeout: 10 * time.Second,
	}
}

// SetupClient connects to the shared container and wipes every node so each
// test starts from an empty graph. The client is closed via t.Cleanup.
func SetupClient(t *testing.T) *graphdb.Client {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := graphdb.Connect(ctx, Neo4jConfig(t), "neographql-test")
	if err != nil {
		t.Fatalf("testhelper: connect: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close(context.Background())
	})

	if _, err := client.Write(ctx, graphdb.Statement{Cypher: "MATCH (n) DETACH DELETE n"}); err != nil {
		t.Fatalf("testhelper: wipe graph: %v", err)
	}

	return client
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "neo4j:5",
		ExposedPorts: []string{"7687/tcp"},
		Env: map[string]string{
			"NEO4J_AUTH": testUser + "/" + testPassword,
		},
		WaitingFor: wait.ForLog("Started.").
			WithStartupTimeout(120 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "7687")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	return fmt.Sprintf("neo4j://%s:%s", host, port.Port()), nil
}
