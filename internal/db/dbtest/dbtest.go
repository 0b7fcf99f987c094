// Package dbtest locates a MongoDB instance for integration tests.
package dbtest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	once     sync.Once
	shared   string
	startErr error
)

// URI returns a MongoDB connection string for integration tests.
//
// MONGODB_URI wins when set. Otherwise, with MINDCARE_TESTCONTAINERS=true, a
// mongo:7 container is started once per test binary and reused; the
// testcontainers reaper removes it when the process exits. Without either the
// calling test is skipped.
func URI(t *testing.T) string {
	t.Helper()

	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		return uri
	}
	if os.Getenv("MINDCARE_TESTCONTAINERS") != "true" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}

	once.Do(func() {
		shared, startErr = startMongo(context.Background())
	})
	if startErr != nil {
		t.Fatalf("start mongo container: %v", startErr)
	}
	return shared
}

// Database returns a per-test database name so parallel packages don't collide.
func Database(t *testing.T) string {
	t.Helper()
	return fmt.Sprintf("mindcare_test_%d", time.Now().UnixNano())
}

func startMongo(ctx context.Context) (string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	// testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port()), nil
}
