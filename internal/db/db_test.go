package db

import (
	"context"
	"testing"

	"github.com/PaulBabatuyi/mindcare-gRPC/internal/db/dbtest"
)

// These tests are integration tests and require a running MongoDB instance.
// Set MONGODB_URI (or MINDCARE_TESTCONTAINERS=true) before running them.

func TestNewAndCreateIndexes(t *testing.T) {
	uri := dbtest.URI(t)

	ctx := context.Background()
	c, err := New(ctx, uri, dbtest.Database(t))
	if err != nil {
		t.Fatalf("failed to connect to DB: %v", err)
	}
	defer func() {
		_ = c.db.Drop(context.Background())
		_ = c.Close(context.Background())
	}()

	// should be able to create indexes without error, and again idempotently
	if err := c.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes failed: %v", err)
	}
	if err := c.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes (second run) failed: %v", err)
	}

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestNewDefaultsDatabaseName(t *testing.T) {
	uri := dbtest.URI(t)

	c, err := New(context.Background(), uri, "")
	if err != nil {
		t.Fatalf("failed to connect to DB: %v", err)
	}
	defer func() { _ = c.Close(context.Background()) }()

	if got := c.db.Name(); got != DefaultDatabase {
		t.Fatalf("expected database %q, got %q", DefaultDatabase, got)
	}
}
