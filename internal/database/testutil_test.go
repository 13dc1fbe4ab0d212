package database

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// testPool connects to the database named by DATABASE_URL, skipping the test
// when it is unset so the unit suite stays runnable without infrastructure.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("connecting to test database: %v", err)
	}
	t.Cleanup(func() { pool.Close() })
	return pool
}

// nextID hands out IDs unique within a run and unlikely to collide with rows
// left behind by earlier runs against the same database.
var testIDCounter = (time.Now().UnixNano() & 0x7fffffff) << 16

func nextID() int64 {
	return atomic.AddInt64(&testIDCounter, 1)
}
