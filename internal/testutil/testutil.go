// Package testutil provides shared helpers for tests that need a real
// MySQL database. Tests are skipped, not failed, when no test database
// is reachable so the pure-unit part of the suite still runs anywhere.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"

	"github.com/museumtech/exhibition-manager/internal/database"
)

// DefaultTestDSN is used when TEST_DB_DSN is not set. It matches the
// docker-compose development database.
const DefaultTestDSN = "root@tcp(localhost:3306)/exhibition_test?charset=utf8mb4&parseTime=true&loc=UTC"

// SetupTestDB opens the test database, drops and recreates the schema,
// and registers cleanup. It skips the calling test when the database is
// unreachable.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		dsn = DefaultTestDSN
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("test database not available: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		t.Skipf("test database not reachable: %v", err)
	}

	// Children first so foreign keys do not block the drop.
	for _, tbl := range []string{"stations", "exhibitions", "admin_users"} {
		if _, err := db.Exec("DROP TABLE IF EXISTS " + tbl); err != nil {
			t.Fatalf("drop %s: %v", tbl, err)
		}
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })
	return db
}

// SetupTestRedis opens the test Redis instance on a dedicated database
// and flushes it. It skips the calling test when Redis is unreachable.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 9})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("test redis not reachable at %s: %v", addr, err)
	}
	if err := rdb.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flush test redis: %v", err)
	}

	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}
