// Package dbtest hands out isolated, migrated in-memory databases.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"airg/internal/db"
)

// New returns a fresh sqlite database with every table migrated. A single
// connection serialises transactions the way row locks would in Postgres.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Connect(context.Background(), db.Options{
		Driver:       "sqlite",
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	// the in-memory database lives only as long as its connection
	if sqlDB, err := gdb.DB(); err == nil {
		sqlDB.SetConnMaxIdleTime(0)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close(gdb)
	})
	return gdb
}
