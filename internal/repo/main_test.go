package repo_test

import (
	"context"
	"log"
	"os"
	"testing"

	"github.com/pkordes/tripproposal/testutil"
)

// TestMain migrates the test database once for the whole package. Without
// TEST_DATABASE_URL the Postgres tests skip themselves and the in-memory
// tests run as usual.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		os.Exit(m.Run())
	}

	db := testutil.MustOpenSQLDB(dsn)
	if err := testutil.Migrate(context.Background(), db); err != nil {
		db.Close()
		log.Fatalf("TestMain: run migrations: %v", err)
	}
	db.Close()

	os.Exit(m.Run())
}
