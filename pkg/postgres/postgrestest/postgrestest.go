// Package postgrestest opens a database for store tests. Tests are skipped
// unless RF_POSTGRES_ENABLED=true and the database answers.
package postgrestest

import (
	"os"
	"testing"

	"github.com/lou463/Underscore-Resume-BETA01/pkg/config"
	"github.com/lou463/Underscore-Resume-BETA01/pkg/postgres"
)

func Client(t *testing.T) *postgres.Client {
	t.Helper()
	if os.Getenv("RF_POSTGRES_ENABLED") != "true" {
		t.Skip("set RF_POSTGRES_ENABLED=true to run postgres tests")
	}
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	client, err := postgres.New(cfg.Postgres)
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}
