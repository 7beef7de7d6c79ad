package testutil

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// postgresImage is the server version the migrations are written against.
const postgresImage = "postgres:17-alpine"

// StartPostgres starts a throwaway Postgres container and points
// TEST_DATABASE_URL at it, but only when TESTCONTAINERS=1 and
// TEST_DATABASE_URL is not already set. Otherwise it does nothing.
//
// Call it from TestMain before anything reads TEST_DATABASE_URL and run the
// returned teardown after m.Run.
func StartPostgres(ctx context.Context) (teardown func(), err error) {
	noop := func() {}
	if os.Getenv(DSNEnv) != "" || os.Getenv("TESTCONTAINERS") != "1" {
		return noop, nil
	}

	pg, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("permitsite_test"),
		postgres.WithUsername("permitsite"),
		postgres.WithPassword("permitsite"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("testutil.StartPostgres: run container: %w", err)
	}

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pg.Terminate(context.Background())
		return noop, fmt.Errorf("testutil.StartPostgres: connection string: %w", err)
	}
	if err := os.Setenv(DSNEnv, dsn); err != nil {
		_ = pg.Terminate(context.Background())
		return noop, fmt.Errorf("testutil.StartPostgres: %w", err)
	}

	return func() {
		os.Unsetenv(DSNEnv)
		_ = pg.Terminate(context.Background())
	}, nil
}
