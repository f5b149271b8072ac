package savedstate

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// Set CHECKOUT_TEST_POSTGRES_DSN to run against a real database.
func postgresDSN(t *testing.T) string {
	dsn := os.Getenv("CHECKOUT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CHECKOUT_TEST_POSTGRES_DSN not set")
	}
	return dsn
}

func TestPostgresStore(t *testing.T) {
	dsn := postgresDSN(t)
	ctx := context.Background()

	store, err := Open(ctx, Config{Driver: DriverPostgres, DSN: dsn, Table: "checkout_session_state_test"})
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestPostgresSaveKeepsTakeover(t *testing.T) {
	dsn := postgresDSN(t)
	ctx := context.Background()

	store, err := NewPostgresStore(ctx, dsn, "checkout_session_state_test")
	require.NoError(t, err)
	defer store.Close()
	defer store.Delete(ctx, "CS_pg")

	require.NoError(t, store.Save(ctx, newState("CS_pg", "s0")))
	require.NoError(t, store.SetFlowTakenOver(ctx, "CS_pg"))
	require.NoError(t, store.Save(ctx, newState("CS_pg", "s1")))

	got, err := store.Load(ctx, "CS_pg")
	require.NoError(t, err)
	require.True(t, got.IsFlowTakenOver)
	require.Equal(t, "s1", got.Session.SessionData)
}
