package savedstate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adyen/checkout-sessions-go/internal/sessions"
)

func newState(id, token string) State {
	return State{Session: sessions.SessionModel{ID: id, SessionData: token}}
}

// exerciseStore runs the behavior every driver must share.
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()

	_, err := store.Load(ctx, "CS_missing")
	assert.ErrorIs(t, err, ErrStateNotFound)

	require.NoError(t, store.Save(ctx, newState("CS_1", "s0")))
	got, err := store.Load(ctx, "CS_1")
	require.NoError(t, err)
	assert.Equal(t, sessions.SessionModel{ID: "CS_1", SessionData: "s0"}, got.Session)
	assert.False(t, got.IsFlowTakenOver)
	assert.False(t, got.UpdatedAt.IsZero())

	require.NoError(t, store.UpdateSessionData(ctx, "CS_1", "s1"))
	got, err = store.Load(ctx, "CS_1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.Session.SessionData)

	require.NoError(t, store.SetFlowTakenOver(ctx, "CS_1"))
	got, err = store.Load(ctx, "CS_1")
	require.NoError(t, err)
	assert.True(t, got.IsFlowTakenOver)
	assert.Equal(t, "s1", got.Session.SessionData)

	assert.ErrorIs(t, store.UpdateSessionData(ctx, "CS_missing", "s1"), ErrStateNotFound)
	assert.ErrorIs(t, store.SetFlowTakenOver(ctx, "CS_missing"), ErrStateNotFound)
	assert.ErrorIs(t, store.UpdateSessionData(ctx, "CS_1", ""), ErrInvalidState)
	assert.ErrorIs(t, store.Save(ctx, newState("CS_2", "")), ErrInvalidState)

	require.NoError(t, store.Delete(ctx, "CS_1"))
	_, err = store.Load(ctx, "CS_1")
	assert.ErrorIs(t, err, ErrStateNotFound)
	// deleting twice is fine
	require.NoError(t, store.Delete(ctx, "CS_1"))
}

func TestMemoryStore(t *testing.T) {
	store, err := Open(context.Background(), Config{Driver: DriverMemory})
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestFileStore(t *testing.T) {
	store, err := Open(context.Background(), Config{Driver: DriverFile, Path: t.TempDir()})
	require.NoError(t, err)
	defer store.Close()
	exerciseStore(t, store)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, newState("CS_1", "s0")))
	require.NoError(t, store.SetFlowTakenOver(ctx, "CS_1"))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := reopened.Load(ctx, "CS_1")
	require.NoError(t, err)
	assert.Equal(t, "s0", got.Session.SessionData)
	assert.True(t, got.IsFlowTakenOver)

	// no temp files are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CS_1"+stateFileExt, entries[0].Name())
}

func TestFileStoreRejectsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CS_1"+stateFileExt), []byte("not snappy"), 0o600))

	_, err = store.Load(context.Background(), "CS_1")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestFileStoreRejectsPathLikeIDs(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Load(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.ErrorIs(t, store.Save(ctx, newState("a/b", "s0")), ErrInvalidState)
	assert.ErrorIs(t, store.Delete(ctx, ".."), ErrInvalidState)
}

func TestOpenConfigErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, Config{Driver: "redis"})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	_, err = Open(ctx, Config{Driver: DriverFile})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = Open(ctx, Config{Driver: DriverPostgres})
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = Open(ctx, Config{Driver: DriverPostgres, DSN: "postgres://localhost/x", Table: "bad; DROP"})
	assert.ErrorIs(t, err, ErrInvalidState)

	store, err := Open(ctx, Config{})
	require.NoError(t, err)
	assert.IsType(t, &memoryStore{}, store)
}

func TestInteractorRestoresState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, newState("CS_1", "s3")))
	require.NoError(t, store.SetFlowTakenOver(ctx, "CS_1"))

	interactor, err := Interactor(ctx, store, nil, "CS_1")
	require.NoError(t, err)
	assert.Equal(t, "s3", interactor.Session().SessionData)
	assert.True(t, interactor.IsFlowTakenOver())

	_, err = Interactor(ctx, store, nil, "CS_other")
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestSaveKeepsTakeover(t *testing.T) {
	ctx := context.Background()
	for name, open := range map[string]func() (Store, error){
		"memory": func() (Store, error) { return NewMemoryStore(), nil },
		"file":   func() (Store, error) { return NewFileStore(t.TempDir()) },
	} {
		t.Run(name, func(t *testing.T) {
			store, err := open()
			require.NoError(t, err)
			require.NoError(t, store.Save(ctx, newState("CS_1", "s0")))
			require.NoError(t, store.SetFlowTakenOver(ctx, "CS_1"))
			require.NoError(t, store.Save(ctx, newState("CS_1", "s1")))

			got, err := store.Load(ctx, "CS_1")
			require.NoError(t, err)
			assert.True(t, got.IsFlowTakenOver)
			assert.Equal(t, "s1", got.Session.SessionData)
		})
	}
}
