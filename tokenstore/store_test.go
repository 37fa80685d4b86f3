package tokenstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/osuapi/auth"
)

func sampleCredential(token string) auth.Credential {
	return auth.Credential{
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		ExpiresAt:    time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
		Scopes:       []auth.Scope{auth.ScopePublic, auth.ScopeIdentify},
		Grant:        auth.GrantAuthorizationCode,
	}
}

// exerciseStore checks the Load/Save/Clear contract every backend shares.
func exerciseStore(t *testing.T, store auth.Store) {
	t.Helper()
	ctx := context.Background()

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "empty store loads nil")

	require.NoError(t, store.Save(ctx, sampleCredential("first")))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.AccessToken)
	assert.Equal(t, "refresh-first", got.RefreshToken)
	assert.Equal(t, []auth.Scope{auth.ScopePublic, auth.ScopeIdentify}, got.Scopes)
	assert.Equal(t, auth.GrantAuthorizationCode, got.Grant)
	assert.WithinDuration(t, time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC), got.ExpiresAt, time.Millisecond)

	require.NoError(t, store.Save(ctx, sampleCredential("second")))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.AccessToken)

	require.NoError(t, store.Clear(ctx))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	// clearing an empty store is fine
	require.NoError(t, store.Clear(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())

	t.Run("returns copies", func(t *testing.T) {
		store := NewMemoryStore()
		require.NoError(t, store.Save(context.Background(), sampleCredential("a")))
		got, err := store.Load(context.Background())
		require.NoError(t, err)
		got.Scopes[0] = "mutated"

		again, err := store.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, auth.ScopePublic, again.Scopes[0])
	})
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tokens")
	store, err := NewFileStore(dir, "session", zerolog.Nop())
	require.NoError(t, err)

	exerciseStore(t, store)

	t.Run("file permissions", func(t *testing.T) {
		require.NoError(t, store.Save(context.Background(), sampleCredential("perm")))
		info, err := os.Stat(store.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("no temp files left behind", func(t *testing.T) {
		require.NoError(t, store.Save(context.Background(), sampleCredential("clean")))
		matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("interrupted save keeps previous credential", func(t *testing.T) {
		require.NoError(t, store.Save(context.Background(), sampleCredential("good")))
		// a crash between writing the temp file and renaming leaves a stray temp file
		require.NoError(t, os.WriteFile(filepath.Join(dir, "session.123.tmp"), []byte(`{"access_tok`), 0o600))

		got, err := store.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "good", got.AccessToken)
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		require.NoError(t, os.WriteFile(store.Path(), []byte("{not json"), 0o600))
		_, err := store.Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse credential file")
	})

	t.Run("keys are isolated", func(t *testing.T) {
		a, err := NewFileStore(dir, "client", zerolog.Nop())
		require.NoError(t, err)
		b, err := NewFileStore(dir, "user", zerolog.Nop())
		require.NoError(t, err)

		require.NoError(t, a.Save(context.Background(), sampleCredential("for-a")))
		got, err := b.Load(context.Background())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestNewFileStoreValidation(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		key  string
	}{
		{"empty dir", "", "k"},
		{"empty key", t.TempDir(), ""},
		{"path traversal", t.TempDir(), "../escape"},
		{"dot dot", t.TempDir(), ".."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileStore(tt.dir, tt.key, zerolog.Nop())
			assert.Error(t, err)
		})
	}
}

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := OpenDB("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewSQLStore(db, "default", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.CreateSchema(context.Background()))
	return store
}

func TestSQLStore(t *testing.T) {
	store := openSQLite(t)
	exerciseStore(t, store)

	t.Run("keys are isolated", func(t *testing.T) {
		other, err := NewSQLStore(store.db, "other", zerolog.Nop())
		require.NoError(t, err)

		require.NoError(t, store.Save(context.Background(), sampleCredential("mine")))
		got, err := other.Load(context.Background())
		require.NoError(t, err)
		assert.Nil(t, got)

		require.NoError(t, other.Clear(context.Background()))
		got, err = store.Load(context.Background())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "mine", got.AccessToken)
	})

	t.Run("schema creation is idempotent", func(t *testing.T) {
		require.NoError(t, store.CreateSchema(context.Background()))
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	store, err := Open(ctx, Options{Driver: "memory"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(ctx, Options{Driver: "file", Path: t.TempDir(), Key: "k"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	store, err = Open(ctx, Options{Driver: "sqlite", DSN: "file:open-test?mode=memory&cache=shared", Key: "k"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, store)
	require.NoError(t, store.Save(ctx, auth.Credential{AccessToken: "a", ExpiresAt: time.Now().Add(time.Hour), Grant: auth.GrantClientCredentials}))
	require.NoError(t, store.Close())
	_, err = store.Load(ctx)
	assert.Error(t, err, "closed store must not reach the database")

	_, err = Open(ctx, Options{Driver: "redis"}, zerolog.Nop())
	assert.Error(t, err)

	_, err = OpenDB("sqlite", "")
	assert.Error(t, err)
}
