package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_None(t *testing.T) {
	kv, err := Open(context.Background(), Config{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, kv)
}

func TestOpen_Unknown(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mongo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "mongo"`)
}

func TestOpen_SQLiteMigrates(t *testing.T) {
	ctx := context.Background()
	kv, err := Open(ctx, Config{Driver: "SQLite", DatabaseURL: filepath.Join(t.TempDir(), "open.db")})
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set(ctx, "k", []byte("v")))
	got, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestOpen_PostgresBadDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "postgres", DatabaseURL: "postgres://%zz"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: parse config")
}
