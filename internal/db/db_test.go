package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mockai.db")
	gdb, err := Open("sqlite:" + path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", gdb.Dialector.Name())
	require.NoError(t, gdb.Exec("CREATE TABLE t (id INTEGER)").Error)
	require.NoError(t, Close(gdb))
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open("")
	assert.ErrorIs(t, err, ErrNoDSN)
}
