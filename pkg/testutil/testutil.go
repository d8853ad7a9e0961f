// Package testutil provides testing utilities for i94dw
package testutil

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/i94dw/pkg/connector/core"
	"github.com/ajitpratap0/i94dw/pkg/connector/destinations/filesystem"
	"github.com/ajitpratap0/i94dw/pkg/models"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// Table builds a table from literal rows, failing the test on an arity
// mismatch.
func Table(t *testing.T, name string, fields []models.Field, rows ...[]any) *models.Table {
	t.Helper()
	tbl := models.NewTable(name, models.NewSchema(name, fields...))
	for _, r := range rows {
		require.NoError(t, tbl.AppendRow(r...))
	}
	return tbl
}

// FileStore returns a filesystem store rooted in a fresh temporary directory.
func FileStore(t *testing.T) *filesystem.Store {
	t.Helper()
	store, err := filesystem.NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

// ReadObject returns the content of key as a string.
func ReadObject(t *testing.T, store core.ObjectStore, key string) string {
	t.Helper()
	rc, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}
