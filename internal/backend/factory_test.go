package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vegledger/internal/config"
	"vegledger/internal/core"
	"vegledger/internal/storage"
	"vegledger/internal/store/memory"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", DataDir: "d"})
	require.NoError(t, err)
	assert.Equal(t, Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", DataDirectory: "d"}, cfg)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.Error(t, err)

	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestCreateBackendMemory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, core.SlotCustomers+".json"), []byte(`[{"id":"x","name":"A","phone":"1234567890"}]`), 0o644))

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, DataDirectory: dir})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	assert.IsType(t, &memory.Store{}, res.Store)
	payload, found, err := res.Store.Load(context.Background(), core.SlotCustomers)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, string(payload), `"id":"x"`)
}

func TestCreateBackendSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	assert.IsType(t, &storage.SQLiteRepository{}, res.Store)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend})
	assert.Error(t, err)

	_, err = NewFactory(nil).CreateBackend(context.Background(), Config{Type: "sheets"})
	assert.Error(t, err)
}
