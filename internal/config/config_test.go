package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("symbol: ABC\nsocket_address: \":9090\"\norderbook:\n  store_capacity: 500\n")
	require.NoError(t, os.WriteFile(path, body, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ABC", cfg.Symbol)
	assert.Equal(t, ":9090", cfg.SocketAddress)
	assert.Equal(t, 500, cfg.OrderBook.StoreCapacity)
	assert.Equal(t, 250*time.Millisecond, cfg.OrderBook.SnapshotInterval)
}

func TestValidateRejectsMissingSymbol(t *testing.T) {
	cfg := Default()
	cfg.Symbol = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidSymbol)
}

func TestValidateRejectsNonPositiveStoreCapacity(t *testing.T) {
	cfg := Default()
	cfg.OrderBook.StoreCapacity = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidStoreCap)
}
