// FILE: state_test.go

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuntimeStateStoreRoundTrip(t *testing.T) {
	store := NewRuntimeStateStore(t.TempDir())

	saved := RuntimeParams{
		LastPrice:   50123.45,
		BuySize:     0.02,
		SellSize:    0.01,
		BuyOrderID:  "111",
		SellOrderID: sideBlocked,
	}
	require.NoError(t, store.Save(saved))

	loaded, hasLastPrice, err := store.Load()
	require.NoError(t, err)
	assert.True(t, hasLastPrice)
	assert.Equal(t, saved, loaded)
}

func TestRuntimeStateStoreNoFile(t *testing.T) {
	store := NewRuntimeStateStore(t.TempDir())
	_, _, err := store.Load()
	assert.True(t, errors.Is(err, ErrNoState))
}

func TestRuntimeStateStoreMissingLastPrice(t *testing.T) {
	dir := t.TempDir()
	// A state file from a build that predates the price anchor.
	legacy := []byte(`{"buy_size": 0.04, "sell_size": 0.01, "buy_order_id": "9", "sell_order_id": ""}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "runtime_state.json"), legacy, 0o644))

	store := NewRuntimeStateStore(dir)
	loaded, hasLastPrice, err := store.Load()
	require.NoError(t, err)

	assert.False(t, hasLastPrice)
	assert.Equal(t, 0.04, loaded.BuySize)
	assert.Equal(t, 0.01, loaded.SellSize)
	assert.Equal(t, "9", loaded.BuyOrderID)
	assert.Equal(t, "", loaded.SellOrderID)
}

func TestRuntimeStateStoreOverwrites(t *testing.T) {
	store := NewRuntimeStateStore(t.TempDir())
	require.NoError(t, store.Save(RuntimeParams{LastPrice: 100}))
	require.NoError(t, store.Save(RuntimeParams{LastPrice: 200, BuyOrderID: "5"}))

	loaded, hasLastPrice, err := store.Load()
	require.NoError(t, err)
	assert.True(t, hasLastPrice)
	assert.Equal(t, 200.0, loaded.LastPrice)
	assert.Equal(t, "5", loaded.BuyOrderID)
}

func TestRuntimeStateStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "runtime_state.json"), []byte("{not json"), 0o644))

	store := NewRuntimeStateStore(dir)
	_, _, err := store.Load()
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoState))
}
