package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUserStore_FindOrCreateCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()

	missing, err := store.FindByAddress(ctx, "0xAbC")
	require.NoError(t, err)
	assert.Nil(t, missing)

	first, err := store.FindOrCreate(ctx, "0xAbCdEf")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "0xAbCdEf", first.WalletAddress)

	second, err := store.FindOrCreate(ctx, "0xabcdef")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	found, err := store.FindByAddress(ctx, "0XABCDEF")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
}

func TestMemoryNonceStore_SingleUse(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryNonceStore()

	require.NoError(t, store.Put(ctx, "n1", time.Minute))

	ok, err := store.Consume(ctx, "n1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Consume(ctx, "n1")
	require.NoError(t, err)
	assert.False(t, ok, "nonce must not be reusable")

	ok, err = store.Consume(ctx, "never-issued")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryNonceStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryNonceStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(ctx, "old", time.Minute))
	require.NoError(t, store.Put(ctx, "fresh", time.Hour))

	now = now.Add(2 * time.Minute)
	store.Cleanup()
	assert.Len(t, store.nonces, 1)

	ok, err := store.Consume(ctx, "old")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Consume(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}
