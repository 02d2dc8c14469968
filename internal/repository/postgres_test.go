package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestPostgres starts a pgvector container and returns a migrated repository
func newTestPostgres(t *testing.T) *PostgresRepository {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := testcontainers.Run(ctx, "pgvector/pgvector:pg16",
		testcontainers.WithExposedPorts("5432/tcp"),
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_USER":     "aira",
			"POSTGRES_PASSWORD": "aira",
			"POSTGRES_DB":       "aira",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { ctr.Terminate(context.Background()) })

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=aira password=aira dbname=aira sslmode=disable", host, port.Port())
	repo, err := NewPostgresRepository(dsn, 5, 2)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func TestPostgresRepository(t *testing.T) {
	repo := newTestPostgres(t)
	ctx := context.Background()

	t.Run("properties", func(t *testing.T) {
		require.NoError(t, repo.Append(ctx, sampleProperty("1")))
		require.NoError(t, repo.Append(ctx, sampleProperty("2")))
		assert.ErrorIs(t, repo.Append(ctx, sampleProperty("1")), ErrDuplicateProperty)

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "2", list[0].ID)

		got, err := repo.Get(ctx, "1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, sampleProperty("1"), *got)

		missing, err := repo.Get(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("similar", func(t *testing.T) {
		require.NoError(t, repo.Append(ctx, sampleProperty("3")))
		require.NoError(t, repo.SetEmbedding(ctx, "1", []float32{1, 0, 0}))
		require.NoError(t, repo.SetEmbedding(ctx, "2", []float32{0, 1, 0}))
		require.NoError(t, repo.SetEmbedding(ctx, "3", []float32{0.9, 0.1, 0}))

		similar, err := repo.Similar(ctx, "1", 2)
		require.NoError(t, err)
		require.Len(t, similar, 2)
		assert.Equal(t, "3", similar[0].ID)
		assert.Equal(t, "2", similar[1].ID)
	})

	t.Run("users", func(t *testing.T) {
		u1, err := repo.FindOrCreate(ctx, "0xAbC123")
		require.NoError(t, err)
		u2, err := repo.FindOrCreate(ctx, "0xabc123")
		require.NoError(t, err)
		assert.Equal(t, u1.ID, u2.ID)
		assert.Equal(t, "0xAbC123", u2.WalletAddress)
	})

	t.Run("nonces", func(t *testing.T) {
		require.NoError(t, repo.Put(ctx, "live", time.Minute))
		require.NoError(t, repo.Put(ctx, "dead", -time.Minute))

		ok, err := repo.Consume(ctx, "live")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = repo.Consume(ctx, "live")
		require.NoError(t, err)
		assert.False(t, ok)
		ok, err = repo.Consume(ctx, "dead")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
