package sessionrepo_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/acheron-labs/voidmarket/auth/sessionrepo"
	errs "github.com/acheron-labs/voidmarket/internal/errors"
)

func testRepo(t *testing.T, repo sessionrepo.Repo) {
	t.Helper()

	_, err := repo.Get("s1")
	require.ErrorIs(t, err, errs.ErrNoSession)

	require.NoError(t, repo.Set("s1", "token-1"))
	token, err := repo.Get("s1")
	require.NoError(t, err)
	require.Equal(t, "token-1", token)

	// Set replaces
	require.NoError(t, repo.Set("s1", "token-2"))
	token, err = repo.Get("s1")
	require.NoError(t, err)
	require.Equal(t, "token-2", token)

	// Other sessions stay empty
	_, err = repo.Get("s2")
	require.ErrorIs(t, err, errs.ErrNoSession)

	// Clear is idempotent
	require.NoError(t, repo.Clear("s1"))
	require.NoError(t, repo.Clear("s1"))
	_, err = repo.Get("s1")
	require.ErrorIs(t, err, errs.ErrNoSession)

	require.Error(t, repo.Set("", "token"))
	require.Error(t, repo.Set("s1", ""))
}

func TestInMemoryRepo(t *testing.T) {
	testRepo(t, sessionrepo.NewInMemoryRepo())
}

func TestRedisRepo(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	testRepo(t, sessionrepo.NewRedisRepo(client, time.Hour))
}

func TestRedisRepoExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := sessionrepo.NewRedisRepo(client, time.Minute)
	require.NoError(t, repo.Set("s1", "token-1"))

	mr.FastForward(2 * time.Minute)

	_, err := repo.Get("s1")
	require.ErrorIs(t, err, errs.ErrNoSession)
}
