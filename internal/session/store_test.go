package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapJar struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMapJar() *mapJar {
	return &mapJar{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (j *mapJar) Get(name string) string { return j.values[name] }

func (j *mapJar) Set(name, value string, ttl time.Duration) {
	j.values[name] = value
	j.ttls[name] = ttl
}

func (j *mapJar) Expire(name string) { delete(j.values, name) }

// exerciseStore checks the single-key contract every backend shares.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	token, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)

	require.NoError(t, store.Save(ctx, "a.b.c"))
	token, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a.b.c", token)

	require.NoError(t, store.Save(ctx, "d.e.f"))
	token, _, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "d.e.f", token)

	require.NoError(t, store.Clear(ctx))
	_, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Clear(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())

	seeded := NewMemoryStore("x.y.z")
	token, ok, err := seeded.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x.y.z", token)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session")
	store := NewFileStore(path)
	exerciseStore(t, store)

	require.NoError(t, store.Save(context.Background(), "a.b.c"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	t.Run("blank file is logged out", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))
		_, ok, err := store.Load(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unreadable path reports unavailable", func(t *testing.T) {
		dirAsFile := t.TempDir()
		_, _, err := NewFileStore(dirAsFile).Load(context.Background())
		require.ErrorIs(t, err, ErrUnavailable)
	})
}

func TestDefaultFilePath(t *testing.T) {
	t.Setenv("VILLA_SESSION_FILE", "/tmp/explicit")
	assert.Equal(t, "/tmp/explicit", DefaultFilePath())

	t.Setenv("VILLA_SESSION_FILE", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "villa", "session"), DefaultFilePath())
}

func TestCookieStore(t *testing.T) {
	jar := newMapJar()
	store := NewCookieStore(jar, "auth_token", time.Hour)
	exerciseStore(t, store)

	require.NoError(t, store.Save(context.Background(), "a.b.c"))
	assert.Equal(t, "a.b.c", jar.values["auth_token"])
	assert.Equal(t, time.Hour, jar.ttls["auth_token"])
}

func TestRedisStoreUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	jar := newMapJar()
	store := NewRedisStore(client, jar, time.Hour)

	_, ok, err := store.Load(ctx)
	require.NoError(t, err, "no session id cookie means nothing to look up")
	assert.False(t, ok)

	err = store.Save(ctx, "a.b.c")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, jar.values[SessionIDCookie])

	jar.values[SessionIDCookie] = "5d6e4a1c-0a53-4f7e-9d7c-3f4f1a2b3c4d"
	_, _, err = store.Load(ctx)
	require.ErrorIs(t, err, ErrUnavailable)

	err = store.Clear(ctx)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Empty(t, jar.values[SessionIDCookie], "cookie is expired even when redis is down")
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore(t *testing.T) {
	mr, client := newMiniredis(t)
	jar := newMapJar()
	store := NewRedisStore(client, jar, time.Hour)
	exerciseStore(t, store)

	require.NoError(t, store.Save(context.Background(), "a.b.c"))
	sid := jar.values[SessionIDCookie]
	require.NotEmpty(t, sid)
	assert.Equal(t, time.Hour, jar.ttls[SessionIDCookie])

	got, err := mr.Get(redisKeyPrefix + sid)
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", got)
	assert.Equal(t, time.Hour, mr.TTL(redisKeyPrefix+sid))
	assert.Len(t, mr.Keys(), 1)
}

func TestRedisStoreRotatesSessionID(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	jar := newMapJar()
	store := NewRedisStore(client, jar, time.Hour)

	require.NoError(t, store.Save(ctx, "first.jwt.sig"))
	first := jar.values[SessionIDCookie]

	require.NoError(t, store.Save(ctx, "second.jwt.sig"))
	second := jar.values[SessionIDCookie]
	assert.NotEqual(t, first, second)
	assert.False(t, mr.Exists(redisKeyPrefix+first))
	assert.Equal(t, []string{redisKeyPrefix + second}, mr.Keys())

	token, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second.jwt.sig", token)
}

func TestRedisStoreIgnoresPlantedSessionID(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	planted := "11111111-1111-4111-8111-111111111111"
	require.NoError(t, mr.Set(redisKeyPrefix+planted, "attacker.jwt.sig"))

	victimJar := newMapJar()
	victimJar.values[SessionIDCookie] = planted
	victim := NewRedisStore(client, victimJar, time.Hour)
	require.NoError(t, victim.Save(ctx, "victim.jwt.sig"))
	assert.NotEqual(t, planted, victimJar.values[SessionIDCookie])
	assert.False(t, mr.Exists(redisKeyPrefix+planted))

	attackerJar := newMapJar()
	attackerJar.values[SessionIDCookie] = planted
	token, ok, err := NewRedisStore(client, attackerJar, time.Hour).Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)
}

func TestRedisStoreClear(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	jar := newMapJar()
	store := NewRedisStore(client, jar, time.Hour)

	require.NoError(t, store.Save(ctx, "a.b.c"))
	require.NoError(t, store.Clear(ctx))
	assert.Empty(t, jar.values[SessionIDCookie])
	assert.Empty(t, mr.Keys())

	jar.values[SessionIDCookie] = "5d6e4a1c-0a53-4f7e-9d7c-3f4f1a2b3c4d"
	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "unknown session id loads nothing")
}
