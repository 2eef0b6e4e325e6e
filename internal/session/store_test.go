package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, "test"), mr
}

// storeFactories lets every behavioural test run against both stores.
func storeFactories() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"redis": func(t *testing.T) Store {
			s, _ := newTestRedisStore(t)
			return s
		},
	}
}

func seed(t *testing.T, s Store, id string) *Session {
	t.Helper()
	sess := newSession(id, time.Now(), time.Hour)
	require.NoError(t, s.Create(context.Background(), sess))
	return sess
}

func TestStore_CreateGet(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			seed(t, s, "s1")

			got, err := s.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "s1", got.ID)
			assert.Empty(t, got.Tokens)
			assert.Nil(t, got.Identity)

			_, err = s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_SetTokenOverwrites(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			seed(t, s, "s1")

			require.NoError(t, s.SetToken(ctx, "s1", "_token", "first"))
			require.NoError(t, s.SetToken(ctx, "s1", "_token", "second"))

			got, err := s.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"_token": "second"}, got.Tokens)

			assert.ErrorIs(t, s.SetToken(ctx, "missing", "_token", "x"), ErrNotFound)
		})
	}
}

func TestStore_SwapToken(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			seed(t, s, "s1")
			require.NoError(t, s.SetToken(ctx, "s1", "_token", "T1"))

			ok, err := s.SwapToken(ctx, "s1", "_token", "wrong", "T2")
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = s.SwapToken(ctx, "s1", "_token", "T1", "T2")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.SwapToken(ctx, "s1", "_token", "T1", "T3")
			require.NoError(t, err)
			assert.False(t, ok, "a consumed value must not swap twice")

			ok, err = s.SwapToken(ctx, "s1", "other", "", "T4")
			require.NoError(t, err)
			assert.False(t, ok, "an unset token never matches")

			ok, err = s.SwapToken(ctx, "missing", "_token", "T2", "T5")
			require.NoError(t, err)
			assert.False(t, ok)

			got, err := s.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, "T2", got.Tokens["_token"])
		})
	}
}

func TestStore_RenameKeepsContentsAndIndex(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			seed(t, s, "old")
			require.NoError(t, s.SetToken(ctx, "old", "_token", "T1"))
			require.NoError(t, s.SetIdentity(ctx, "old", Identity{UserID: "alice", DisplayName: "Alice", Role: "USER", AuthenticatedAt: time.Now()}))

			require.NoError(t, s.Rename(ctx, "old", "new"))

			_, err := s.Get(ctx, "old")
			assert.ErrorIs(t, err, ErrNotFound)

			got, err := s.Get(ctx, "new")
			require.NoError(t, err)
			assert.Equal(t, "T1", got.Tokens["_token"])
			require.NotNil(t, got.Identity)
			assert.Equal(t, "Alice", got.Identity.DisplayName)

			list, err := s.ListByUser(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "new", list[0].ID)

			assert.ErrorIs(t, s.Rename(ctx, "missing", "other"), ErrNotFound)
		})
	}
}

func TestStore_ListByUserAndDelete(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()
			for _, id := range []string{"a1", "a2", "b1", "anon"} {
				seed(t, s, id)
			}
			require.NoError(t, s.SetIdentity(ctx, "a1", Identity{UserID: "alice"}))
			require.NoError(t, s.SetIdentity(ctx, "a2", Identity{UserID: "alice"}))
			require.NoError(t, s.SetIdentity(ctx, "b1", Identity{UserID: "bob"}))

			list, err := s.ListByUser(ctx, "alice")
			require.NoError(t, err)
			assert.Len(t, list, 2)

			require.NoError(t, s.Delete(ctx, "a1"))
			require.NoError(t, s.Delete(ctx, "a1"), "deleting twice is not an error")

			list, err = s.ListByUser(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "a2", list[0].ID)
		})
	}
}

func TestStore_TouchMissing(t *testing.T) {
	for name, factory := range storeFactories() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			now := time.Now()
			assert.ErrorIs(t, s.Touch(context.Background(), "missing", now, now.Add(time.Hour)), ErrNotFound)
		})
	}
}

func TestMemoryStore_ExpiryAndSweep(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Create(ctx, newSession("short", now, time.Minute)))
	require.NoError(t, s.Create(ctx, newSession("long", now, time.Hour)))

	now = now.Add(2 * time.Minute)

	_, err := s.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, s.Len(), "expired entries stay until swept")

	removed, err := s.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seed(t, s, "s1")
	require.NoError(t, s.SetToken(ctx, "s1", "_token", "T1"))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	got.Tokens["_token"] = "tampered"

	again, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "T1", again.Tokens["_token"])
}

func TestRedisStore_KeyExpiry(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.Create(ctx, newSession("s1", now, time.Minute)))

	assert.True(t, mr.Exists("{test}:session:s1"))
	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_TouchExtendsDeadline(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.Create(ctx, newSession("s1", now, time.Minute)))

	require.NoError(t, s.Touch(ctx, "s1", now, now.Add(time.Hour)))
	mr.FastForward(2 * time.Minute)

	assert.True(t, mr.Exists("{test}:session:s1"))
}

func TestRedisStore_KeysShareHashTag(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.Create(ctx, newSession("s1", now, time.Hour)))
	require.NoError(t, s.SetIdentity(ctx, "s1", Identity{UserID: "alice", AuthenticatedAt: now}))
	require.NoError(t, s.Rename(ctx, "s1", "s2"))

	keys := mr.Keys()
	assert.ElementsMatch(t, []string{"{test}:session:s2", "{test}:user:alice"}, keys)

	members, err := mr.Members("{test}:user:alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"s2"}, members)
}
