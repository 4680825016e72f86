// Package kvtest holds behaviour checks shared by every credentials.KV backend.
package kvtest

import (
	"context"
	"testing"

	"github.com/okanassist/okanassist-auth/credentials"
	"github.com/okanassist/okanassist-auth/users"
	"github.com/stretchr/testify/require"
)

// Run exercises a backend through the raw KV contract and through credentials.Store.
// newKV must return an empty backend on every call.
func Run(t *testing.T, newKV func(t *testing.T) credentials.KV) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing keys are omitted", func(t *testing.T) {
		kv := newKV(t)
		values, err := kv.MultiGet(ctx, "a", "b")
		require.NoError(t, err)
		require.Empty(t, values)
	})

	t.Run("set get remove", func(t *testing.T) {
		kv := newKV(t)
		require.NoError(t, kv.MultiSet(ctx, map[string]string{"a": "1", "b": "2", "c": ""}))

		values, err := kv.MultiGet(ctx, "a", "b", "c", "d")
		require.NoError(t, err)
		require.Equal(t, map[string]string{"a": "1", "b": "2", "c": ""}, values)

		require.NoError(t, kv.MultiSet(ctx, map[string]string{"a": "3"}))
		require.NoError(t, kv.MultiRemove(ctx, "b", "d"))

		values, err = kv.MultiGet(ctx, "a", "b", "c")
		require.NoError(t, err)
		require.Equal(t, map[string]string{"a": "3", "c": ""}, values)
	})

	t.Run("store round trip", func(t *testing.T) {
		store, err := credentials.New(newKV(t))
		require.NoError(t, err)

		profile := users.Profile{ID: "u1", Email: "a@b.co", Name: "Ann", Currency: "USD"}
		require.NoError(t, store.Save(ctx, profile, credentials.Tokens{AccessToken: "at", RefreshToken: "rt"}))

		record, err := store.Load(ctx)
		require.NoError(t, err)
		require.True(t, record.Complete())
		require.Equal(t, profile, *record.User)
		require.Equal(t, "at", record.AccessToken)
		require.Equal(t, "rt", record.RefreshToken)

		require.NoError(t, store.SaveAccessToken(ctx, "at2"))
		record, err = store.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, "at2", record.AccessToken)
		require.Equal(t, "rt", record.RefreshToken)

		require.NoError(t, store.Clear(ctx))
		record, err = store.Load(ctx)
		require.NoError(t, err)
		require.True(t, record.IsEmpty())

		require.NoError(t, store.Clear(ctx))
	})
}
