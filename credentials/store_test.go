package credentials_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okanassist/okanassist-auth/credentials"
	"github.com/okanassist/okanassist-auth/credentials/kvfake"
	"github.com/okanassist/okanassist-auth/users"
	"github.com/stretchr/testify/require"
)

type storeFixture struct {
	kv    *kvfake.Store
	store *credentials.Store
}

func newStoreFixture(t *testing.T) storeFixture {
	t.Helper()
	kv := kvfake.New()
	store, err := credentials.New(kv)
	require.NoError(t, err)
	return storeFixture{kv: kv, store: store}
}

func TestNew_NilBackend(t *testing.T) {
	_, err := credentials.New(nil)
	require.ErrorIs(t, err, credentials.ErrNilBackend)
}

func TestStore_SaveWritesOneBatch(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	err := f.store.Save(ctx, users.Profile{ID: "u1", Email: "a@b.co"}, credentials.Tokens{AccessToken: "at"})
	require.NoError(t, err)

	require.Equal(t, 1, f.kv.Calls(kvfake.OpMultiSet))
	require.Equal(t, 3, f.kv.Len())
	refresh, ok := f.kv.Get(credentials.KeyRefreshToken)
	require.True(t, ok)
	require.Empty(t, refresh)

	userData, _ := f.kv.Get(credentials.KeyUserData)
	require.JSONEq(t, `{"id":"u1","email":"a@b.co"}`, userData)
}

func TestStore_ClearIsOneBatch(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, users.Profile{ID: "u1"}, credentials.Tokens{AccessToken: "at", RefreshToken: "rt"}))

	require.NoError(t, f.store.Clear(ctx))
	require.Equal(t, 1, f.kv.Calls(kvfake.OpMultiRemove))
	require.Zero(t, f.kv.Len())
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("partial record is not complete", func(t *testing.T) {
		f := newStoreFixture(t)
		require.NoError(t, f.kv.MultiSet(ctx, map[string]string{credentials.KeyAuthToken: "at"}))

		record, err := f.store.Load(ctx)
		require.NoError(t, err)
		require.False(t, record.Complete())
		require.False(t, record.IsEmpty())
		require.Nil(t, record.User)
	})

	t.Run("corrupt user data", func(t *testing.T) {
		f := newStoreFixture(t)
		require.NoError(t, f.kv.MultiSet(ctx, map[string]string{
			credentials.KeyUserData:  "{not json",
			credentials.KeyAuthToken: "at",
		}))

		_, err := f.store.Load(ctx)
		require.ErrorIs(t, err, credentials.ErrCorruptRecord)
	})

	t.Run("backend failure", func(t *testing.T) {
		f := newStoreFixture(t)
		boom := errors.New("disk gone")
		f.kv.FailNext(kvfake.OpMultiGet, boom)

		_, err := f.store.Load(ctx)
		require.ErrorIs(t, err, boom)

		_, err = f.store.Load(ctx)
		require.NoError(t, err)
	})
}

func TestStore_FailedSaveLeavesPreviousValues(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Save(ctx, users.Profile{ID: "u1"}, credentials.Tokens{AccessToken: "at"}))

	f.kv.FailNext(kvfake.OpMultiSet, errors.New("quota"))
	require.Error(t, f.store.SaveUser(ctx, users.Profile{ID: "u2"}))

	record, err := f.store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "u1", record.User.ID)
}
