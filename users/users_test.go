package users_test

import (
	"testing"

	"github.com/okanassist/okanassist-auth/internal/utils"
	"github.com/okanassist/okanassist-auth/users"
	"github.com/stretchr/testify/require"
)

func TestProfile_Merge(t *testing.T) {
	base := users.Profile{
		ID:       "1",
		Email:    "user@x.com",
		Name:     "Okan",
		Phone:    "555",
		Currency: "USD",
	}

	t.Run("set fields overwrite, others retained", func(t *testing.T) {
		merged := base.Merge(users.ProfileUpdate{Phone: utils.Ptr("123"), Language: utils.Ptr("pt-BR")})

		require.Equal(t, "123", merged.Phone)
		require.Equal(t, "pt-BR", merged.Language)
		require.Equal(t, "Okan", merged.Name)
		require.Equal(t, "USD", merged.Currency)
		require.Equal(t, "1", merged.ID)
		require.Equal(t, "555", base.Phone, "receiver must not change")
	})

	t.Run("explicit empty value clears a field", func(t *testing.T) {
		merged := base.Merge(users.ProfileUpdate{Phone: utils.Ptr("")})
		require.Empty(t, merged.Phone)
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		update := users.ProfileUpdate{}
		require.True(t, update.IsEmpty())
		require.Equal(t, base, base.Merge(update))
	})
}

func TestPasswordHash(t *testing.T) {
	hash, err := users.HashPassword("secret1")
	require.NoError(t, err)
	require.NotEqual(t, "secret1", hash)

	u := &users.User{PasswordHash: hash}
	require.True(t, u.CheckPassword("secret1"))
	require.False(t, u.CheckPassword("secret2"))
	require.False(t, (&users.User{}).CheckPassword(""))
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "user@x.com", users.NormalizeEmail("  User@X.com "))
}
