package errors_test

import (
	"fmt"
	"testing"

	autherrors "github.com/okanassist/okanassist-auth/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestWithMessage(t *testing.T) {
	err := autherrors.WithMessage(autherrors.ErrInvalidCredentials, "Invalid email or password")

	require.EqualError(t, err, "Invalid email or password")
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	require.True(t, autherrors.IsUnauthorized(err))

	wrapped := fmt.Errorf("login: %w", err)
	require.Equal(t, "Invalid email or password", autherrors.PublicMessage(wrapped, "fallback"))
	require.Equal(t, "fallback", autherrors.PublicMessage(autherrors.ErrNotFound, "fallback"))
	require.Nil(t, autherrors.WithMessage(nil, "x"))
}

func TestWrapf(t *testing.T) {
	err := autherrors.Wrapf(autherrors.ErrNotFound, "user %s", "u1")
	require.EqualError(t, err, "user u1: not found")
	require.ErrorIs(t, err, autherrors.ErrNotFound)
	require.NoError(t, autherrors.Wrapf(nil, "noop"))
}
