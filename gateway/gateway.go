// Package gateway talks to the OkanAssist auth API.
package gateway

import (
	"context"

	"github.com/okanassist/okanassist-auth/users"
)

// Endpoint paths, relative to the API base URL.
const (
	PathRegister    = "/auth/register"
	PathLogin       = "/auth/login"
	PathGoogle      = "/auth/google"
	PathRefresh     = "/auth/refresh"
	PathLogout      = "/auth/logout"
	PathVerifyEmail = "/auth/verify-email"
	PathProfile     = "/user/profile"
)

// Gateway is the auth API surface used by the session manager. Implementations are stateless
// between calls.
type Gateway interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	LoginWithGoogle(ctx context.Context, idToken string) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, accessToken string) (*StatusResponse, error)
	VerifyEmail(ctx context.Context, verificationToken string) (*AuthResponse, error)
	GetProfile(ctx context.Context, accessToken string) (*ProfileResponse, error)
	UpdateProfile(ctx context.Context, accessToken string, updates users.ProfileUpdate) (*ProfileResponse, error)
}
