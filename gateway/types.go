package gateway

import (
	"runtime"
	"runtime/debug"

	"github.com/okanassist/okanassist-auth/users"
)

const PlatformMobileApp = "mobile_app"

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// AuthResponse is returned by every endpoint that can establish a session.
type AuthResponse struct {
	Success              bool           `json:"success"`
	Message              string         `json:"message,omitempty"`
	User                 *users.Profile `json:"user,omitempty"`
	Tokens               *TokenPair     `json:"tokens,omitempty"`
	RequiresVerification bool           `json:"requires_verification,omitempty"`
	VerificationToken    string         `json:"verification_token,omitempty"`
}

func (r *AuthResponse) AccessToken() string {
	if r == nil || r.Tokens == nil {
		return ""
	}
	return r.Tokens.AccessToken
}

func (r *AuthResponse) RefreshToken() string {
	if r == nil || r.Tokens == nil {
		return ""
	}
	return r.Tokens.RefreshToken
}

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type ProfileResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	User    *users.Profile `json:"user,omitempty"`
}

type DeviceInfo struct {
	Platform string `json:"platform"`
	Version  string `json:"version"`
}

// DefaultDeviceInfo describes the running binary.
func DefaultDeviceInfo() DeviceInfo {
	version := "devel"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	return DeviceInfo{Platform: runtime.GOOS, Version: version}
}

type RegisterRequest struct {
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	Name         string      `json:"name"`
	Phone        string      `json:"phone,omitempty"`
	Currency     string      `json:"currency,omitempty"`
	Language     string      `json:"language,omitempty"`
	Timezone     string      `json:"timezone,omitempty"`
	PlatformType string      `json:"platform_type,omitempty"`
	DeviceInfo   *DeviceInfo `json:"device_info,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type GoogleLoginRequest struct {
	GoogleToken  string `json:"google_token"`
	PlatformType string `json:"platform_type,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type VerifyEmailRequest struct {
	VerificationToken string `json:"verification_token"`
}

// MessageResponse is the minimal body shape used to read error messages.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
