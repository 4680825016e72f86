package identity

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the ID token payload fields the app cares about.
type Claims struct {
	Issuer        string `json:"iss"`
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

func (c Claims) User() *ProviderUser {
	return &ProviderUser{
		ID:         c.Subject,
		Email:      c.Email,
		Name:       c.Name,
		Picture:    c.Picture,
		GivenName:  c.GivenName,
		FamilyName: c.FamilyName,
	}
}

// DecodeIDTokenPayload decodes the payload segment of a JWT without checking its signature.
// Padded and unpadded base64url are both accepted.
func DecodeIDTokenPayload(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, fmt.Errorf("invalid JWT format: expected 3 segments, got %d", len(parts))
	}

	payload, err := jwt.NewParser(jwt.WithPaddingAllowed()).DecodeSegment(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("decode JWT payload: %w", err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}, fmt.Errorf("parse JWT payload: %w", err)
	}
	return claims, nil
}
