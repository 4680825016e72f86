// Package token mints and checks the access tokens issued by the dev auth API.
package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	autherrors "github.com/okanassist/okanassist-auth/internal/errors"
	"github.com/okanassist/okanassist-auth/users"
	"github.com/pkg/errors"
)

const DefaultIssuer = "okanassist-dev"

// Introspection is what the API learns from a valid access token.
type Introspection struct {
	Subject   string
	Email     string
	ID        string // jti
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type Manager struct {
	signer            Signer
	issuer            string
	revocations       RevocationList
	accessTokenExpiry time.Duration
	nowFunc           func() time.Time
}

type ManagerOption func(*Manager)

func WithAccessTokenExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessTokenExpiry = expiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithRevocationList(list RevocationList) ManagerOption {
	return func(m *Manager) {
		m.revocations = list
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:      signer,
		issuer:      DefaultIssuer,
		revocations: NewMemoryRevocationList(),
	}

	for _, opt := range options {
		opt(m)
	}

	if m.accessTokenExpiry <= 0 {
		m.accessTokenExpiry = 15 * time.Minute
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

func (m *Manager) AccessTokenExpiry() time.Duration {
	return m.accessTokenExpiry
}

func (m *Manager) CreateAccessToken(user *users.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", errors.New("Manager.CreateAccessToken: user is required")
	}

	now := m.nowFunc()
	claims := jwt.MapClaims{
		"iss":   m.issuer,
		"sub":   user.ID,
		"email": user.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(m.accessTokenExpiry).Unix(),
		"jti":   uuid.New().String(),
	}

	signed, err := m.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "Manager.CreateAccessToken Sign")
	}
	return signed, nil
}

// Introspect verifies the token signature, issuer, expiry and revocation. Failures are
// ErrInvalidToken, ErrTokenExpired or ErrTokenRevoked.
func (m *Manager) Introspect(rawToken string) (*Introspection, error) {
	claims, err := m.parse(rawToken)
	if err != nil {
		return nil, err
	}

	jti, _ := claims["jti"].(string)
	if jti != "" && m.revocations.Revoked(jti, m.nowFunc()) {
		return nil, autherrors.ErrTokenRevoked
	}

	sub, _ := claims.GetSubject()
	email, _ := claims["email"].(string)
	out := &Introspection{Subject: sub, Email: email, ID: jti}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// RevokeAccessToken revokes a valid token by its jti. Revoking an already revoked token is fine.
func (m *Manager) RevokeAccessToken(rawToken string) error {
	claims, err := m.parse(rawToken)
	if err != nil {
		return err
	}

	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return errors.Wrap(autherrors.ErrInvalidToken, "token missing jti claim")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return errors.Wrap(autherrors.ErrInvalidToken, "token missing exp claim")
	}
	m.revocations.Revoke(jti, exp.Time)
	return nil
}

// CleanupRevokedTokens forgets revocations of tokens that have expired anyway.
func (m *Manager) CleanupRevokedTokens() int {
	return m.revocations.Prune(m.nowFunc())
}

func (m *Manager) parse(rawToken string) (jwt.MapClaims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, autherrors.ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.signer.GetSigningMethod().Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.nowFunc),
	)

	claims := jwt.MapClaims{}
	token, err := parser.ParseWithClaims(rawToken, claims, m.signer.GetVerificationKey)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, autherrors.ErrTokenExpired
	case err != nil:
		return nil, errors.Wrap(autherrors.ErrInvalidToken, err.Error())
	case !token.Valid:
		return nil, autherrors.ErrInvalidToken
	}
	return claims, nil
}
