package refresh

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	autherrors "github.com/okanassist/okanassist-auth/internal/errors"
)

const (
	DefaultTokenLength = 32 // bytes
	DefaultExpiry      = 30 * 24 * time.Hour
)

// Manager handles refresh token creation and validation. Tokens are not rotated on use.
type Manager struct {
	repo    Repo
	expiry  time.Duration
	length  int
	nowFunc func() time.Time
}

type Option func(*Manager)

func WithExpiry(expiry time.Duration) Option {
	return func(m *Manager) {
		m.expiry = expiry
	}
}

func WithTokenLength(length int) Option {
	return func(m *Manager) {
		m.length = length
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func NewManager(repo Repo, options ...Option) *Manager {
	m := &Manager{repo: repo}
	for _, opt := range options {
		opt(m)
	}
	if m.expiry <= 0 {
		m.expiry = DefaultExpiry
	}
	if m.length <= 0 {
		m.length = DefaultTokenLength
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// Create issues a new refresh token for userID, replacing any token the user already holds.
func (m *Manager) Create(userID string) (string, error) {
	if existingToken, err := m.repo.GetByUserID(userID); err == nil && existingToken != nil {
		if err := m.repo.Delete(existingToken.Token); err != nil {
			return "", autherrors.Wrapf(err, "delete refresh token of user %s", userID)
		}
	}

	tokenBytes := make([]byte, m.length)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", autherrors.Wrapf(err, "generate refresh token")
	}

	tokenStr := hex.EncodeToString(tokenBytes)
	if err := m.repo.Upsert(&StoredRefreshToken{
		Token:  tokenStr,
		UserID: userID,
		Iat:    m.nowFunc(),
	}); err != nil {
		return "", autherrors.Wrapf(err, "store refresh token of user %s", userID)
	}

	return tokenStr, nil
}

// Validate returns the stored token. Unknown tokens are ErrInvalidRefreshToken; expired ones are
// deleted and reported as ErrRefreshTokenExpired.
func (m *Manager) Validate(token string) (*StoredRefreshToken, error) {
	if token == "" {
		return nil, autherrors.ErrInvalidRefreshToken
	}
	rt, err := m.repo.Get(token)
	if err != nil {
		return nil, autherrors.ErrInvalidRefreshToken
	}
	if m.IsExpired(rt) {
		_ = m.repo.Delete(token)
		return nil, autherrors.ErrRefreshTokenExpired
	}
	return rt, nil
}

func (m *Manager) IsExpired(rt *StoredRefreshToken) bool {
	return m.nowFunc().Sub(rt.Iat) > m.expiry
}

// RevokeForUser deletes the user's refresh token, if any.
func (m *Manager) RevokeForUser(userID string) error {
	rt, err := m.repo.GetByUserID(userID)
	if err != nil {
		if autherrors.Is(err, autherrors.ErrNotFound) {
			return nil
		}
		return err
	}
	return m.repo.Delete(rt.Token)
}
