// Package credentials persists the session artifacts (user profile, access token and refresh
// token) that let a client restore its session on cold start.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/okanassist/okanassist-auth/users"
)

// Persisted keys. The names match the ones the mobile app wrote so stores stay readable.
const (
	KeyUserData     = "userData"
	KeyAuthToken    = "authToken"
	KeyRefreshToken = "refreshToken"
)

// Keys lists every key owned by the store.
var Keys = []string{KeyUserData, KeyAuthToken, KeyRefreshToken}

var (
	ErrCorruptRecord = errors.New("corrupt credential record")
	ErrNilBackend    = errors.New("credential backend is required")
)

// KV is a string key/value backend with batch operations. MultiSet and MultiRemove must be
// all-or-nothing.
type KV interface {
	// MultiGet returns the values of the keys that exist; absent keys are omitted.
	MultiGet(ctx context.Context, keys ...string) (map[string]string, error)
	MultiSet(ctx context.Context, pairs map[string]string) error
	// MultiRemove deletes the keys; removing absent keys is not an error.
	MultiRemove(ctx context.Context, keys ...string) error
}

// Tokens is the credential pair issued by the auth API.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Record is the durable mirror of a session.
type Record struct {
	User         *users.Profile
	AccessToken  string
	RefreshToken string
}

// Complete reports whether the record holds enough to attempt a session restore.
func (r Record) Complete() bool {
	return r.User != nil && r.AccessToken != ""
}

// IsEmpty reports whether nothing at all is stored.
func (r Record) IsEmpty() bool {
	return r.User == nil && r.AccessToken == "" && r.RefreshToken == ""
}

// Store is the typed credential store over a KV backend.
type Store struct {
	kv KV
}

func New(kv KV) (*Store, error) {
	if kv == nil {
		return nil, ErrNilBackend
	}
	return &Store{kv: kv}, nil
}

// Load reads all three keys in one batch.
func (s *Store) Load(ctx context.Context) (Record, error) {
	values, err := s.kv.MultiGet(ctx, Keys...)
	if err != nil {
		return Record{}, fmt.Errorf("load credentials: %w", err)
	}

	record := Record{
		AccessToken:  values[KeyAuthToken],
		RefreshToken: values[KeyRefreshToken],
	}
	if raw, ok := values[KeyUserData]; ok && raw != "" {
		var profile users.Profile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			return Record{}, fmt.Errorf("%w: userData: %v", ErrCorruptRecord, err)
		}
		record.User = &profile
	}
	return record, nil
}

// Save writes the profile and both tokens in one batch. An absent refresh token is stored as an
// empty string.
func (s *Store) Save(ctx context.Context, profile users.Profile, tokens Tokens) error {
	userData, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode userData: %w", err)
	}
	if err := s.kv.MultiSet(ctx, map[string]string{
		KeyUserData:     string(userData),
		KeyAuthToken:    tokens.AccessToken,
		KeyRefreshToken: tokens.RefreshToken,
	}); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (s *Store) SaveUser(ctx context.Context, profile users.Profile) error {
	userData, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode userData: %w", err)
	}
	if err := s.kv.MultiSet(ctx, map[string]string{KeyUserData: string(userData)}); err != nil {
		return fmt.Errorf("save userData: %w", err)
	}
	return nil
}

func (s *Store) SaveAccessToken(ctx context.Context, accessToken string) error {
	if err := s.kv.MultiSet(ctx, map[string]string{KeyAuthToken: accessToken}); err != nil {
		return fmt.Errorf("save authToken: %w", err)
	}
	return nil
}

// Clear removes all three keys in one batch.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.MultiRemove(ctx, Keys...); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}
