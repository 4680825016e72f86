package users

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Profile is the user record exchanged with the auth API and mirrored in the credential store.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Currency string `json:"currency,omitempty"`
	Language string `json:"language,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// ProfileUpdate is a partial profile. Nil fields are left untouched.
type ProfileUpdate struct {
	Name     *string `json:"name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Currency *string `json:"currency,omitempty"`
	Language *string `json:"language,omitempty"`
	Timezone *string `json:"timezone,omitempty"`
}

// IsEmpty reports whether the update sets no field at all.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.Phone == nil && u.Currency == nil && u.Language == nil && u.Timezone == nil
}

// Merge returns a copy of p with every field set in u overwritten.
func (p Profile) Merge(u ProfileUpdate) Profile {
	merged := p
	if u.Name != nil {
		merged.Name = *u.Name
	}
	if u.Phone != nil {
		merged.Phone = *u.Phone
	}
	if u.Currency != nil {
		merged.Currency = *u.Currency
	}
	if u.Language != nil {
		merged.Language = *u.Language
	}
	if u.Timezone != nil {
		merged.Timezone = *u.Timezone
	}
	return merged
}

// IsZero reports whether the profile carries no identity.
func (p Profile) IsZero() bool {
	return p.ID == "" && p.Email == ""
}

// User is an account held by the dev auth API.
type User struct {
	Profile

	PasswordHash string    `json:"-"` // bcrypt hash, raw passwords are never kept
	GoogleSub    string    `json:"-"` // subject of a linked Google identity
	Verified     bool      `json:"verified,omitempty"`
	DateJoined   time.Time `json:"date_joined,omitempty"`
	LastLogin    time.Time `json:"last_login,omitempty"`
}

// NormalizeEmail is the canonical form used for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the user's hash
func (u *User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return CheckPasswordHash(password, u.PasswordHash)
}
