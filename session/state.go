package session

import (
	"time"

	"github.com/okanassist/okanassist-auth/users"
)

// State is the coarse authentication status shown to the user.
type State int

const (
	// StateUnknown is the state before the first Rehydrate completes.
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Policy decides what a mutating operation does while another one is running.
type Policy int

const (
	// PolicyQueue waits for the running operation to finish.
	PolicyQueue Policy = iota
	// PolicyReject fails immediately with Result.Busy set.
	PolicyReject
)

// Snapshot is a consistent copy of the session. User is never shared with the manager.
type Snapshot struct {
	State        State
	User         *users.Profile
	AccessToken  string
	RefreshToken string
	Loading      bool
	UpdatedAt    time.Time
}

// IsAuthenticated reports whether both a user and an access token are held.
func (s Snapshot) IsAuthenticated() bool {
	return s.User != nil && s.AccessToken != ""
}
