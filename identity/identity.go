// Package identity signs users in with Google and returns the identity token the auth API
// exchanges for a session. Provider failures are reported in results, never as Go errors.
package identity

import "context"

const (
	MsgCancelled         = "Sign-in was cancelled"
	MsgInProgress        = "Sign-in is already in progress"
	MsgPlayServices      = "Google Play Services not available"
	MsgSignInFailed      = "Google Sign-In failed"
	MsgNoIDToken         = "No ID token received from Google"
	MsgNotConfigured     = "Google configuration not found"
	MsgAuthFailed        = "Authentication failed"
	MsgNoCode            = "No authorization code received"
	MsgStateMismatch     = "Authorization state mismatch"
	MsgTokenExchange     = "Token exchange failed"
	MsgIDTokenUnverified = "ID token verification failed"
	MsgTimedOut          = "Sign-in timed out"
)

// Provider is implemented by every sign-in strategy.
type Provider interface {
	SignIn(ctx context.Context) SignInResult
	SignOut(ctx context.Context) SignOutResult
}

type ProviderUser struct {
	ID         string `json:"id"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	Picture    string `json:"picture,omitempty"`
	GivenName  string `json:"givenName,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
}

type SignInResult struct {
	Success     bool
	IDToken     string
	AccessToken string
	User        *ProviderUser
	Error       string
	Cancelled   bool
}

type SignOutResult struct {
	Success bool
	Error   string
}

func failed(message string) SignInResult {
	return SignInResult{Error: message}
}

func cancelled() SignInResult {
	return SignInResult{Error: MsgCancelled, Cancelled: true}
}
