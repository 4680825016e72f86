package session

import (
	"context"

	"github.com/okanassist/okanassist-auth/gateway"
	autherrors "github.com/okanassist/okanassist-auth/internal/errors"
	"github.com/okanassist/okanassist-auth/users"
)

// Messages returned to the UI.
const (
	MsgLoginSuccess       = "Login successful!"
	MsgRegisterSuccess    = "Registration successful!"
	MsgVerifySuccess      = "Email verified successfully!"
	MsgGoogleLoginSuccess = "Google login successful!"
	MsgProfileUpdated     = "Profile updated successfully!"
	MsgLoggedOut          = "Logged out successfully"
	MsgTokenRefreshed     = "Token refreshed"
	MsgNotAuthenticated   = "Not authenticated"
	MsgBusy               = "Another session operation is in progress"
	MsgCancelled          = "Sign-in was cancelled"
	MsgProviderMissing    = "Google sign-in is not configured"
	MsgLoginFailed        = "Login failed"
	MsgGoogleLoginFailed  = "Google login failed"
	MsgRegisterFailed     = "Registration failed"
	MsgVerifyFailed       = "Email verification failed"
	MsgVerifyPending      = "Please check your email to verify your account"
	MsgProfileFailed      = "Profile update failed"
	MsgNothingToUpdate    = "No changes to update"
	MsgTokenRequired      = "Verification token is required"
	MsgNoRefreshToken     = "No refresh token available"
	MsgRefreshFailed      = "Token refresh failed"
	MsgSaveFailed         = "Failed to save session"
	MsgClearFailed        = "Failed to clear stored credentials"
	MsgProviderFailed     = "Google sign-in failed"
	MsgNoProviderToken    = "No ID token received from Google"
	MsgRequestCancelled   = "Request cancelled"
)

// Result is the outcome of a session operation. Failures are carried here, never as errors.
type Result struct {
	Success              bool   `json:"success"`
	Message              string `json:"message,omitempty"`
	Field                string `json:"field,omitempty"`
	Cancelled            bool   `json:"cancelled,omitempty"`
	RequiresVerification bool   `json:"requiresVerification,omitempty"`
	VerificationToken    string `json:"verificationToken,omitempty"`
	Busy                 bool   `json:"busy,omitempty"`
}

func succeeded(message string) Result {
	return Result{Success: true, Message: message}
}

func failed(message string) Result {
	return Result{Message: message}
}

func invalidField(err error) Result {
	var verr *users.ValidationError
	if autherrors.As(err, &verr) {
		return Result{Message: verr.Message, Field: verr.Field}
	}
	return failed(err.Error())
}

// errorMessage picks the text a user should see for err.
func errorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var gerr *gateway.Error
	if autherrors.As(err, &gerr) && gerr.Message != "" {
		return gerr.Message
	}
	if msg := autherrors.PublicMessage(err, ""); msg != "" {
		return msg
	}
	switch {
	case autherrors.Is(err, context.DeadlineExceeded):
		return gateway.ErrTimeout.Error()
	case autherrors.Is(err, context.Canceled):
		return MsgRequestCancelled
	}
	return err.Error()
}
