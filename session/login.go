package session

import (
	"context"
	"strings"

	"github.com/okanassist/okanassist-auth/credentials"
	"github.com/okanassist/okanassist-auth/gateway"
	"github.com/okanassist/okanassist-auth/internal/utils"
	"github.com/okanassist/okanassist-auth/users"
	"github.com/rs/zerolog/log"
)

// RegisterInput is the sign-up form. ConfirmPassword is only checked when set.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
	Currency        string
	Language        string
	Timezone        string
}

func (m *Manager) Login(ctx context.Context, email, password string) Result {
	release, res, ok := m.acquire(ctx)
	if !ok {
		return res
	}
	defer release()
	defer m.settle()

	email = strings.TrimSpace(email)
	if err := users.ValidateLogin(email, password); err != nil {
		return invalidField(err)
	}

	resp, err := m.gateway.Login(ctx, email, password)
	if err != nil {
		log.Err(err).Msg("session login failed")
		return failed(errorMessage(err, MsgLoginFailed))
	}
	return m.establish(ctx, resp, MsgLoginSuccess, MsgLoginFailed)
}

// LoginWithProvider signs in with the identity provider and exchanges its ID token for a
// session. A cancelled sign-in leaves the session untouched.
func (m *Manager) LoginWithProvider(ctx context.Context) Result {
	release, res, ok := m.acquire(ctx)
	if !ok {
		return res
	}
	defer release()

	if m.provider == nil {
		m.settle()
		return failed(MsgProviderMissing)
	}

	signIn := m.provider.SignIn(ctx)
	if signIn.Cancelled {
		return Result{Message: MsgCancelled, Cancelled: true}
	}
	defer m.settle()

	switch {
	case !signIn.Success:
		log.Warn().Str("error", signIn.Error).Msg("provider sign-in failed")
		return failed(utils.FirstNonEmpty(signIn.Error, MsgProviderFailed))
	case signIn.IDToken == "":
		return failed(MsgNoProviderToken)
	}

	resp, err := m.gateway.LoginWithGoogle(ctx, signIn.IDToken)
	if err != nil {
		log.Err(err).Msg("session google login failed")
		return failed(errorMessage(err, MsgGoogleLoginFailed))
	}
	return m.establish(ctx, resp, MsgGoogleLoginSuccess, MsgGoogleLoginFailed)
}

// Register creates an account. When the API asks for email verification the session stays
// signed out and the verification token is handed back to the caller.
func (m *Manager) Register(ctx context.Context, input RegisterInput) Result {
	release, res, ok := m.acquire(ctx)
	if !ok {
		return res
	}
	defer release()
	defer m.settle()

	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := users.ValidateRegistration(input.Name, input.Email, input.Password, input.ConfirmPassword); err != nil {
		return invalidField(err)
	}

	resp, err := m.gateway.Register(ctx, gateway.RegisterRequest{
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
		Phone:    input.Phone,
		Currency: input.Currency,
		Language: input.Language,
		Timezone: input.Timezone,
	})
	if err != nil {
		log.Err(err).Msg("session register failed")
		return failed(errorMessage(err, MsgRegisterFailed))
	}
	if resp != nil && resp.Success && resp.RequiresVerification {
		return Result{
			Success:              true,
			Message:              utils.FirstNonEmpty(resp.Message, MsgVerifyPending),
			RequiresVerification: true,
			VerificationToken:    resp.VerificationToken,
		}
	}
	return m.establish(ctx, resp, MsgRegisterSuccess, MsgRegisterFailed)
}

func (m *Manager) VerifyEmail(ctx context.Context, verificationToken string) Result {
	release, res, ok := m.acquire(ctx)
	if !ok {
		return res
	}
	defer release()
	defer m.settle()

	verificationToken = strings.TrimSpace(verificationToken)
	if verificationToken == "" {
		return Result{Message: MsgTokenRequired, Field: "verificationToken"}
	}

	resp, err := m.gateway.VerifyEmail(ctx, verificationToken)
	if err != nil {
		log.Err(err).Msg("session verify email failed")
		return failed(errorMessage(err, MsgVerifyFailed))
	}
	return m.establish(ctx, resp, MsgVerifySuccess, MsgVerifyFailed)
}

// establish turns a successful auth response into an authenticated session. The session is
// only adopted once the store holds it.
func (m *Manager) establish(ctx context.Context, resp *gateway.AuthResponse, success, fallback string) Result {
	if resp == nil || !resp.Success {
		message := fallback
		if resp != nil {
			message = utils.FirstNonEmpty(resp.Message, fallback)
		}
		return failed(message)
	}
	if resp.User == nil || resp.AccessToken() == "" {
		log.Warn().Bool("has_user", resp.User != nil).Msg("auth response without a session")
		return failed(fallback)
	}

	profile := *resp.User
	tokens := credentials.Tokens{AccessToken: resp.AccessToken(), RefreshToken: resp.RefreshToken()}
	if err := m.store.Save(ctx, profile, tokens); err != nil {
		log.Err(err).Msg("session: saving credentials")
		return failed(MsgSaveFailed)
	}

	m.authenticate(profile, tokens)
	log.Info().Str("user_id", profile.ID).Msg("session established")
	return succeeded(success)
}
