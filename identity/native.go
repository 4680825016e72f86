package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Error codes reported by the native Google sign-in SDK.
const (
	CodeSignInCancelled          = "SIGN_IN_CANCELLED"
	CodeInProgress               = "IN_PROGRESS"
	CodePlayServicesNotAvailable = "PLAY_SERVICES_NOT_AVAILABLE"
)

// NativeError is an SDK failure carrying one of the Code constants.
type NativeError struct {
	Code    string
	Message string
}

func (e *NativeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type NativeConfig struct {
	WebClientID   string
	Scopes        []string
	OfflineAccess bool
}

type NativeAccount struct {
	IDToken        string
	ServerAuthCode string
	User           ProviderUser
}

// NativeSDK is the platform sign-in SDK.
type NativeSDK interface {
	Configure(cfg NativeConfig) error
	HasPlayServices(ctx context.Context) error
	SignIn(ctx context.Context) (NativeAccount, error)
	SignOut(ctx context.Context) error
}

// SilentSDK is implemented by SDKs that can restore an earlier sign-in without showing UI.
type SilentSDK interface {
	SignInSilently(ctx context.Context) (NativeAccount, error)
	IsSignedIn(ctx context.Context) (bool, error)
}

var _ Provider = (*NativeBridge)(nil)

// NativeBridge adapts a NativeSDK to Provider.
type NativeBridge struct {
	sdk        NativeSDK
	configured bool
}

// NewNativeBridge configures the SDK once. A missing client id or a rejected configuration leaves
// the bridge unconfigured and every sign-in fails.
func NewNativeBridge(sdk NativeSDK, cfg NativeConfig) *NativeBridge {
	b := &NativeBridge{sdk: sdk}
	if sdk == nil || strings.TrimSpace(cfg.WebClientID) == "" {
		return b
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{"profile", "email"}
	}
	if err := sdk.Configure(cfg); err != nil {
		log.Err(err).Msg("Google sign-in configuration rejected")
		return b
	}
	b.configured = true
	return b
}

func (b *NativeBridge) SignIn(ctx context.Context) SignInResult {
	if !b.configured {
		return failed(MsgNotConfigured)
	}

	if err := b.sdk.HasPlayServices(ctx); err != nil {
		return nativeFailure(err)
	}

	account, err := b.sdk.SignIn(ctx)
	if err != nil {
		return nativeFailure(err)
	}
	if account.IDToken == "" {
		return failed(MsgNoIDToken)
	}

	return SignInResult{
		Success:     true,
		IDToken:     account.IDToken,
		AccessToken: account.ServerAuthCode,
		User:        accountUser(account),
	}
}

// CurrentUser returns the user of an earlier Google sign-in, restored without UI. It is nil
// when nobody is signed in or the SDK cannot sign in silently.
func (b *NativeBridge) CurrentUser(ctx context.Context) *ProviderUser {
	silent, ok := b.sdk.(SilentSDK)
	if !b.configured || !ok {
		return nil
	}
	account, err := silent.SignInSilently(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("silent Google sign-in failed")
		return nil
	}
	return accountUser(account)
}

func (b *NativeBridge) IsSignedIn(ctx context.Context) bool {
	silent, ok := b.sdk.(SilentSDK)
	if !b.configured || !ok {
		return false
	}
	signedIn, err := silent.IsSignedIn(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("Google sign-in status unavailable")
		return false
	}
	return signedIn
}

// accountUser prefers the SDK's user and falls back to the ID token claims.
func accountUser(account NativeAccount) *ProviderUser {
	user := account.User
	if user.ID == "" && account.IDToken != "" {
		if claims, err := DecodeIDTokenPayload(account.IDToken); err == nil {
			user = *claims.User()
		}
	}
	return &user
}

func (b *NativeBridge) SignOut(ctx context.Context) SignOutResult {
	if b.sdk == nil {
		return SignOutResult{Success: true}
	}
	if err := b.sdk.SignOut(ctx); err != nil {
		log.Err(err).Msg("Google sign-out failed")
		return SignOutResult{Error: err.Error()}
	}
	return SignOutResult{Success: true}
}

func nativeFailure(err error) SignInResult {
	var nerr *NativeError
	if !errors.As(err, &nerr) {
		log.Err(err).Msg("Google sign-in failed")
		return failed(MsgSignInFailed)
	}

	switch nerr.Code {
	case CodeSignInCancelled:
		return cancelled()
	case CodeInProgress:
		return failed(MsgInProgress)
	case CodePlayServicesNotAvailable:
		return failed(MsgPlayServices)
	default:
		log.Err(err).Str("code", nerr.Code).Msg("Google sign-in failed")
		return failed(MsgSignInFailed)
	}
}
