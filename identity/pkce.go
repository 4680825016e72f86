package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/okanassist/okanassist-auth/internal/utils"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	GoogleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenURL = "https://oauth2.googleapis.com/token"
)

var DefaultScopes = []string{oidc.ScopeOpenID, "profile", "email"}

// ErrBrowserCancelled is returned by a Browser when the user closed the consent page.
var ErrBrowserCancelled = errors.New("browser sign-in cancelled")

// CallbackParams are the query parameters delivered to the redirect URL.
type CallbackParams struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// Browser shows the consent page and waits for the redirect.
type Browser interface {
	Authorize(ctx context.Context, authURL string) (CallbackParams, error)
}

type PKCEConfig struct {
	ClientID     string
	ClientSecret string // optional, installed apps have none
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	Scopes       []string
}

var _ Provider = (*PKCEBridge)(nil)

// PKCEBridge runs the authorization-code flow with a S256 code challenge.
type PKCEBridge struct {
	oauth      *oauth2.Config
	browser    Browser
	verifier   *oidc.IDTokenVerifier
	httpClient *http.Client
}

type PKCEOption func(*PKCEBridge)

// WithIDTokenVerifier checks the ID token signature and audience before accepting it.
func WithIDTokenVerifier(verifier *oidc.IDTokenVerifier) PKCEOption {
	return func(b *PKCEBridge) {
		b.verifier = verifier
	}
}

// WithExchangeClient sets the HTTP client used for the token exchange.
func WithExchangeClient(client *http.Client) PKCEOption {
	return func(b *PKCEBridge) {
		b.httpClient = client
	}
}

func NewPKCEBridge(cfg PKCEConfig, browser Browser, options ...PKCEOption) *PKCEBridge {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	b := &PKCEBridge{browser: browser}
	if strings.TrimSpace(cfg.ClientID) != "" {
		b.oauth = &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   utils.FirstNonEmpty(cfg.AuthURL, GoogleAuthURL),
				TokenURL:  utils.FirstNonEmpty(cfg.TokenURL, GoogleTokenURL),
				AuthStyle: oauth2.AuthStyleInParams,
			},
		}
	}

	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *PKCEBridge) SignIn(ctx context.Context) SignInResult {
	if b.oauth == nil || b.browser == nil {
		return failed(MsgNotConfigured)
	}

	codeVerifier := oauth2.GenerateVerifier()
	state := oauth2.GenerateVerifier()
	authURL := b.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(codeVerifier),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)

	params, err := b.browser.Authorize(ctx, authURL)
	if err != nil {
		switch {
		case errors.Is(err, ErrBrowserCancelled) || errors.Is(err, context.Canceled):
			return cancelled()
		case errors.Is(err, context.DeadlineExceeded):
			return failed(MsgTimedOut)
		}
		log.Err(err).Msg("Google authorization failed")
		return failed(err.Error())
	}

	switch {
	case params.Error == "access_denied":
		return cancelled()
	case params.Error != "":
		return failed(utils.FirstNonEmpty(params.ErrorDescription, MsgAuthFailed))
	case params.State != state:
		return failed(MsgStateMismatch)
	case params.Code == "":
		return failed(MsgNoCode)
	}

	if b.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	}
	tok, err := b.oauth.Exchange(ctx, params.Code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		log.Err(err).Msg("Google token exchange failed")
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.ErrorDescription != "" {
			return failed(rerr.ErrorDescription)
		}
		return failed(MsgTokenExchange)
	}

	rawIDToken, _ := tok.Extra("id_token").(string)
	if rawIDToken == "" {
		return failed(MsgTokenExchange)
	}

	if b.verifier != nil {
		if _, err := b.verifier.Verify(ctx, rawIDToken); err != nil {
			log.Err(err).Msg("Google ID token rejected")
			return failed(MsgIDTokenUnverified)
		}
	}

	claims, err := DecodeIDTokenPayload(rawIDToken)
	if err != nil {
		log.Warn().Err(err).Msg("Google ID token payload unreadable")
	}

	return SignInResult{
		Success:     true,
		IDToken:     rawIDToken,
		AccessToken: tok.AccessToken,
		User:        claims.User(),
	}
}

// SignOut has nothing to revoke locally; the provider session lives in the browser.
func (b *PKCEBridge) SignOut(context.Context) SignOutResult {
	return SignOutResult{Success: true}
}
