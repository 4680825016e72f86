package main

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/okanassist/okanassist-auth/credentials"
	"github.com/okanassist/okanassist-auth/credentials/rediskv"
	"github.com/okanassist/okanassist-auth/credentials/sqlitekv"
	"github.com/okanassist/okanassist-auth/gateway"
	"github.com/okanassist/okanassist-auth/identity"
	"github.com/okanassist/okanassist-auth/internal/config"
	"github.com/okanassist/okanassist-auth/session"
	"github.com/rs/zerolog/log"
)

// app is one CLI invocation's wiring.
type app struct {
	manager *session.Manager
	close   func() error
}

func newApp(ctx context.Context, c config.Config, withVerifier bool) (*app, error) {
	kv, closeKV, err := openStore(ctx, c)
	if err != nil {
		return nil, err
	}
	store, err := credentials.New(kv)
	if err != nil {
		_ = closeKV()
		return nil, err
	}

	client := gateway.NewClient(c.GetAPIBaseURL(),
		gateway.WithTimeout(c.GetAPITimeout()),
		gateway.WithUserAgent(c.GetAppName()+"-cli"),
	)

	provider, err := newProvider(ctx, c, withVerifier)
	if err != nil {
		_ = closeKV()
		return nil, err
	}

	manager, err := session.New(store, client, provider, session.WithPolicy(session.PolicyReject))
	if err != nil {
		_ = closeKV()
		return nil, err
	}
	return &app{manager: manager, close: closeKV}, nil
}

func openStore(ctx context.Context, c config.StorageConfig) (credentials.KV, func() error, error) {
	switch c.GetStoreDriver() {
	case config.StoreRedis:
		client, err := rediskv.Dial(ctx, rediskv.RedisConfig{
			Addr:     c.GetRedisAddr(),
			Password: c.GetRedisPassword(),
			DB:       c.GetRedisDB(),
		})
		if err != nil {
			return nil, nil, err
		}
		return rediskv.New(client, c.GetRedisPrefix()), client.Close, nil
	case config.StoreMemory:
		db, err := sqlitekv.Open(sqlitekv.MemoryPath)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		db, err := sqlitekv.Open(c.GetStorePath())
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("path", c.GetStorePath()).Msg("credential store opened")
		return db, db.Close, nil
	}
}

// newProvider builds the PKCE sign-in bridge. Without a client id the bridge reports
// that Google sign-in is not configured.
func newProvider(ctx context.Context, c config.GoogleConfig, withVerifier bool) (identity.Provider, error) {
	var options []identity.PKCEOption
	if withVerifier && c.GetGoogleVerifyIDToken() && c.GetGoogleClientID() != "" {
		provider, err := oidc.NewProvider(ctx, c.GetGoogleIssuer())
		if err != nil {
			return nil, fmt.Errorf("oidc.NewProvider: %w", err)
		}
		options = append(options, identity.WithIDTokenVerifier(
			provider.Verifier(&oidc.Config{ClientID: c.GetGoogleClientID()}),
		))
	}

	return identity.NewPKCEBridge(identity.PKCEConfig{
		ClientID:     c.GetGoogleClientID(),
		ClientSecret: c.GetGoogleClientSecret(),
		RedirectURL:  c.GetGoogleRedirectURL(),
		Scopes:       c.GetGoogleScopes(),
	}, identity.NewLoopbackBrowser(c.GetGoogleRedirectURL(), identity.LogOpener), options...), nil
}
