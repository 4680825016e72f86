package session

import (
	"context"

	"github.com/okanassist/okanassist-auth/credentials"
	"github.com/rs/zerolog/log"
)

// Rehydrate restores a stored session on cold start. The stored access token is checked
// against the auth API; anything short of a confirmed profile leaves the client signed out
// with an empty store.
func (m *Manager) Rehydrate(ctx context.Context) State {
	release, _, ok := m.acquire(ctx)
	if !ok {
		return m.State()
	}
	defer release()

	record, err := m.store.Load(ctx)
	if err != nil {
		log.Err(err).Msg("session rehydrate: reading stored credentials")
		m.discard(ctx)
		return StateUnauthenticated
	}
	if !record.Complete() {
		if !record.IsEmpty() {
			log.Warn().Msg("session rehydrate: incomplete stored credentials")
			m.discard(ctx)
			return StateUnauthenticated
		}
		m.unauthenticate()
		return StateUnauthenticated
	}

	profileCtx := ctx
	if m.rehydrateTimeout > 0 {
		var cancel context.CancelFunc
		profileCtx, cancel = context.WithTimeout(ctx, m.rehydrateTimeout)
		defer cancel()
	}
	resp, err := m.gateway.GetProfile(profileCtx, record.AccessToken)
	if err != nil {
		log.Err(err).Msg("session rehydrate: stored token rejected")
		m.discard(ctx)
		return StateUnauthenticated
	}
	if resp == nil {
		log.Warn().Msg("session rehydrate: empty profile response")
		m.discard(ctx)
		return StateUnauthenticated
	}

	profile := *record.User
	if resp.User != nil && !resp.User.IsZero() {
		profile = *resp.User
		if err := m.store.SaveUser(ctx, profile); err != nil {
			log.Err(err).Msg("session rehydrate: saving refreshed profile")
		}
	}

	m.authenticate(profile, credentials.Tokens{
		AccessToken:  record.AccessToken,
		RefreshToken: record.RefreshToken,
	})
	log.Info().Str("user_id", profile.ID).Msg("session restored")
	return StateAuthenticated
}

// discard clears the store and the in-memory session. Store failures are logged only.
func (m *Manager) discard(ctx context.Context) {
	if err := m.clearStore(ctx); err != nil {
		log.Err(err).Msg("session: clearing stored credentials")
	}
	m.unauthenticate()
}
