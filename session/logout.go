package session

import (
	"context"

	"github.com/okanassist/okanassist-auth/internal/utils"
	"github.com/rs/zerolog/log"
)

// Logout ends the session everywhere it can. Remote revocation and provider sign-out are best
// effort; the local session is always dropped. Logging out twice is harmless.
func (m *Manager) Logout(ctx context.Context) Result {
	release, res, ok := m.acquire(ctx)
	if !ok {
		return res
	}
	defer release()

	return m.logout(ctx)
}

// logout must be called with the operation slot held.
func (m *Manager) logout(ctx context.Context) Result {
	_, tokens := m.current()

	if tokens.AccessToken != "" {
		if _, err := m.gateway.Logout(ctx, tokens.AccessToken); err != nil {
			log.Err(err).Msg("session logout: remote revocation failed")
		}
	}
	if m.provider != nil {
		if signOut := m.provider.SignOut(ctx); !signOut.Success {
			log.Warn().Str("error", signOut.Error).Msg("session logout: provider sign-out failed")
		}
	}

	err := m.clearStore(ctx)
	m.unauthenticate()
	if err != nil {
		log.Err(err).Msg("session logout: clearing stored credentials")
		return failed(MsgClearFailed)
	}
	log.Info().Msg("session ended")
	return succeeded(MsgLoggedOut)
}

// RefreshAccessToken trades the refresh token for a new access token. Any failure ends the
// session, because the client can no longer prove who it is.
func (m *Manager) RefreshAccessToken(ctx context.Context) Result {
	release, res, ok := m.acquire(ctx)
	if !ok {
		return res
	}
	defer release()

	_, tokens := m.current()
	if tokens.RefreshToken == "" {
		return m.abandon(ctx, MsgNoRefreshToken)
	}

	resp, err := m.gateway.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		log.Err(err).Msg("session refresh failed")
		return m.abandon(ctx, errorMessage(err, MsgRefreshFailed))
	}
	if resp == nil || !resp.Success || resp.AccessToken() == "" {
		message := MsgRefreshFailed
		if resp != nil {
			message = utils.FirstNonEmpty(resp.Message, MsgRefreshFailed)
		}
		return m.abandon(ctx, message)
	}

	accessToken := resp.AccessToken()
	if err := m.store.SaveAccessToken(ctx, accessToken); err != nil {
		log.Err(err).Msg("session refresh: saving access token")
		return m.abandon(ctx, MsgSaveFailed)
	}
	m.update(func() { m.accessToken = accessToken })
	log.Debug().Msg("access token refreshed")
	return succeeded(MsgTokenRefreshed)
}

// abandon logs out after a failed refresh and reports the refresh failure.
func (m *Manager) abandon(ctx context.Context, message string) Result {
	m.logout(ctx)
	return failed(message)
}
