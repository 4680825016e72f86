package session

import (
	"context"

	"github.com/okanassist/okanassist-auth/internal/utils"
	"github.com/okanassist/okanassist-auth/users"
	"github.com/rs/zerolog/log"
)

// UpdateProfile sends a partial update and merges it into the signed-in user.
func (m *Manager) UpdateProfile(ctx context.Context, updates users.ProfileUpdate) Result {
	release, res, ok := m.acquire(ctx)
	if !ok {
		return res
	}
	defer release()
	defer m.settle()

	user, tokens := m.current()
	if user == nil || tokens.AccessToken == "" {
		return failed(MsgNotAuthenticated)
	}
	if updates.IsEmpty() {
		return failed(MsgNothingToUpdate)
	}
	if updates.Name != nil {
		if err := users.ValidateName(*updates.Name); err != nil {
			return invalidField(err)
		}
	}

	resp, err := m.gateway.UpdateProfile(ctx, tokens.AccessToken, updates)
	if err != nil {
		log.Err(err).Msg("session profile update failed")
		return failed(errorMessage(err, MsgProfileFailed))
	}
	if resp == nil || !resp.Success {
		message := MsgProfileFailed
		if resp != nil {
			message = utils.FirstNonEmpty(resp.Message, MsgProfileFailed)
		}
		return failed(message)
	}

	merged := user.Merge(updates)
	if err := m.store.SaveUser(ctx, merged); err != nil {
		log.Err(err).Msg("session profile update: saving profile")
		return failed(MsgSaveFailed)
	}
	m.update(func() { m.user = &merged })
	return succeeded(MsgProfileUpdated)
}
