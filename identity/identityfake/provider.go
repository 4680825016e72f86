// Package identityfake is a scripted identity.Provider for tests.
package identityfake

import (
	"context"
	"sync"

	"github.com/okanassist/okanassist-auth/identity"
)

var _ identity.Provider = (*Provider)(nil)

// Provider returns queued sign-in results in order, then repeats the last one.
type Provider struct {
	signIns      []identity.SignInResult
	signOut      identity.SignOutResult
	signInCalls  int
	signOutCalls int
	lock         sync.Mutex
}

func New(results ...identity.SignInResult) *Provider {
	return &Provider{signIns: results, signOut: identity.SignOutResult{Success: true}}
}

// Succeeding returns a provider that always signs in with idToken.
func Succeeding(idToken string, user identity.ProviderUser) *Provider {
	return New(identity.SignInResult{Success: true, IDToken: idToken, User: &user})
}

func (p *Provider) QueueSignIn(result identity.SignInResult) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.signIns = append(p.signIns, result)
}

func (p *Provider) SetSignOut(result identity.SignOutResult) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.signOut = result
}

func (p *Provider) SignIn(ctx context.Context) identity.SignInResult {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.signInCalls++

	if err := ctx.Err(); err != nil {
		return identity.SignInResult{Error: err.Error()}
	}
	if len(p.signIns) == 0 {
		return identity.SignInResult{Error: identity.MsgSignInFailed}
	}
	result := p.signIns[0]
	if len(p.signIns) > 1 {
		p.signIns = p.signIns[1:]
	}
	return result
}

func (p *Provider) SignOut(context.Context) identity.SignOutResult {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.signOutCalls++
	return p.signOut
}

func (p *Provider) SignInCalls() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.signInCalls
}

func (p *Provider) SignOutCalls() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.signOutCalls
}
