package gatewayfake

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/okanassist/okanassist-auth/identity"
	"github.com/pkg/errors"
)

// GoogleIdentity is what the API trusts from a Google ID token.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

// GoogleVerifier turns a Google ID token into an identity, or rejects it.
type GoogleVerifier func(ctx context.Context, idToken string) (GoogleIdentity, error)

// UnverifiedGoogleIdentity reads the token payload without checking its signature. Dev use only.
func UnverifiedGoogleIdentity(_ context.Context, idToken string) (GoogleIdentity, error) {
	claims, err := identity.DecodeIDTokenPayload(idToken)
	if err != nil {
		return GoogleIdentity{}, errors.Wrap(err, "UnverifiedGoogleIdentity")
	}
	return GoogleIdentity{Subject: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

// OIDCGoogleVerifier checks signature, issuer, audience and expiry with go-oidc.
func OIDCGoogleVerifier(verifier *oidc.IDTokenVerifier) GoogleVerifier {
	return func(ctx context.Context, idToken string) (GoogleIdentity, error) {
		token, err := verifier.Verify(ctx, idToken)
		if err != nil {
			return GoogleIdentity{}, errors.Wrap(err, "OIDCGoogleVerifier Verify")
		}
		var claims struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := token.Claims(&claims); err != nil {
			return GoogleIdentity{}, errors.Wrap(err, "OIDCGoogleVerifier Claims")
		}
		return GoogleIdentity{Subject: token.Subject, Email: claims.Email, Name: claims.Name}, nil
	}
}
