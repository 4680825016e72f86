package session_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okanassist/okanassist-auth/credentials"
	"github.com/okanassist/okanassist-auth/credentials/kvfake"
	"github.com/okanassist/okanassist-auth/gateway"
	"github.com/okanassist/okanassist-auth/gateway/gatewayfake"
	"github.com/okanassist/okanassist-auth/identity"
	"github.com/okanassist/okanassist-auth/identity/identityfake"
	"github.com/okanassist/okanassist-auth/session"
	"github.com/okanassist/okanassist-auth/users"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "ada@example.com"
	testPassword = "correct-horse"
	testName     = "Ada Lovelace"
)

type fixture struct {
	kv       *kvfake.Store
	store    *credentials.Store
	gw       *gatewayfake.Gateway
	provider *identityfake.Provider
	manager  *session.Manager
}

func newFixture(t *testing.T, gwOptions []gatewayfake.Option, options ...session.Option) *fixture {
	t.Helper()

	gw, err := gatewayfake.New(gwOptions...)
	require.NoError(t, err)

	f := &fixture{kv: kvfake.New(), gw: gw, provider: identityfake.New()}
	f.store, err = credentials.New(f.kv)
	require.NoError(t, err)
	f.manager, err = session.New(f.store, gw, f.provider, options...)
	require.NoError(t, err)
	return f
}

// seedUser registers a verified account directly with the fake API.
func (f *fixture) seedUser(t *testing.T) {
	t.Helper()
	_, err := f.gw.Register(context.Background(), gateway.RegisterRequest{
		Email:    testEmail,
		Password: testPassword,
		Name:     testName,
	})
	require.NoError(t, err)
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	f.seedUser(t)
	res := f.manager.Login(context.Background(), testEmail, testPassword)
	require.True(t, res.Success, res.Message)
}

// requireConsistent checks that the reported state matches the held credentials and that no
// operation is left running.
func requireConsistent(t *testing.T, m *session.Manager) {
	t.Helper()
	snap := m.Snapshot()
	require.False(t, snap.Loading)
	if snap.State == session.StateAuthenticated {
		require.True(t, snap.IsAuthenticated())
	} else {
		require.False(t, snap.IsAuthenticated())
		require.Nil(t, snap.User)
		require.Empty(t, snap.AccessToken)
		require.Empty(t, snap.RefreshToken)
	}
}

func fakeIDToken(t *testing.T, subject, email string) string {
	t.Helper()
	payload, err := json.Marshal(identity.Claims{
		Issuer:  "https://accounts.google.com",
		Subject: subject,
		Email:   email,
		Name:    "Grace Hopper",
	})
	require.NoError(t, err)
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"RS256"}`)) + "." + enc.EncodeToString(payload) + ".sig"
}

func TestNew_RequiresStoreAndGateway(t *testing.T) {
	gw, err := gatewayfake.New()
	require.NoError(t, err)
	store, err := credentials.New(kvfake.New())
	require.NoError(t, err)

	_, err = session.New(nil, gw, nil)
	require.Error(t, err)
	_, err = session.New(store, nil, nil)
	require.Error(t, err)

	m, err := session.New(store, gw, nil)
	require.NoError(t, err)
	require.Equal(t, session.StateUnknown, m.State())
	require.False(t, m.IsAuthenticated())
}

func TestRehydrate(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing stored", func(t *testing.T) {
		f := newFixture(t, nil)
		require.Equal(t, session.StateUnauthenticated, f.manager.Rehydrate(ctx))
		require.Zero(t, f.gw.TotalCalls())
		requireConsistent(t, f.manager)
	})

	t.Run("restores a stored session", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)
		before := f.manager.Snapshot()

		restored, err := session.New(f.store, f.gw, nil)
		require.NoError(t, err)
		require.Equal(t, session.StateAuthenticated, restored.Rehydrate(ctx))

		after := restored.Snapshot()
		require.Equal(t, before.User, after.User)
		require.Equal(t, before.AccessToken, after.AccessToken)
		require.Equal(t, before.RefreshToken, after.RefreshToken)
		require.Equal(t, 1, f.gw.Calls(gatewayfake.MethodGetProfile))
		requireConsistent(t, restored)
	})

	t.Run("persists the fetched profile", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)
		stale := users.Profile{ID: f.manager.Snapshot().User.ID, Email: testEmail, Name: "Old Name"}
		require.NoError(t, f.store.SaveUser(ctx, stale))

		require.Equal(t, session.StateAuthenticated, f.manager.Rehydrate(ctx))
		require.Equal(t, testName, f.manager.Snapshot().User.Name)

		record, err := f.store.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, testName, record.User.Name)
	})

	t.Run("rejected token clears the store", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.store.Save(ctx, users.Profile{ID: "u1", Email: testEmail}, credentials.Tokens{
			AccessToken:  "not-a-token",
			RefreshToken: "r1",
		}))

		require.Equal(t, session.StateUnauthenticated, f.manager.Rehydrate(ctx))
		require.Zero(t, f.kv.Len())
		requireConsistent(t, f.manager)
	})

	t.Run("transport error clears the store", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)
		f.gw.FailNext(gatewayfake.MethodGetProfile, &gateway.Error{Kind: gateway.KindTransport, Message: "Network request failed"})

		require.Equal(t, session.StateUnauthenticated, f.manager.Rehydrate(ctx))
		require.Zero(t, f.kv.Len())
		requireConsistent(t, f.manager)
	})

	t.Run("corrupt record clears the store", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.kv.MultiSet(ctx, map[string]string{
			credentials.KeyUserData:  "{not json",
			credentials.KeyAuthToken: "t1",
		}))

		require.Equal(t, session.StateUnauthenticated, f.manager.Rehydrate(ctx))
		require.Zero(t, f.kv.Len())
		require.Zero(t, f.gw.TotalCalls())
	})

	t.Run("store read error", func(t *testing.T) {
		f := newFixture(t, nil)
		f.kv.FailNext(kvfake.OpMultiGet, errors.New("disk on fire"))

		require.Equal(t, session.StateUnauthenticated, f.manager.Rehydrate(ctx))
		require.Zero(t, f.gw.TotalCalls())
		requireConsistent(t, f.manager)
	})

	t.Run("partial record is discarded", func(t *testing.T) {
		f := newFixture(t, nil)
		require.NoError(t, f.kv.MultiSet(ctx, map[string]string{credentials.KeyRefreshToken: "r1"}))

		require.Equal(t, session.StateUnauthenticated, f.manager.Rehydrate(ctx))
		require.Zero(t, f.kv.Len())
		require.Zero(t, f.gw.TotalCalls())
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("validation runs before any request", func(t *testing.T) {
		tests := []struct {
			name     string
			email    string
			password string
			field    string
		}{
			{name: "missing email", email: "", password: testPassword, field: "email"},
			{name: "malformed email", email: "ada@example", password: testPassword, field: "email"},
			{name: "missing password", email: testEmail, password: "", field: "password"},
			{name: "short password", email: testEmail, password: "12345", field: "password"},
		}
		f := newFixture(t, nil)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				res := f.manager.Login(ctx, tt.email, tt.password)
				require.False(t, res.Success)
				require.Equal(t, tt.field, res.Field)
				require.NotEmpty(t, res.Message)
			})
		}
		require.Zero(t, f.gw.TotalCalls())
		require.Equal(t, session.StateUnauthenticated, f.manager.State())
		requireConsistent(t, f.manager)
	})

	t.Run("success persists the session", func(t *testing.T) {
		f := newFixture(t, nil)
		f.seedUser(t)

		res := f.manager.Login(ctx, "  "+testEmail+" ", testPassword)
		require.Equal(t, session.Result{Success: true, Message: session.MsgLoginSuccess}, res)

		snap := f.manager.Snapshot()
		require.Equal(t, session.StateAuthenticated, snap.State)
		require.Equal(t, testEmail, snap.User.Email)
		require.NotEmpty(t, snap.RefreshToken)

		stored, ok := f.kv.Get(credentials.KeyAuthToken)
		require.True(t, ok)
		require.Equal(t, snap.AccessToken, stored)
		requireConsistent(t, f.manager)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		f := newFixture(t, nil)
		f.seedUser(t)

		res := f.manager.Login(ctx, testEmail, "wrong-password")
		require.False(t, res.Success)
		require.Equal(t, "Invalid email or password", res.Message)
		require.Zero(t, f.kv.Len())
		requireConsistent(t, f.manager)
	})

	t.Run("timeout message", func(t *testing.T) {
		f := newFixture(t, nil)
		f.gw.FailNext(gatewayfake.MethodLogin, &gateway.Error{Kind: gateway.KindTimeout, Message: "Request timeout"})

		res := f.manager.Login(ctx, testEmail, testPassword)
		require.False(t, res.Success)
		require.Equal(t, "Request timeout", res.Message)
	})

	t.Run("store failure keeps the client signed out", func(t *testing.T) {
		f := newFixture(t, nil)
		f.seedUser(t)
		f.kv.FailNext(kvfake.OpMultiSet, errors.New("read-only"))

		res := f.manager.Login(ctx, testEmail, testPassword)
		require.False(t, res.Success)
		require.Equal(t, session.MsgSaveFailed, res.Message)
		require.False(t, f.manager.IsAuthenticated())
		requireConsistent(t, f.manager)
	})
}

func TestLoginWithProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("no provider", func(t *testing.T) {
		gw, err := gatewayfake.New()
		require.NoError(t, err)
		store, err := credentials.New(kvfake.New())
		require.NoError(t, err)
		m, err := session.New(store, gw, nil)
		require.NoError(t, err)

		res := m.LoginWithProvider(ctx)
		require.Equal(t, session.Result{Message: session.MsgProviderMissing}, res)
		requireConsistent(t, m)
	})

	t.Run("cancelled", func(t *testing.T) {
		f := newFixture(t, nil)
		f.provider.QueueSignIn(identity.SignInResult{Cancelled: true, Error: identity.MsgCancelled})

		res := f.manager.LoginWithProvider(ctx)
		require.Equal(t, session.Result{Message: session.MsgCancelled, Cancelled: true}, res)
		require.Zero(t, f.gw.TotalCalls())
		require.Equal(t, session.StateUnknown, f.manager.State())
	})

	t.Run("provider error", func(t *testing.T) {
		f := newFixture(t, nil)
		f.provider.QueueSignIn(identity.SignInResult{Error: identity.MsgPlayServices})

		res := f.manager.LoginWithProvider(ctx)
		require.False(t, res.Success)
		require.False(t, res.Cancelled)
		require.Equal(t, identity.MsgPlayServices, res.Message)
		require.Zero(t, f.gw.TotalCalls())
	})

	t.Run("missing id token", func(t *testing.T) {
		f := newFixture(t, nil)
		f.provider.QueueSignIn(identity.SignInResult{Success: true})

		res := f.manager.LoginWithProvider(ctx)
		require.Equal(t, session.MsgNoProviderToken, res.Message)
		require.Zero(t, f.gw.TotalCalls())
	})

	t.Run("success", func(t *testing.T) {
		f := newFixture(t, nil)
		f.provider.QueueSignIn(identity.SignInResult{
			Success: true,
			IDToken: fakeIDToken(t, "google-123", "grace@example.com"),
		})

		res := f.manager.LoginWithProvider(ctx)
		require.Equal(t, session.Result{Success: true, Message: session.MsgGoogleLoginSuccess}, res)
		require.Equal(t, "grace@example.com", f.manager.Snapshot().User.Email)
		require.Equal(t, 1, f.gw.Calls(gatewayfake.MethodLoginWithGoogle))
		requireConsistent(t, f.manager)
	})

	t.Run("api rejects the id token", func(t *testing.T) {
		f := newFixture(t, nil)
		f.provider.QueueSignIn(identity.SignInResult{Success: true, IDToken: "garbage"})

		res := f.manager.LoginWithProvider(ctx)
		require.False(t, res.Success)
		require.Equal(t, "Invalid Google token", res.Message)
		require.False(t, f.manager.IsAuthenticated())
	})
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	valid := session.RegisterInput{
		Name:            testName,
		Email:           testEmail,
		Password:        testPassword,
		ConfirmPassword: testPassword,
		Currency:        "TRY",
	}

	t.Run("validation", func(t *testing.T) {
		f := newFixture(t, nil)

		short := valid
		short.Name = " A "
		require.Equal(t, "name", f.manager.Register(ctx, short).Field)

		mismatch := valid
		mismatch.ConfirmPassword = "something-else"
		require.Equal(t, "confirmPassword", f.manager.Register(ctx, mismatch).Field)

		require.Zero(t, f.gw.TotalCalls())
	})

	t.Run("signs in when no verification is needed", func(t *testing.T) {
		f := newFixture(t, nil)

		res := f.manager.Register(ctx, valid)
		require.Equal(t, session.Result{Success: true, Message: session.MsgRegisterSuccess}, res)

		snap := f.manager.Snapshot()
		require.Equal(t, session.StateAuthenticated, snap.State)
		require.Equal(t, "TRY", snap.User.Currency)
		requireConsistent(t, f.manager)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newFixture(t, nil)
		f.seedUser(t)

		res := f.manager.Register(ctx, valid)
		require.False(t, res.Success)
		require.Equal(t, "User with this email already exists", res.Message)
	})

	t.Run("verification required", func(t *testing.T) {
		f := newFixture(t, []gatewayfake.Option{gatewayfake.WithRequireVerification(true)})

		res := f.manager.Register(ctx, valid)
		require.True(t, res.Success)
		require.True(t, res.RequiresVerification)
		require.NotEmpty(t, res.VerificationToken)
		require.False(t, f.manager.IsAuthenticated())
		require.Zero(t, f.kv.Len())

		verified := f.manager.VerifyEmail(ctx, res.VerificationToken)
		require.Equal(t, session.Result{Success: true, Message: session.MsgVerifySuccess}, verified)
		require.True(t, f.manager.IsAuthenticated())
		requireConsistent(t, f.manager)
	})
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("empty token", func(t *testing.T) {
		f := newFixture(t, nil)
		res := f.manager.VerifyEmail(ctx, "   ")
		require.Equal(t, session.Result{Message: session.MsgTokenRequired, Field: "verificationToken"}, res)
		require.Zero(t, f.gw.TotalCalls())
	})

	t.Run("unknown token", func(t *testing.T) {
		f := newFixture(t, nil)
		res := f.manager.VerifyEmail(ctx, "nope")
		require.False(t, res.Success)
		require.Equal(t, "Invalid or expired verification token", res.Message)
		requireConsistent(t, f.manager)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()

	t.Run("clears everything", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)

		res := f.manager.Logout(ctx)
		require.Equal(t, session.Result{Success: true, Message: session.MsgLoggedOut}, res)
		require.Equal(t, session.StateUnauthenticated, f.manager.State())
		require.Zero(t, f.kv.Len())
		require.Equal(t, 1, f.gw.Calls(gatewayfake.MethodLogout))
		require.Equal(t, 1, f.provider.SignOutCalls())
		requireConsistent(t, f.manager)
	})

	t.Run("is idempotent", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)

		require.True(t, f.manager.Logout(ctx).Success)
		require.True(t, f.manager.Logout(ctx).Success)
		require.Equal(t, 1, f.gw.Calls(gatewayfake.MethodLogout))
		require.Equal(t, 2, f.provider.SignOutCalls())
	})

	t.Run("remote and provider failures are ignored", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)
		f.gw.FailNext(gatewayfake.MethodLogout, &gateway.Error{Kind: gateway.KindTransport, Message: "Network request failed"})
		f.provider.SetSignOut(identity.SignOutResult{Error: "boom"})

		res := f.manager.Logout(ctx)
		require.True(t, res.Success)
		require.Zero(t, f.kv.Len())
		require.Equal(t, 1, f.provider.SignOutCalls())
	})

	t.Run("store failure still clears memory", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)
		f.kv.FailNext(kvfake.OpMultiRemove, errors.New("locked"))

		res := f.manager.Logout(ctx)
		require.Equal(t, session.Result{Message: session.MsgClearFailed}, res)
		require.False(t, f.manager.IsAuthenticated())
		require.Equal(t, session.StateUnauthenticated, f.manager.State())
		requireConsistent(t, f.manager)
	})

	t.Run("revokes the refresh token remotely", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)
		refreshToken := f.manager.Snapshot().RefreshToken

		require.True(t, f.manager.Logout(ctx).Success)
		_, err := f.gw.Refresh(ctx, refreshToken)
		require.Error(t, err)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	name := "Ada King"

	t.Run("requires a session", func(t *testing.T) {
		f := newFixture(t, nil)
		res := f.manager.UpdateProfile(ctx, users.ProfileUpdate{Name: &name})
		require.Equal(t, session.Result{Message: session.MsgNotAuthenticated}, res)
		require.Zero(t, f.gw.TotalCalls())
	})

	t.Run("empty update", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)
		res := f.manager.UpdateProfile(ctx, users.ProfileUpdate{})
		require.Equal(t, session.MsgNothingToUpdate, res.Message)
		require.Zero(t, f.gw.Calls(gatewayfake.MethodUpdateProfile))
	})

	t.Run("invalid name", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)
		short := "A"
		res := f.manager.UpdateProfile(ctx, users.ProfileUpdate{Name: &short})
		require.Equal(t, "name", res.Field)
		require.Zero(t, f.gw.Calls(gatewayfake.MethodUpdateProfile))
	})

	t.Run("merges and persists", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)
		language := "tr"

		res := f.manager.UpdateProfile(ctx, users.ProfileUpdate{Name: &name, Language: &language})
		require.Equal(t, session.Result{Success: true, Message: session.MsgProfileUpdated}, res)

		snap := f.manager.Snapshot()
		require.Equal(t, session.StateAuthenticated, snap.State)
		require.Equal(t, name, snap.User.Name)
		require.Equal(t, "tr", snap.User.Language)
		require.Equal(t, testEmail, snap.User.Email)

		record, err := f.store.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, *snap.User, *record.User)
	})

	t.Run("api failure keeps the old profile", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)
		f.gw.FailNext(gatewayfake.MethodUpdateProfile, &gateway.Error{Kind: gateway.KindHTTP, Status: 500, Message: "HTTP error! status: 500"})

		res := f.manager.UpdateProfile(ctx, users.ProfileUpdate{Name: &name})
		require.Equal(t, "HTTP error! status: 500", res.Message)
		require.Equal(t, testName, f.manager.Snapshot().User.Name)
		require.True(t, f.manager.IsAuthenticated())
	})
}

func TestRefreshAccessToken(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces only the access token", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)
		before := f.manager.Snapshot()

		res := f.manager.RefreshAccessToken(ctx)
		require.Equal(t, session.Result{Success: true, Message: session.MsgTokenRefreshed}, res)

		after := f.manager.Snapshot()
		require.NotEqual(t, before.AccessToken, after.AccessToken)
		require.Equal(t, before.RefreshToken, after.RefreshToken)
		require.Equal(t, before.User, after.User)

		stored, _ := f.kv.Get(credentials.KeyAuthToken)
		require.Equal(t, after.AccessToken, stored)
		storedRefresh, _ := f.kv.Get(credentials.KeyRefreshToken)
		require.Equal(t, before.RefreshToken, storedRefresh)
	})

	t.Run("rejection logs out", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)
		f.gw.FailNext(gatewayfake.MethodRefresh, &gateway.Error{Kind: gateway.KindHTTP, Status: 401, Message: "Invalid or expired refresh token"})

		res := f.manager.RefreshAccessToken(ctx)
		require.Equal(t, session.Result{Message: "Invalid or expired refresh token"}, res)
		require.Equal(t, session.StateUnauthenticated, f.manager.State())
		require.Zero(t, f.kv.Len())
		require.Equal(t, 1, f.gw.Calls(gatewayfake.MethodLogout))
		requireConsistent(t, f.manager)
	})

	t.Run("missing refresh token logs out", func(t *testing.T) {
		f := newFixture(t, nil)
		f.seedUser(t)
		resp, err := f.gw.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)
		require.NoError(t, f.store.Save(ctx, *resp.User, credentials.Tokens{AccessToken: resp.AccessToken()}))
		require.Equal(t, session.StateAuthenticated, f.manager.Rehydrate(ctx))

		res := f.manager.RefreshAccessToken(ctx)
		require.Equal(t, session.Result{Message: session.MsgNoRefreshToken}, res)
		require.Zero(t, f.gw.Calls(gatewayfake.MethodRefresh))
		require.Zero(t, f.kv.Len())
		requireConsistent(t, f.manager)
	})

	t.Run("store failure logs out", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)
		f.kv.FailNext(kvfake.OpMultiSet, errors.New("full"))

		res := f.manager.RefreshAccessToken(ctx)
		require.Equal(t, session.Result{Message: session.MsgSaveFailed}, res)
		require.False(t, f.manager.IsAuthenticated())
		require.Zero(t, f.kv.Len())
	})
}

// scriptedGateway answers Login and Register with canned responses.
type scriptedGateway struct {
	gateway.Gateway
	login    *gateway.AuthResponse
	register *gateway.AuthResponse
}

func (g *scriptedGateway) Login(context.Context, string, string) (*gateway.AuthResponse, error) {
	return g.login, nil
}

func (g *scriptedGateway) Register(context.Context, gateway.RegisterRequest) (*gateway.AuthResponse, error) {
	return g.register, nil
}

func newScriptedManager(t *testing.T, gw *scriptedGateway) (*session.Manager, *kvfake.Store) {
	t.Helper()
	kv := kvfake.New()
	store, err := credentials.New(kv)
	require.NoError(t, err)
	m, err := session.New(store, gw, nil)
	require.NoError(t, err)
	require.Equal(t, session.StateUnauthenticated, m.Rehydrate(context.Background()))
	return m, kv
}

func TestScriptedResponses(t *testing.T) {
	ctx := context.Background()

	t.Run("login", func(t *testing.T) {
		m, kv := newScriptedManager(t, &scriptedGateway{login: &gateway.AuthResponse{
			Success: true,
			User:    &users.Profile{ID: "1", Email: "user@x.com"},
			Tokens:  &gateway.TokenPair{AccessToken: "A", RefreshToken: "R"},
		}})

		res := m.Login(ctx, "user@x.com", "secret1")
		require.True(t, res.Success)
		require.Equal(t, session.StateAuthenticated, m.State())
		require.Equal(t, "1", m.Snapshot().User.ID)
		stored, _ := kv.Get(credentials.KeyAuthToken)
		require.Equal(t, "A", stored)
	})

	t.Run("login rejected with a message", func(t *testing.T) {
		m, _ := newScriptedManager(t, &scriptedGateway{login: &gateway.AuthResponse{Message: "Account locked"}})
		require.Equal(t, session.Result{Message: "Account locked"}, m.Login(ctx, "user@x.com", "secret1"))
	})

	t.Run("login rejected without a message", func(t *testing.T) {
		m, _ := newScriptedManager(t, &scriptedGateway{login: &gateway.AuthResponse{}})
		require.Equal(t, session.Result{Message: session.MsgLoginFailed}, m.Login(ctx, "user@x.com", "secret1"))
	})

	t.Run("success without tokens is a failure", func(t *testing.T) {
		m, kv := newScriptedManager(t, &scriptedGateway{login: &gateway.AuthResponse{
			Success: true,
			User:    &users.Profile{ID: "1", Email: "user@x.com"},
		}})
		require.Equal(t, session.Result{Message: session.MsgLoginFailed}, m.Login(ctx, "user@x.com", "secret1"))
		require.Zero(t, kv.Len())
		requireConsistent(t, m)
	})

	t.Run("register awaiting verification", func(t *testing.T) {
		m, kv := newScriptedManager(t, &scriptedGateway{register: &gateway.AuthResponse{
			Success:              true,
			RequiresVerification: true,
			VerificationToken:    "V",
		}})

		res := m.Register(ctx, session.RegisterInput{Name: "User", Email: "user@x.com", Password: "secret1"})
		require.Equal(t, session.Result{
			Success:              true,
			Message:              session.MsgVerifyPending,
			RequiresVerification: true,
			VerificationToken:    "V",
		}, res)
		require.Equal(t, session.StateUnauthenticated, m.State())
		require.Zero(t, kv.Len())
	})
}

// stallingGateway holds the listed calls until the caller's context is done.
type stallingGateway struct {
	gateway.Gateway
	stall map[string]bool
}

func (g *stallingGateway) Refresh(ctx context.Context, refreshToken string) (*gateway.AuthResponse, error) {
	if g.stall[gatewayfake.MethodRefresh] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return g.Gateway.Refresh(ctx, refreshToken)
}

func (g *stallingGateway) Logout(ctx context.Context, accessToken string) (*gateway.StatusResponse, error) {
	if g.stall[gatewayfake.MethodLogout] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return g.Gateway.Logout(ctx, accessToken)
}

func (g *stallingGateway) GetProfile(ctx context.Context, accessToken string) (*gateway.ProfileResponse, error) {
	if g.stall[gatewayfake.MethodGetProfile] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return g.Gateway.GetProfile(ctx, accessToken)
}

// newStallingManager signs in through the fixture and returns a second manager over the same
// store whose gateway stalls on the given methods.
func newStallingManager(t *testing.T, f *fixture, methods ...string) *session.Manager {
	t.Helper()
	f.login(t)
	stall := map[string]bool{}
	for _, method := range methods {
		stall[method] = true
	}
	m, err := session.New(f.store, &stallingGateway{Gateway: f.gw, stall: stall}, f.provider)
	require.NoError(t, err)
	require.Equal(t, session.StateAuthenticated, m.Rehydrate(context.Background()))
	return m
}

func TestStoreClearedAfterDeadline(t *testing.T) {
	t.Run("logout", func(t *testing.T) {
		f := newFixture(t, nil)
		m := newStallingManager(t, f, gatewayfake.MethodLogout)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		res := m.Logout(ctx)
		require.Equal(t, session.Result{Success: true, Message: session.MsgLoggedOut}, res)
		require.Zero(t, f.kv.Len())
		requireConsistent(t, m)
	})

	t.Run("refresh", func(t *testing.T) {
		f := newFixture(t, nil)
		m := newStallingManager(t, f, gatewayfake.MethodRefresh, gatewayfake.MethodLogout)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		res := m.RefreshAccessToken(ctx)
		require.Equal(t, session.Result{Message: gateway.ErrTimeout.Error()}, res)
		require.Equal(t, session.StateUnauthenticated, m.State())
		require.Zero(t, f.kv.Len())
		requireConsistent(t, m)
	})

	t.Run("rehydrate", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)
		m, err := session.New(f.store, &stallingGateway{
			Gateway: f.gw,
			stall:   map[string]bool{gatewayfake.MethodGetProfile: true},
		}, nil)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		require.Equal(t, session.StateUnauthenticated, m.Rehydrate(ctx))
		require.Zero(t, f.kv.Len())
		requireConsistent(t, m)
	})

	t.Run("cancelled logout", func(t *testing.T) {
		f := newFixture(t, nil)
		m := newStallingManager(t, f)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.True(t, m.Logout(ctx).Success)
		require.Zero(t, f.kv.Len())
	})
}

func TestFailedOperationsResolveUnknownState(t *testing.T) {
	ctx := context.Background()
	name := "Ada King"

	tests := []struct {
		name string
		run  func(m *session.Manager) session.Result
	}{
		{name: "login", run: func(m *session.Manager) session.Result {
			return m.Login(ctx, "nobody@example.com", "wrongpass")
		}},
		{name: "login validation", run: func(m *session.Manager) session.Result {
			return m.Login(ctx, "", "")
		}},
		{name: "register", run: func(m *session.Manager) session.Result {
			return m.Register(ctx, session.RegisterInput{Name: testName, Email: "bad"})
		}},
		{name: "verify email", run: func(m *session.Manager) session.Result {
			return m.VerifyEmail(ctx, "nope")
		}},
		{name: "update profile", run: func(m *session.Manager) session.Result {
			return m.UpdateProfile(ctx, users.ProfileUpdate{Name: &name})
		}},
		{name: "provider error", run: func(m *session.Manager) session.Result {
			return m.LoginWithProvider(ctx)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.provider.QueueSignIn(identity.SignInResult{Error: identity.MsgPlayServices})
			require.Equal(t, session.StateUnknown, f.manager.State())

			require.False(t, tt.run(f.manager).Success)
			require.Equal(t, session.StateUnauthenticated, f.manager.State())
			requireConsistent(t, f.manager)
		})
	}

	t.Run("keeps an existing session", func(t *testing.T) {
		f := newFixture(t, nil)
		f.login(t)

		require.False(t, f.manager.Login(ctx, testEmail, "wrong-password").Success)
		require.Equal(t, session.StateAuthenticated, f.manager.State())
		requireConsistent(t, f.manager)
	})
}
