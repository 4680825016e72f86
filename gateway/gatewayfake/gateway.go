// Package gatewayfake is an in-memory auth API. It backs the dev server and the end-to-end
// tests, and keeps only bcrypt hashes of passwords.
package gatewayfake

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okanassist/okanassist-auth/gateway"
	autherrors "github.com/okanassist/okanassist-auth/internal/errors"
	"github.com/okanassist/okanassist-auth/token"
	"github.com/okanassist/okanassist-auth/token/refresh"
	refreshrepofake "github.com/okanassist/okanassist-auth/token/refresh/repofake"
	"github.com/okanassist/okanassist-auth/users"
	fakeuserrepo "github.com/okanassist/okanassist-auth/users/repofake"
	"github.com/pkg/errors"
)

// Method names used for fault injection and call counting.
const (
	MethodRegister        = "Register"
	MethodLogin           = "Login"
	MethodLoginWithGoogle = "LoginWithGoogle"
	MethodRefresh         = "Refresh"
	MethodLogout          = "Logout"
	MethodVerifyEmail     = "VerifyEmail"
	MethodGetProfile      = "GetProfile"
	MethodUpdateProfile   = "UpdateProfile"
)

const (
	msgInvalidCredentials = "Invalid email or password"
	msgUserExists         = "User with this email already exists"
	msgNotVerified        = "Please verify your email before logging in"
	msgInvalidToken       = "Invalid or expired token"
	msgInvalidRefresh     = "Invalid or expired refresh token"
	msgInvalidVerifyToken = "Invalid or expired verification token"
	msgInvalidGoogle      = "Invalid Google token"
	msgNothingToUpdate    = "No profile fields to update"
)

var _ gateway.Gateway = (*Gateway)(nil)

// Gateway implements gateway.Gateway in memory.
type Gateway struct {
	users               users.UserRepo
	tokens              *token.Manager
	refreshTokens       *refresh.Manager
	verifyGoogle        GoogleVerifier
	requireVerification bool
	nowFunc             func() time.Time
	accessTokenExpiry   time.Duration
	refreshTokenExpiry  time.Duration
	secret              string
	verificationTokens  map[string]string // token to email
	failures            map[string][]error
	calls               map[string]int
	lock                sync.Mutex
}

type Option func(*Gateway)

// WithRequireVerification makes Register hand out verification tokens instead of a session.
func WithRequireVerification(require bool) Option {
	return func(g *Gateway) {
		g.requireVerification = require
	}
}

func WithGoogleVerifier(verifier GoogleVerifier) Option {
	return func(g *Gateway) {
		g.verifyGoogle = verifier
	}
}

func WithAccessTokenExpiry(expiry time.Duration) Option {
	return func(g *Gateway) {
		g.accessTokenExpiry = expiry
	}
}

func WithRefreshTokenExpiry(expiry time.Duration) Option {
	return func(g *Gateway) {
		g.refreshTokenExpiry = expiry
	}
}

func WithNowFunc(now func() time.Time) Option {
	return func(g *Gateway) {
		g.nowFunc = now
	}
}

// WithUserRepo replaces the default in-memory user repo.
func WithUserRepo(repo users.UserRepo) Option {
	return func(g *Gateway) {
		g.users = repo
	}
}

// WithTokenSecret sets the HS256 secret. A random secret is used otherwise.
func WithTokenSecret(secret string) Option {
	return func(g *Gateway) {
		g.secret = secret
	}
}

func New(options ...Option) (*Gateway, error) {
	g := &Gateway{
		verifyGoogle:       UnverifiedGoogleIdentity,
		verificationTokens: make(map[string]string),
		failures:           make(map[string][]error),
		calls:              make(map[string]int),
	}
	for _, opt := range options {
		opt(g)
	}

	if g.nowFunc == nil {
		g.nowFunc = time.Now
	}
	if g.users == nil {
		g.users = fakeuserrepo.NewFakeUserRepo()
	}
	if g.secret == "" {
		g.secret = strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	}

	signer, err := token.NewHMACSigner(g.secret)
	if err != nil {
		return nil, errors.Wrap(err, "gatewayfake.New")
	}
	g.tokens = token.New(signer,
		token.WithAccessTokenExpiry(g.accessTokenExpiry),
		token.WithNowFunc(g.nowFunc),
	)
	g.refreshTokens = refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(),
		refresh.WithExpiry(g.refreshTokenExpiry),
		refresh.WithNowFunc(g.nowFunc),
	)
	return g, nil
}

// FailNext makes the next call to method return err before doing anything.
func (g *Gateway) FailNext(method string, err error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.failures[method] = append(g.failures[method], err)
}

// Calls returns how many times method was invoked, failed calls included.
func (g *Gateway) Calls(method string) int {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.calls[method]
}

// TotalCalls returns the number of calls across all methods.
func (g *Gateway) TotalCalls() int {
	g.lock.Lock()
	defer g.lock.Unlock()
	total := 0
	for _, n := range g.calls {
		total += n
	}
	return total
}

// Users exposes the account store, for seeding and assertions.
func (g *Gateway) Users() users.UserRepo {
	return g.users
}

// Tokens exposes the access-token manager, for revoking tokens in tests.
func (g *Gateway) Tokens() *token.Manager {
	return g.tokens
}

func (g *Gateway) begin(ctx context.Context, method string) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.calls[method]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if queued := g.failures[method]; len(queued) > 0 {
		g.failures[method] = queued[1:]
		return queued[0]
	}
	return nil
}

func (g *Gateway) Register(ctx context.Context, req gateway.RegisterRequest) (*gateway.AuthResponse, error) {
	if err := g.begin(ctx, MethodRegister); err != nil {
		return nil, err
	}

	if err := users.ValidateRegistration(req.Name, req.Email, req.Password, ""); err != nil {
		return nil, invalidRequest(err)
	}
	if _, err := g.users.GetByEmail(req.Email); err == nil {
		return nil, autherrors.WithMessage(autherrors.ErrUserExists, msgUserExists)
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "Gateway.Register HashPassword")
	}
	user := &users.User{
		Profile: users.Profile{
			Email:    req.Email,
			Name:     strings.TrimSpace(req.Name),
			Phone:    req.Phone,
			Currency: req.Currency,
			Language: req.Language,
			Timezone: req.Timezone,
		},
		PasswordHash: hash,
		Verified:     !g.requireVerification,
		DateJoined:   g.nowFunc(),
	}
	if err := g.users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "Gateway.Register Upsert")
	}

	if g.requireVerification {
		verificationToken := uuid.NewString()
		g.lock.Lock()
		g.verificationTokens[verificationToken] = user.Email
		g.lock.Unlock()
		return &gateway.AuthResponse{
			Success:              true,
			Message:              "Registration successful. Please verify your email.",
			RequiresVerification: true,
			VerificationToken:    verificationToken,
		}, nil
	}

	return g.session(user, "Registration successful")
}

func (g *Gateway) Login(ctx context.Context, email, password string) (*gateway.AuthResponse, error) {
	if err := g.begin(ctx, MethodLogin); err != nil {
		return nil, err
	}

	user, err := g.users.GetByEmail(email)
	if err != nil || !user.CheckPassword(password) {
		return nil, autherrors.WithMessage(autherrors.ErrInvalidCredentials, msgInvalidCredentials)
	}
	if !user.Verified {
		return nil, autherrors.WithMessage(autherrors.ErrUserNotVerified, msgNotVerified)
	}
	return g.session(user, "Login successful")
}

func (g *Gateway) LoginWithGoogle(ctx context.Context, idToken string) (*gateway.AuthResponse, error) {
	if err := g.begin(ctx, MethodLoginWithGoogle); err != nil {
		return nil, err
	}

	google, err := g.verifyGoogle(ctx, idToken)
	if err != nil || google.Subject == "" {
		return nil, autherrors.WithMessage(autherrors.ErrInvalidProviderToken, msgInvalidGoogle)
	}

	user, err := g.users.GetByGoogleSub(google.Subject)
	if err != nil {
		user, err = g.linkGoogleAccount(google)
		if err != nil {
			return nil, err
		}
	}
	return g.session(user, "Google login successful")
}

// linkGoogleAccount attaches the Google identity to the account with the same email, or creates
// a verified account.
func (g *Gateway) linkGoogleAccount(google GoogleIdentity) (*users.User, error) {
	if google.Email == "" {
		return nil, autherrors.WithMessage(autherrors.ErrInvalidProviderToken, msgInvalidGoogle)
	}

	user, err := g.users.GetByEmail(google.Email)
	if err != nil {
		user = &users.User{
			Profile:    users.Profile{Email: google.Email, Name: google.Name},
			DateJoined: g.nowFunc(),
		}
	}
	user.GoogleSub = google.Subject
	user.Verified = true
	if err := g.users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "Gateway.linkGoogleAccount Upsert")
	}
	return user, nil
}

func (g *Gateway) Refresh(ctx context.Context, refreshToken string) (*gateway.AuthResponse, error) {
	if err := g.begin(ctx, MethodRefresh); err != nil {
		return nil, err
	}

	stored, err := g.refreshTokens.Validate(refreshToken)
	if err != nil {
		return nil, autherrors.WithMessage(err, msgInvalidRefresh)
	}
	user, err := g.users.GetByID(stored.UserID)
	if err != nil {
		return nil, autherrors.WithMessage(autherrors.ErrInvalidRefreshToken, msgInvalidRefresh)
	}

	accessToken, err := g.tokens.CreateAccessToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "Gateway.Refresh CreateAccessToken")
	}
	return &gateway.AuthResponse{
		Success: true,
		Tokens:  &gateway.TokenPair{AccessToken: accessToken},
	}, nil
}

// Logout revokes the access token and the user's refresh token.
func (g *Gateway) Logout(ctx context.Context, accessToken string) (*gateway.StatusResponse, error) {
	if err := g.begin(ctx, MethodLogout); err != nil {
		return nil, err
	}

	info, err := g.tokens.Introspect(accessToken)
	if err != nil {
		return nil, autherrors.WithMessage(err, msgInvalidToken)
	}
	if err := g.tokens.RevokeAccessToken(accessToken); err != nil {
		return nil, errors.Wrap(err, "Gateway.Logout RevokeAccessToken")
	}
	if err := g.refreshTokens.RevokeForUser(info.Subject); err != nil {
		return nil, errors.Wrap(err, "Gateway.Logout RevokeForUser")
	}
	return &gateway.StatusResponse{Success: true, Message: "Logged out successfully"}, nil
}

// VerifyEmail consumes a verification token and starts a session.
func (g *Gateway) VerifyEmail(ctx context.Context, verificationToken string) (*gateway.AuthResponse, error) {
	if err := g.begin(ctx, MethodVerifyEmail); err != nil {
		return nil, err
	}

	g.lock.Lock()
	email, ok := g.verificationTokens[verificationToken]
	delete(g.verificationTokens, verificationToken)
	g.lock.Unlock()
	if !ok {
		return nil, autherrors.WithMessage(autherrors.ErrInvalidVerificationToken, msgInvalidVerifyToken)
	}

	if err := g.users.SetVerified(email, true); err != nil {
		return nil, errors.Wrap(err, "Gateway.VerifyEmail SetVerified")
	}
	user, err := g.users.GetByEmail(email)
	if err != nil {
		return nil, errors.Wrap(err, "Gateway.VerifyEmail GetByEmail")
	}
	return g.session(user, "Email verified successfully")
}

func (g *Gateway) GetProfile(ctx context.Context, accessToken string) (*gateway.ProfileResponse, error) {
	if err := g.begin(ctx, MethodGetProfile); err != nil {
		return nil, err
	}

	user, err := g.authenticate(accessToken)
	if err != nil {
		return nil, err
	}
	profile := user.Profile
	return &gateway.ProfileResponse{Success: true, User: &profile}, nil
}

func (g *Gateway) UpdateProfile(ctx context.Context, accessToken string, updates users.ProfileUpdate) (*gateway.ProfileResponse, error) {
	if err := g.begin(ctx, MethodUpdateProfile); err != nil {
		return nil, err
	}

	user, err := g.authenticate(accessToken)
	if err != nil {
		return nil, err
	}
	if updates.IsEmpty() {
		return nil, autherrors.WithMessage(autherrors.ErrInvalidRequest, msgNothingToUpdate)
	}
	if updates.Name != nil {
		if err := users.ValidateName(*updates.Name); err != nil {
			return nil, invalidRequest(err)
		}
	}

	user.Profile = user.Profile.Merge(updates)
	if err := g.users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "Gateway.UpdateProfile Upsert")
	}
	profile := user.Profile
	return &gateway.ProfileResponse{Success: true, Message: "Profile updated successfully", User: &profile}, nil
}

func (g *Gateway) authenticate(accessToken string) (*users.User, error) {
	info, err := g.tokens.Introspect(accessToken)
	if err != nil {
		return nil, autherrors.WithMessage(err, msgInvalidToken)
	}
	user, err := g.users.GetByID(info.Subject)
	if err != nil {
		return nil, autherrors.WithMessage(autherrors.ErrInvalidToken, msgInvalidToken)
	}
	return user, nil
}

// session issues an access and refresh token pair for user.
func (g *Gateway) session(user *users.User, message string) (*gateway.AuthResponse, error) {
	accessToken, err := g.tokens.CreateAccessToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "Gateway.session CreateAccessToken")
	}
	refreshToken, err := g.refreshTokens.Create(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "Gateway.session CreateRefreshToken")
	}
	_ = g.users.SetLastLogin(user.Email, g.nowFunc())

	profile := user.Profile
	return &gateway.AuthResponse{
		Success: true,
		Message: message,
		User:    &profile,
		Tokens:  &gateway.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken},
	}, nil
}

func invalidRequest(err error) error {
	var verr *users.ValidationError
	if errors.As(err, &verr) {
		return autherrors.WithMessage(autherrors.ErrInvalidRequest, verr.Message)
	}
	return autherrors.WithMessage(autherrors.ErrInvalidRequest, err.Error())
}
