package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okanassist/okanassist-auth/users"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "okanassist-auth"

	maxResponseBytes = 1 << 20
)

var _ Gateway = (*Client)(nil)

// Client is the HTTP implementation of Gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	deviceInfo DeviceInfo
}

type ClientOption func(*Client)

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds every call, including reading the response body.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func WithDeviceInfo(info DeviceInfo) ClientOption {
	return func(c *Client) {
		c.deviceInfo = info
	}
}

func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		userAgent:  DefaultUserAgent,
		deviceInfo: DefaultDeviceInfo(),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	return c
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if req.PlatformType == "" {
		req.PlatformType = PlatformMobileApp
	}
	if req.DeviceInfo == nil {
		info := c.deviceInfo
		req.DeviceInfo = &info
	}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, PathRegister, "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, PathLogin, "", LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LoginWithGoogle(ctx context.Context, idToken string) (*AuthResponse, error) {
	var out AuthResponse
	body := GoogleLoginRequest{GoogleToken: idToken, PlatformType: PlatformMobileApp}
	if err := c.do(ctx, http.MethodPost, PathGoogle, "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, PathRefresh, "", RefreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context, accessToken string) (*StatusResponse, error) {
	var out StatusResponse
	if err := c.do(ctx, http.MethodPost, PathLogout, accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) VerifyEmail(ctx context.Context, verificationToken string) (*AuthResponse, error) {
	var out AuthResponse
	body := VerifyEmailRequest{VerificationToken: verificationToken}
	if err := c.do(ctx, http.MethodPost, PathVerifyEmail, "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProfile(ctx context.Context, accessToken string) (*ProfileResponse, error) {
	var out ProfileResponse
	if err := c.do(ctx, http.MethodGet, PathProfile, accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, accessToken string, updates users.ProfileUpdate) (*ProfileResponse, error) {
	var out ProfileResponse
	if err := c.do(ctx, http.MethodPut, PathProfile, accessToken, updates, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one JSON round trip. out is decoded only for 2xx responses.
func (c *Client) do(ctx context.Context, method, endpoint, token string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindTransport, Message: "Failed to encode request", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return &Error{Kind: KindTransport, Message: "Failed to build request", Err: err}
	}

	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logRequest(requestID, method, endpoint, 0, start, err)
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	logRequest(requestID, method, endpoint, resp.StatusCode, start, err)
	if err != nil {
		return transportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg MessageResponse
		_ = json.Unmarshal(data, &msg)
		return httpError(resp.StatusCode, msg.Message)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindDecode, Status: resp.StatusCode, Message: "Invalid response from server", Err: err}
	}
	return nil
}

func transportError(ctx context.Context, err error) *Error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: timeoutMessage, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: timeoutMessage, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTransport, Message: "Request cancelled", Err: err}
	}
	return &Error{Kind: KindTransport, Message: "Network request failed", Err: err}
}

func logRequest(requestID, method, endpoint string, status int, start time.Time, err error) {
	event := log.Debug()
	if err != nil {
		event = log.Debug().Err(err)
	}
	event.Str("request_id", requestID).
		Str("method", method).
		Str("path", endpoint).
		Int("status", status).
		Dur("duration", time.Since(start)).
		Msg("auth api request")
}
