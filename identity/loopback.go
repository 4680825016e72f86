package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

const callbackPage = `<html><body><p>Sign-in complete. You can close this window.</p></body></html>`

// Opener shows authURL to the user, typically by launching a browser.
type Opener func(authURL string) error

// LogOpener prints the consent URL so it can be opened by hand.
func LogOpener(authURL string) error {
	log.Info().Str("url", authURL).Msg("Open this URL in a browser to continue sign-in")
	return nil
}

var _ Browser = (*LoopbackBrowser)(nil)

// LoopbackBrowser receives the redirect on a local listener at RedirectURL.
type LoopbackBrowser struct {
	RedirectURL string
	Open        Opener
}

func NewLoopbackBrowser(redirectURL string, open Opener) *LoopbackBrowser {
	if open == nil {
		open = LogOpener
	}
	return &LoopbackBrowser{RedirectURL: redirectURL, Open: open}
}

// Authorize listens for exactly one callback. Cancelling ctx reports ErrBrowserCancelled.
func (l *LoopbackBrowser) Authorize(ctx context.Context, authURL string) (CallbackParams, error) {
	redirect, err := url.Parse(l.RedirectURL)
	if err != nil || redirect.Host == "" {
		return CallbackParams{}, fmt.Errorf("invalid redirect url %q", l.RedirectURL)
	}
	path := redirect.Path
	if path == "" {
		path = "/"
	}

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return CallbackParams{}, fmt.Errorf("listen on %s: %w", redirect.Host, err)
	}

	results := make(chan CallbackParams, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		select {
		case results <- CallbackParams{
			Code:             q.Get("code"),
			State:            q.Get("state"),
			Error:            q.Get("error"),
			ErrorDescription: q.Get("error_description"),
		}:
		default:
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, callbackPage)
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Msg("loopback callback server failed")
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	open := l.Open
	if open == nil {
		open = LogOpener
	}
	if err := open(authURL); err != nil {
		return CallbackParams{}, fmt.Errorf("open browser: %w", err)
	}

	select {
	case params := <-results:
		return params, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return CallbackParams{}, fmt.Errorf("%w: %v", ErrBrowserCancelled, ctx.Err())
		}
		return CallbackParams{}, fmt.Errorf("wait for callback: %w", ctx.Err())
	}
}
