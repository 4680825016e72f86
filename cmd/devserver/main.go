// Command devserver runs the in-memory auth API for local development.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/joho/godotenv"
	"github.com/okanassist/okanassist-auth/gateway/gatewayfake"
	"github.com/okanassist/okanassist-auth/internal/config"
	"github.com/okanassist/okanassist-auth/internal/logging"
	"github.com/okanassist/okanassist-auth/server"
	"github.com/rs/zerolog/log"
)

const revokedTokenSweep = 5 * time.Minute

func main() {
	_ = godotenv.Load()

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running dev server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	logging.Setup(c.GetLogLevel(), c.GetEnv())
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(ctx, c)
	if err != nil {
		return err
	}
	go sweepRevokedTokens(ctx, backend)

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           server.New(c, backend),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(httpServer) }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	return shutdown(httpServer)
}

func newBackend(ctx context.Context, c config.Config) (*gatewayfake.Gateway, error) {
	options := []gatewayfake.Option{
		gatewayfake.WithTokenSecret(c.GetTokenSecret()),
		gatewayfake.WithAccessTokenExpiry(c.GetAccessTokenTTL()),
		gatewayfake.WithRefreshTokenExpiry(c.GetRefreshTokenTTL()),
		gatewayfake.WithRequireVerification(c.GetRequireVerification()),
	}

	if c.GetGoogleVerifyIDToken() {
		provider, err := oidc.NewProvider(ctx, c.GetGoogleIssuer())
		if err != nil {
			return nil, fmt.Errorf("oidc.NewProvider: %w", err)
		}
		verifier := provider.Verifier(&oidc.Config{ClientID: c.GetGoogleClientID()})
		options = append(options, gatewayfake.WithGoogleVerifier(gatewayfake.OIDCGoogleVerifier(verifier)))
	} else {
		log.Warn().Msg("Google ID tokens are accepted without signature checks")
	}

	backend, err := gatewayfake.New(options...)
	if err != nil {
		return nil, fmt.Errorf("gatewayfake.New: %w", err)
	}
	return backend, nil
}

func sweepRevokedTokens(ctx context.Context, backend *gatewayfake.Gateway) {
	ticker := time.NewTicker(revokedTokenSweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := backend.Tokens().CleanupRevokedTokens(); n > 0 {
				log.Debug().Int("removed", n).Msg("expired revocations swept")
			}
		}
	}
}

func listenAndServe(httpServer *http.Server) error {
	log.Info().Str("addr", httpServer.Addr).Msg("Server listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
