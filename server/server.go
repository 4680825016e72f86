// Package server exposes a gateway.Gateway over HTTP using the auth API's JSON contract.
package server

import (
	"net/http"
	"strings"

	"github.com/okanassist/okanassist-auth/gateway"
	"github.com/okanassist/okanassist-auth/internal/config"
	"github.com/rs/zerolog/log"
)

// Config is the subset of the app configuration the server reads.
type Config interface {
	config.EnvConfig
	config.DevServerConfig
	config.CorsConfig
}

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	handler http.HandlerFunc
	routes  []string
	prefix  string
	config  Config
	backend gateway.Gateway
}

func New(cfg Config, backend gateway.Gateway) *Server {
	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		prefix:  cfg.GetAPIPrefix(),
		config:  cfg,
		backend: backend,
	}

	s.initRoutes()
	s.handler = ChainMiddleware(s.mux.ServeHTTP, s.APIMiddleware()...)
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		log.Info().Str("method", method).Str("path", path).Msg("route")
	}
}
