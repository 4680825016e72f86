package server

import "github.com/okanassist/okanassist-auth/gateway"

// Route paths, relative to the configured API prefix.
const (
	RouteRegister    = gateway.PathRegister
	RouteLogin       = gateway.PathLogin
	RouteGoogle      = gateway.PathGoogle
	RouteRefresh     = gateway.PathRefresh
	RouteLogout      = gateway.PathLogout
	RouteVerifyEmail = gateway.PathVerifyEmail
	RouteProfile     = gateway.PathProfile

	RouteHealth = "/health"
)
