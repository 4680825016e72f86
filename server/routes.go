package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// Auth
	s.RegisterRouteFunc("POST "+s.prefix+RouteRegister, s.RegisterHandler())
	s.RegisterRouteFunc("POST "+s.prefix+RouteLogin, s.LoginHandler())
	s.RegisterRouteFunc("POST "+s.prefix+RouteGoogle, s.GoogleLoginHandler())
	s.RegisterRouteFunc("POST "+s.prefix+RouteRefresh, s.RefreshHandler())
	s.RegisterRouteFunc("POST "+s.prefix+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.RequireBearer))
	s.RegisterRouteFunc("POST "+s.prefix+RouteVerifyEmail, s.VerifyEmailHandler())

	// User
	s.RegisterRouteFunc("GET "+s.prefix+RouteProfile, ChainMiddleware(s.GetProfileHandler(), s.RequireBearer))
	s.RegisterRouteFunc("PUT "+s.prefix+RouteProfile, ChainMiddleware(s.UpdateProfileHandler(), s.RequireBearer))
}
