package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okanassist/okanassist-auth/gateway"
	autherrors "github.com/okanassist/okanassist-auth/internal/errors"
	"github.com/okanassist/okanassist-auth/users"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json"
	maxBodyBytes    = 1 << 20

	msgInternal   = "Internal server error"
	msgBadRequest = "Invalid request body"
)

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.RegisterRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		resp, err := s.backend.Register(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		resp, err := s.backend.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) GoogleLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.GoogleLoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.GoogleToken == "" {
			writeJSON(w, http.StatusBadRequest, failure("google_token is required"))
			return
		}
		resp, err := s.backend.LoginWithGoogle(r.Context(), req.GoogleToken)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.RefreshRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		resp, err := s.backend.Refresh(r.Context(), req.RefreshToken)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := s.backend.Logout(r.Context(), accessToken(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) VerifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req gateway.VerifyEmailRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		resp, err := s.backend.VerifyEmail(r.Context(), req.VerificationToken)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) GetProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := s.backend.GetProfile(r.Context(), accessToken(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var updates users.ProfileUpdate
		if !decodeJSON(w, r, &updates) {
			return
		}
		resp, err := s.backend.UpdateProfile(r.Context(), accessToken(r), updates)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, failure(msgBadRequest))
		return false
	}
	return true
}

func failure(message string) gateway.MessageResponse {
	return gateway.MessageResponse{Success: false, Message: message}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	message := autherrors.PublicMessage(err, msgInternal)

	var gerr *gateway.Error
	if errors.As(err, &gerr) {
		message = gerr.Message
	}
	if status == http.StatusInternalServerError {
		log.Err(err).Msg("auth backend failed")
	}
	writeJSON(w, status, failure(message))
}

// StatusFor maps backend errors to HTTP status codes.
func StatusFor(err error) int {
	var gerr *gateway.Error
	switch {
	case errors.As(err, &gerr):
		if gerr.Kind == gateway.KindHTTP && gerr.Status != 0 {
			return gerr.Status
		}
		if gerr.Kind == gateway.KindTimeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case autherrors.Is(err, autherrors.ErrUserNotVerified):
		return http.StatusForbidden
	case autherrors.IsUnauthorized(err):
		return http.StatusUnauthorized
	case autherrors.Is(err, autherrors.ErrUserExists):
		return http.StatusConflict
	case autherrors.Is(err, autherrors.ErrInvalidRequest),
		autherrors.Is(err, autherrors.ErrInvalidVerificationToken):
		return http.StatusBadRequest
	case autherrors.Is(err, autherrors.ErrNotFound),
		autherrors.Is(err, autherrors.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
