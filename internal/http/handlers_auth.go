package http

import (
	"errors"
	"net/http"
	"time"

	"spendwise/internal/auth"
	"spendwise/internal/core"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u core.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError("Missing required fields").Write(w)
		return
	}

	user, err := s.auth.Register(r.Context(), sanitizeInput(req.Name), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		BadRequestError("Missing required fields").Write(w)
		return
	case errors.Is(err, core.ErrConflict):
		BadRequestError("User already exists").Write(w)
		return
	case err != nil:
		FromError(r, err, "User not found").Write(w)
		return
	}

	OK(toUserResponse(user)).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		BadRequestError("Missing required fields").Write(w)
		return
	}

	user, session, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		ErrorResponse(http.StatusUnauthorized, "Invalid email or password").Write(w)
		return
	}
	if err != nil {
		FromError(r, err, "User not found").Write(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	OK(map[string]any{
		"user":      toUserResponse(user),
		"expiresAt": session.ExpiresAt,
	}).Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	if err := s.auth.Logout(r.Context(), session.Token); err != nil && !errors.Is(err, core.ErrNotFound) {
		FromError(r, err, "Unauthorized").Write(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	NoContent().Write(w)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())
	OK(map[string]any{
		"user":      toUserResponse(currentUser(r)),
		"expiresAt": session.ExpiresAt,
	}).Write(w)
}
