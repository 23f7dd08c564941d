package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/madison-marketplace/internal/auth"
	"github.com/sakif/madison-marketplace/internal/service"
)

// AuthHandler serves account creation, login and the session cookie.
//
//   - HandleCreate → POST /auth/create
//   - HandleLogin  → POST /auth/login
//   - HandleLogout → POST /auth/logout
//   - HandleMe     → GET  /api/me (behind RequireAuth)
type AuthHandler struct {
	svc      *service.AuthService
	tokenTTL time.Duration
	secure   bool
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. tokenTTL sets the cookie lifetime;
// secure marks the cookie HTTPS-only.
func NewAuthHandler(svc *service.AuthService, tokenTTL time.Duration, secure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, tokenTTL: tokenTTL, secure: secure, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Success bool   `json:"success"`
	Email   string `json:"email"`
}

// HandleCreate registers an account.
//
// HTTP: POST /auth/create
// REQUEST BODY: {"email": "bucky@wisc.edu", "password": "..."}
func (h *AuthHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.svc.CreateAccount(r.Context(), req.Email, []byte(req.Password)); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// HandleLogin checks credentials and, when sessions are enabled, sets the
// HttpOnly token cookie.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.svc.Login(r.Context(), req.Email, []byte(req.Password))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if res.Token != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    res.Token,
			Path:     "/",
			MaxAge:   int(h.tokenTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	writeJSON(w, http.StatusOK, LoginResponse{Success: true, Email: res.Email})
}

// HandleLogout clears the session cookie. The JWT itself stays valid until
// it expires; without the cookie the browser can no longer send it.
//
// HTTP: POST /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the logged-in email.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": email})
}
