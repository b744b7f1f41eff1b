// Package handler exposes the authentication endpoints over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"senya-web-backend/internal/identity/service"
	"senya-web-backend/internal/server/middleware"
	"senya-web-backend/internal/server/respond"
)

// CookieConfig controls the attributes of the refresh token cookie.
type CookieConfig struct {
	Secure     bool
	SameSite   http.SameSite
	RefreshTTL time.Duration
}

// AuthHandler serves the /auth endpoint group.
type AuthHandler struct {
	auth   *service.AuthService
	cookie CookieConfig
	log    *zap.Logger
}

// NewAuthHandler returns an AuthHandler backed by auth.
func NewAuthHandler(auth *service.AuthService, cookie CookieConfig, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie, log: log}
}

// Routes mounts the public auth endpoints on r. The protected /me endpoint is
// mounted separately behind the auth middleware.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new account together with its root note folder.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUsernameTaken):
		respond.Detail(w, http.StatusBadRequest, "Username already registered")
		return
	default:
		h.log.Warn("register failed", zap.String("username", req.Username), zap.Error(err))
		respond.Detail(w, http.StatusBadRequest, err.Error())
		return
	}

	h.log.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))
	respond.JSON(w, http.StatusCreated, map[string]string{"message": "User created successfully"})
}

// Login exchanges credentials for an access token in the body and a refresh
// token in an HttpOnly cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Detail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password, clientIP(r))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respond.Detail(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		h.log.Error("login failed", zap.String("username", req.Username), zap.Error(err))
		respond.Detail(w, http.StatusInternalServerError, "login failed")
		return
	}

	h.setRefreshCookie(w, result.RefreshToken, h.cookie.RefreshTTL)
	respond.JSON(w, http.StatusOK, map[string]string{
		"access_token": result.AccessToken,
		"username":     result.User.Username,
	})
}

// Refresh mints a new access token from the refresh token cookie. This is the
// only entry point that accepts a refresh token on its own.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var refreshToken string
	if c, err := r.Cookie(middleware.RefreshCookieName); err == nil {
		refreshToken = c.Value
	}

	result, err := h.auth.Refresh(r.Context(), refreshToken)
	if err != nil {
		respond.Detail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{
		"access_token": result.AccessToken,
		"username":     result.User.Username,
	})
}

// Logout clears the refresh token cookie. Tokens themselves are stateless and
// simply age out.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setRefreshCookie(w, "", -time.Second)
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Me returns the authenticated user's record. Mounted behind the auth
// middleware, so the context always carries a user id.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respond.Detail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	user, err := h.auth.GetUser(r.Context(), userID)
	if err != nil {
		h.log.Error("me lookup failed", zap.String("user_id", userID), zap.Error(err))
		respond.Detail(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if user == nil {
		respond.Detail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"id":         user.ID,
		"username":   user.Username,
		"created_at": user.CreatedAt,
		"updated_at": user.UpdatedAt,
	})
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RefreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the socket
// peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
