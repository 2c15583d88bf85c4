package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/kamal-hamza/assetctl/internal/backend/auth"
	"github.com/kamal-hamza/assetctl/internal/backend/store"
	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// AuthHandler handles login and profile endpoints.
type AuthHandler struct {
	Store     *store.Store
	JWTSecret string
	Now       func() time.Time
}

type loginRequest struct {
	UserID        string `json:"userId"`
	Password      string `json:"password"`
	Remember7Days bool   `json:"remember7Days"`
}

type loginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonMessage(w, http.StatusBadRequest, "UserId and password are required!")
		return
	}

	if req.UserID == "" || req.Password == "" {
		jsonMessage(w, http.StatusBadRequest, "UserId and password are required!")
		return
	}

	user, err := h.Store.Authenticate(r.Context(), req.UserID, req.Password)
	if err != nil {
		slog.Error("authenticating", "error", err, "request_id", RequestID(r.Context()))
		jsonMessage(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	if user == nil {
		slog.Warn("login failed", "user", req.UserID, "remote", r.RemoteAddr)
		jsonMessage(w, http.StatusUnauthorized, "Invalid credentials!")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, user.UserID, req.Remember7Days, h.now())
	if err != nil {
		jsonMessage(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	slog.Info("user logged in", "user", user.UserID, "remember", req.Remember7Days)
	jsonResponse(w, http.StatusOK, loginResponse{
		Message: "Login successful!",
		Token:   token,
		User:    *user,
	})
}

// Profile handles GET /api/profile. The user's parks are expanded.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if user == nil {
		jsonMessage(w, http.StatusUnauthorized, "Token is missing!")
		return
	}

	parks, err := h.Store.ParksFor(r.Context(), user)
	if err != nil {
		jsonMessage(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}

	profile := *user
	profile.Parks = parks
	jsonResponse(w, http.StatusOK, map[string]domain.User{"user": profile})
}

// Health handles GET /api/health.
func (h *AuthHandler) Health(w http.ResponseWriter, r *http.Request) {
	jsonMessage(w, http.StatusOK, "Backend server is running!")
}

func (h *AuthHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
