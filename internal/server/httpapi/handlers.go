// Package httpapi is the HTTP/JSON transport of the authentication service.
// It parses requests, delegates to AuthService, and maps the error taxonomy
// onto status codes; no business rules live here.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/techroad/techroad/internal/common"
	"github.com/techroad/techroad/internal/logging"
	"github.com/techroad/techroad/internal/server/services"
)

type Handler struct {
	auth   *services.AuthService
	logger logging.Logger
}

func NewHandler(auth *services.AuthService, logger logging.Logger) *Handler {
	return &Handler{
		auth:   auth,
		logger: logger.With("module", "httpapi"),
	}
}

// bearerToken extracts the token from the Authorization header. An empty
// string means the header was absent or not in Bearer form.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	req := &services.RegisterRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		h.respondError(r, w, common.Validation("invalid request body"))
		return
	}

	session, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"message":       "User registered successfully",
		"user":          session.User,
		"access_token":  session.AccessToken,
		"refresh_token": session.RefreshToken,
		"token_type":    "Bearer",
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(r, w, common.Validation("invalid request body"))
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":       "Login successful",
		"user":          session.User,
		"access_token":  session.AccessToken,
		"refresh_token": session.RefreshToken,
		"token_type":    "Bearer",
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	access, err := h.auth.Refresh(r.Context(), bearerToken(r))
	if err != nil {
		h.respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":      "Token refreshed successfully",
		"access_token": access,
		"token_type":   "Bearer",
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), bearerToken(r)); err != nil {
		h.respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	view, err := h.auth.GetProfile(r.Context(), bearerToken(r))
	if err != nil {
		h.respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"user": view})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	req, err := decodeUpdateProfile(r.Body)
	if err != nil {
		h.respondError(r, w, err)
		return
	}

	view, err := h.auth.UpdateProfile(r.Context(), bearerToken(r), req)
	if err != nil {
		h.respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    view,
	})
}

// decodeUpdateProfile distinguishes "no body at all" (nil request) from a
// body whose fields are simply unusable, so the service can report "no data
// provided" versus "no valid fields to update".
func decodeUpdateProfile(body io.Reader) (*services.UpdateProfileRequest, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, common.Validation("invalid request body")
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, common.Validation("invalid request body")
	}
	if len(probe) == 0 {
		return nil, nil
	}

	req := &services.UpdateProfileRequest{}
	if err := json.Unmarshal(raw, req); err != nil {
		return nil, common.Validation("invalid request body")
	}
	return req, nil
}

func (h *Handler) verifyToken(w http.ResponseWriter, r *http.Request) {
	info, err := h.auth.VerifyToken(r.Context(), bearerToken(r))
	if err != nil {
		h.respondError(r, w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":   "Token is valid",
		"user_id":   info.UserID,
		"user_type": info.UserType,
	})
}
