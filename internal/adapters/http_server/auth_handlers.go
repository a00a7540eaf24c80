package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

type ctxKey int

const userIDKey ctxKey = iota

// requireAuth verifies the bearer token and stashes the caller's user id in
// the request context.
func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			h.writeError(w, http.StatusUnauthorized, "missing bearer token", "")
			return
		}
		uid, err := h.Auth.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			h.writeError(w, http.StatusUnauthorized, "invalid or expired token", "")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, uid)))
	})
}

// optionalAuth stashes the caller's user id when a valid bearer token is
// present but never rejects. Resource reads work anonymously; a token just
// scopes the vendor call to the owner's account.
func (h *Handlers) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			if uid, err := h.Auth.Verify(strings.TrimPrefix(header, "Bearer ")); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, uid))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func userID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

// actingHostawayID resolves the caller's vendor-side account id, when the
// request is authenticated and the user has one mapped.
func (h *Handlers) actingHostawayID(r *http.Request) string {
	uid := userID(r.Context())
	if uid == 0 {
		return ""
	}
	user, err := h.Repo.UserByID(r.Context(), uid)
	if err != nil || user.HostawayUserID == nil {
		return ""
	}
	return strconv.FormatInt(*user.HostawayUserID, 10)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed JSON body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "email and password are required", "")
		return
	}

	user, token, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "token": token})
}

func (h *Handlers) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Auth.UserByID(r.Context(), userID(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

type fcmTokenRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"omitempty,oneof=ios android"`
}

func (h *Handlers) registerFCMToken(w http.ResponseWriter, r *http.Request) {
	var req fcmTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed JSON body", "")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.writeError(w, http.StatusBadRequest, "token is required; platform must be ios or android", "")
		return
	}

	if err := h.Auth.RegisterDeviceToken(r.Context(), userID(r.Context()), req.Token, req.Platform); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
