package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/slms/internal/auth"
	"github.com/erazemk/slms/internal/clock"
	"github.com/erazemk/slms/internal/directory"
	"github.com/erazemk/slms/internal/errs"
	"github.com/erazemk/slms/internal/model"
	"github.com/erazemk/slms/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Dir       *directory.Directory
	DB        *sql.DB
	JWTSecret string
	Expiry    time.Duration
	Clock     clock.Clock
}

type studentLoginRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

type adminLoginRequest struct {
	AdminID  string `json:"admin_id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string     `json:"token"`
	AccountID string     `json:"account_id"`
	Role      model.Role `json:"role"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// StudentLogin handles POST /api/auth/login. Unknown but well-formed
// identifiers get an account on first login.
func (h *AuthHandler) StudentLogin(w http.ResponseWriter, r *http.Request) {
	var req studentLoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.Dir.LoginStudent(req.StudentID, req.Password)
	if err != nil {
		slog.Warn("student login failed", "student", req.StudentID, "remote", r.RemoteAddr, "reason", errs.KindOf(err))
		writeError(w, err)
		return
	}

	h.issue(w, account)
}

// AdminLogin handles POST /api/auth/admin/login.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.Dir.LoginAdmin(req.AdminID, req.Password)
	if err != nil {
		slog.Warn("admin login failed", "admin", req.AdminID, "remote", r.RemoteAddr)
		writeError(w, err)
		return
	}

	h.issue(w, account)
}

func (h *AuthHandler) issue(w http.ResponseWriter, account *model.Account) {
	now := h.Clock.Now()
	expiry := h.Expiry
	if expiry <= 0 {
		expiry = auth.DefaultTokenExpiry
	}

	token, err := auth.GenerateToken(h.JWTSecret, account.ID, account.Role, expiry, now)
	if err != nil {
		slog.Error("generating token", "account", account.ID, "error", err)
		jsonError(w, http.StatusInternalServerError, errs.KindInternalConsistency, "failed to generate token")
		return
	}

	slog.Info("logged in", "account", account.ID, "role", account.Role)
	jsonResponse(w, http.StatusOK, loginResponse{
		Token:     token,
		AccountID: account.ID,
		Role:      account.Role,
		ExpiresAt: now.Add(expiry),
	})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, errs.KindNotAuthenticated, "not authenticated")
		return
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, claims.ExpiresAt.Time, h.Clock.Now()); err != nil {
		slog.Error("revoking token", "account", claims.Subject, "error", err)
		jsonError(w, http.StatusInternalServerError, errs.KindInternalConsistency, "failed to revoke token")
		return
	}

	slog.Info("logged out", "account", claims.Subject, "role", claims.Role)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}
