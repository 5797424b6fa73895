package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ayo6706/wallet-ledger/internal/api/middleware"
	"github.com/ayo6706/wallet-ledger/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultTokenTTL = 24 * time.Hour
	maxTokenTTL     = 30 * 24 * time.Hour
)

// AuthHandler lets an admin mint tokens for users. Identity itself is owned by
// an external provider.
type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
		TTL    string `json:"ttl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-body", "Invalid request body")
		return
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		RespondError(w, r, http.StatusBadRequest, "request/invalid-user-id", "user_id is required")
		return
	}

	role := strings.ToLower(strings.TrimSpace(req.Role))
	switch role {
	case "":
		role = domain.RoleUser
	case domain.RoleUser, domain.RoleAdmin:
	default:
		RespondError(w, r, http.StatusBadRequest, "request/invalid-role", "role must be user or admin")
		return
	}

	ttl := defaultTokenTTL
	if req.TTL != "" {
		parsed, err := time.ParseDuration(req.TTL)
		if err != nil || parsed <= 0 || parsed > maxTokenTTL {
			RespondError(w, r, http.StatusBadRequest, "request/invalid-ttl", "ttl must be a positive duration of at most 720h")
			return
		}
		ttl = parsed
	}

	token, err := middleware.IssueToken(userID, role, ttl)
	if err != nil {
		zap.L().Error("sign token failed", zap.Error(err))
		RespondError(w, r, http.StatusInternalServerError, "auth/token-signing-failed", "Failed to sign token")
		return
	}
	RespondJSON(w, http.StatusCreated, map[string]string{
		"token":      token,
		"expires_in": ttl.String(),
	})
}
