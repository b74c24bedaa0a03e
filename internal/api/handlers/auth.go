package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sarelsmotors/garage/internal/api/dto"
	"github.com/sarelsmotors/garage/internal/api/middleware"
	"github.com/sarelsmotors/garage/internal/auth"
)

type AuthHandler struct {
	authService   auth.Authenticator
	tokens        auth.TokenService
	revocations   auth.RevocationStore
	csrf          *middleware.CSRFStore
	cookieMaxAge  int
	secureCookies bool
	logger        *slog.Logger
}

type AuthHandlerConfig struct {
	AuthService auth.Authenticator
	Tokens      auth.TokenService
	// Revocations is optional; without it logout only clears the cookie.
	Revocations auth.RevocationStore
	// CSRF, when set, has the session's token dropped on logout.
	CSRF          *middleware.CSRFStore
	SessionTTL    time.Duration
	SecureCookies bool
	Logger        *slog.Logger
}

func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	maxAge := int(cfg.SessionTTL.Seconds())
	if maxAge <= 0 {
		maxAge = 86400
	}
	return &AuthHandler{
		authService:   cfg.AuthService,
		tokens:        cfg.Tokens,
		revocations:   cfg.Revocations,
		csrf:          cfg.CSRF,
		cookieMaxAge:  maxAge,
		secureCookies: cfg.SecureCookies,
		logger:        cfg.Logger,
	}
}

// Login exchanges email and password for a session cookie. Unknown users,
// users without a password and wrong passwords get the same 401.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidBody)
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Message: MsgMissingFields, Details: errors})
		return
	}

	resp, err := h.authService.Login(r.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       middleware.ClientIP(r),
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	middleware.SetSessionCookie(w, resp.Token, h.cookieMaxAge, h.secureCookies)

	h.logger.Info("user logged in", "user_id", resp.User.ID, "org_id", resp.User.OrganizationID)
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: MsgLoginSuccessful})
}

// Logout clears the session cookie and, when revocation is enabled, keeps
// the token from being used again before it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.TokenFromRequest(r); token != "" {
		h.revoke(r, token)
	}
	if h.csrf != nil {
		if sessionID := middleware.SessionID(r); sessionID != "" {
			h.csrf.Forget(sessionID)
		}
	}

	middleware.ClearSessionCookie(w, h.secureCookies)
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: MsgLoggedOut})
}

func (h *AuthHandler) revoke(r *http.Request, token string) {
	if h.revocations == nil {
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		return
	}
	if err := h.revocations.Revoke(r.Context(), token, auth.RemainingTTL(claims, time.Now())); err != nil {
		h.logger.Warn("failed to revoke session", "user_id", claims.UserID, "error", err)
	}
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUserDTO(user))
}
