package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/sarelsmotors/garage/internal/api/dto"
	"github.com/sarelsmotors/garage/internal/api/middleware"
	"github.com/sarelsmotors/garage/internal/auth"
	"github.com/sarelsmotors/garage/internal/database/models"
	"gorm.io/gorm"
)

// loginNotices maps the guard's error codes to what the login page shows.
var loginNotices = map[string]string{
	middleware.ErrorConfigMissing: "Sign-in is not available right now. Please contact your administrator.",
	middleware.ErrorInvalidToken:  "Your session has expired. Please sign in again.",
}

// TemplateExecutor renders a named page.
type TemplateExecutor interface {
	ExecuteTemplate(w io.Writer, name string, data interface{}) error
}

type DashboardHandler struct {
	db            *gorm.DB
	authService   auth.Authenticator
	templates     TemplateExecutor
	csrf          *middleware.CSRFStore
	loginPath     string
	landingPath   string
	secureCookies bool
	logger        *slog.Logger
}

type DashboardConfig struct {
	DB            *gorm.DB
	AuthService   auth.Authenticator
	Templates     TemplateExecutor
	CSRF          *middleware.CSRFStore
	LoginPath     string
	LandingPath   string
	SecureCookies bool
	Logger        *slog.Logger
}

func NewDashboardHandler(cfg DashboardConfig) *DashboardHandler {
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}
	landingPath := cfg.LandingPath
	if landingPath == "" {
		landingPath = "/"
	}
	return &DashboardHandler{
		db:            cfg.DB,
		authService:   cfg.AuthService,
		templates:     cfg.Templates,
		csrf:          cfg.CSRF,
		loginPath:     loginPath,
		landingPath:   landingPath,
		secureCookies: cfg.SecureCookies,
		logger:        cfg.Logger,
	}
}

// Index is the landing page. The guard has already verified the session.
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		if !errors.Is(err, auth.ErrUserNotFound) {
			h.logger.Error("loading dashboard user", "error", err)
			http.Error(w, MsgInternal, http.StatusInternalServerError)
			return
		}
		// valid token for a user that was removed or deactivated
		middleware.ClearSessionCookie(w, h.secureCookies)
		http.Redirect(w, r, h.loginPath, http.StatusFound)
		return
	}

	stats, err := h.countWork(r.Context(), user.OrganizationID)
	if err != nil {
		h.logger.Error("loading dashboard stats", "error", err)
	}

	var csrfToken string
	if h.csrf != nil {
		if csrfToken, err = middleware.GetCSRFToken(r, h.csrf); err != nil {
			h.logger.Error("issuing csrf token", "error", err)
			http.Error(w, MsgInternal, http.StatusInternalServerError)
			return
		}
	}

	h.render(w, "dashboard.html", map[string]interface{}{
		"User":      dto.NewUserDTO(user),
		"Stats":     stats,
		"CSRFToken": csrfToken,
		"LoginPath": h.loginPath,
	})
}

// Stats is the JSON form of the dashboard counters.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.countWork(r.Context(), middleware.GetOrganizationID(r.Context()))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *DashboardHandler) countWork(ctx context.Context, orgID uuid.UUID) (dto.DashboardStats, error) {
	var stats dto.DashboardStats
	db := h.db.WithContext(ctx)

	if err := db.Model(&models.Quote{}).
		Where("organization_id = ? AND status IN ?", orgID, []string{string(models.QuoteStatusDraft), string(models.QuoteStatusSent)}).
		Count(&stats.OpenQuotes).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.JobCard{}).
		Where("organization_id = ? AND status IN ?", orgID, []string{string(models.JobCardStatusPending), string(models.JobCardStatusInProgress)}).
		Count(&stats.ActiveJobCards).Error; err != nil {
		return stats, err
	}
	if err := db.Model(&models.Invoice{}).
		Where("organization_id = ? AND status = ?", orgID, string(models.InvoiceStatusSent)).
		Count(&stats.UnpaidInvoices).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

func (h *DashboardHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.render(w, "login.html", map[string]interface{}{
		"Notice":      loginNotices[r.URL.Query().Get("error")],
		"LandingPath": h.landingPath,
	})
}

func (h *DashboardHandler) render(w http.ResponseWriter, name string, data interface{}) {
	if h.templates == nil {
		http.Error(w, "Templates not loaded", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("rendering template", "template", name, "error", err)
		http.Error(w, MsgInternal, http.StatusInternalServerError)
	}
}
