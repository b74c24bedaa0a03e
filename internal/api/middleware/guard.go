package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/sarelsmotors/garage/internal/auth"
)

const (
	ErrorConfigMissing = "config_missing"
	ErrorInvalidToken  = "invalid_token"
)

var exemptPrefixes = []string{"/api/", "/static/"}

var exemptPaths = map[string]bool{
	"/api":         true,
	"/health":      true,
	"/ready":       true,
	"/favicon.ico": true,
	"/auth-error":  true,
}

type GuardConfig struct {
	Tokens      auth.TokenService
	Revocations auth.RevocationStore
	LoginPath   string
	LandingPath string

	// SecureCookies marks cleared cookies Secure, matching how they were set.
	SecureCookies bool
	Logger        *slog.Logger
}

// IsExempt reports whether the guard lets path through untouched: API and
// static routes, probes, and anything whose last segment looks like a file.
func IsExempt(p string) bool {
	if exemptPaths[p] {
		return true
	}
	for _, prefix := range exemptPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return strings.Contains(path.Base(p), ".")
}

// Guard gates every page route on a valid session cookie. Unauthenticated
// visitors go to the login page and authenticated ones are sent away from it.
func Guard(cfg GuardConfig) func(http.Handler) http.Handler {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.LandingPath == "" {
		cfg.LandingPath = "/"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := r.URL.Path
			if IsExempt(p) {
				next.ServeHTTP(w, r)
				return
			}
			onLogin := p == cfg.LoginPath

			if cfg.Tokens == nil || !cfg.Tokens.Configured() {
				cfg.Logger.Error("route guard: token signing key is not configured")
				if onLogin {
					next.ServeHTTP(w, r)
					return
				}
				redirect(w, r, cfg.LoginPath, ErrorConfigMissing)
				return
			}

			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				if onLogin {
					next.ServeHTTP(w, r)
					return
				}
				cfg.Logger.Debug("route guard: no session cookie", "path", p)
				redirect(w, r, cfg.LoginPath, "")
				return
			}

			claims, err := cfg.Tokens.ValidateToken(cookie.Value)
			if err == nil && isRevoked(r.Context(), cfg.Revocations, cookie.Value, cfg.Logger) {
				err = auth.ErrInvalidToken
			}
			if err != nil {
				cfg.Logger.Warn("route guard: session token rejected", "path", p, "error", err)
				ClearSessionCookie(w, cfg.SecureCookies)
				redirect(w, r, cfg.LoginPath, ErrorInvalidToken)
				return
			}

			if onLogin {
				http.Redirect(w, r, cfg.LandingPath, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims, cookie.Value)))
		})
	}
}

func redirect(w http.ResponseWriter, r *http.Request, target, reason string) {
	if reason != "" {
		target += "?error=" + url.QueryEscape(reason)
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// SetSessionCookie writes the session token cookie.
func SetSessionCookie(w http.ResponseWriter, token string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	SetSessionCookie(w, "", -1, secure)
}
