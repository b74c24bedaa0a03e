package middleware

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	csrfTokenLength = 32
	csrfCookieName  = "csrf_token"
	csrfHeaderName  = "X-CSRF-Token"
	csrfFormField   = "csrf_token"
	csrfTokenExpiry = 24 * time.Hour
)

// CSRFToken represents a CSRF token with expiry
type CSRFToken struct {
	Token     string
	ExpiresAt time.Time
}

// CSRFStore keeps one token per session in memory. Sessions are keyed by a
// hash of the session cookie.
type CSRFStore struct {
	tokens map[string]CSRFToken
	mu     sync.RWMutex
	now    func() time.Time
	rand   io.Reader
}

func NewCSRFStore() *CSRFStore {
	store := &CSRFStore{
		tokens: make(map[string]CSRFToken),
		now:    time.Now,
		rand:   rand.Reader,
	}

	go store.cleanup()

	return store
}

// cleanup removes expired tokens periodically
func (s *CSRFStore) cleanup() {
	ticker := time.NewTicker(time.Hour)
	for range ticker.C {
		s.mu.Lock()
		now := s.now()
		for sessionID, token := range s.tokens {
			if now.After(token.ExpiresAt) {
				delete(s.tokens, sessionID)
			}
		}
		s.mu.Unlock()
	}
}

// GetOrCreate returns an existing token or creates a new one
func (s *CSRFStore) GetOrCreate(sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token, exists := s.tokens[sessionID]; exists && s.now().Before(token.ExpiresAt) {
		return token.Token, nil
	}

	tokenBytes := make([]byte, csrfTokenLength)
	if _, err := io.ReadFull(s.rand, tokenBytes); err != nil {
		return "", fmt.Errorf("generating csrf token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(tokenBytes)

	s.tokens[sessionID] = CSRFToken{
		Token:     token,
		ExpiresAt: s.now().Add(csrfTokenExpiry),
	}

	return token, nil
}

// Validate checks if the provided token is valid for the session
func (s *CSRFStore) Validate(sessionID, providedToken string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, exists := s.tokens[sessionID]
	if !exists || s.now().After(token.ExpiresAt) {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(token.Token), []byte(providedToken)) == 1
}

// Forget drops the token for a session. Logout calls it.
func (s *CSRFStore) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.tokens, sessionID)
	s.mu.Unlock()
}

// CSRF protects cookie-authenticated requests. Safe methods only make sure
// the browser holds a token; Bearer-authenticated calls are not checked.
func CSRF(store *CSRFStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				if err := ensureCSRFCookie(w, r, store); err != nil {
					writeJSONMessage(w, http.StatusInternalServerError, "An error occurred")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if r.Header.Get("Authorization") != "" {
				next.ServeHTTP(w, r)
				return
			}

			sessionID := SessionID(r)
			if sessionID == "" {
				writeJSONMessage(w, http.StatusForbidden, "Session required")
				return
			}

			csrfToken := r.Header.Get(csrfHeaderName)
			if csrfToken == "" {
				csrfToken = r.FormValue(csrfFormField)
			}

			if csrfToken == "" {
				writeJSONMessage(w, http.StatusForbidden, "CSRF token missing")
				return
			}

			if !store.Validate(sessionID, csrfToken) {
				writeJSONMessage(w, http.StatusForbidden, "Invalid CSRF token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ensureCSRFCookie sets the CSRF token cookie if not present
func ensureCSRFCookie(w http.ResponseWriter, r *http.Request, store *CSRFStore) error {
	sessionID := SessionID(r)
	if sessionID == "" {
		return nil
	}

	if _, err := r.Cookie(csrfCookieName); err == nil {
		return nil
	}

	token, err := store.GetOrCreate(sessionID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: false, // read by the page script
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(csrfTokenExpiry.Seconds()),
	})
	return nil
}

// SessionID derives the CSRF session key from the session cookie. Every
// HS256 token starts with the same header, so the whole token is hashed.
func SessionID(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(cookie.Value))
	return hex.EncodeToString(sum[:16])
}

// GetCSRFToken helper to get CSRF token for templates
func GetCSRFToken(r *http.Request, store *CSRFStore) (string, error) {
	sessionID := SessionID(r)
	if sessionID == "" {
		return "", nil
	}
	return store.GetOrCreate(sessionID)
}
