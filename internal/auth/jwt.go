package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/whisperbox/whisperbox-be/internal/models"
)

const (
	// CookieName is the session cookie the token travels in.
	CookieName = "token"

	// SessionDuration is how long an issued session stays valid.
	SessionDuration = 30 * 24 * time.Hour

	// RefreshThreshold is the token age past which a request causes the
	// session cookie to be re-issued with a fresh expiry (sliding session).
	RefreshThreshold = 24 * time.Hour
)

// Claims defines the session token claims structure. The claims are a
// snapshot taken at issuance; only the identity fields are trusted for
// authorization, volatile flags are re-read from the store by the services.
type Claims struct {
	UserID              string `json:"userId"`
	Username            string `json:"username"`
	Email               string `json:"email"`
	IsVerified          bool   `json:"isVerified"`
	IsAcceptingMessages bool   `json:"isAcceptingMessages"`
	jwt.RegisteredClaims
}

// UserClaimsKey is the context key for user claims.
type contextKey string

const UserClaimsKey = contextKey("userClaims")

// Manager issues and validates session tokens.
type Manager struct {
	secret        []byte
	secureCookies bool
}

// NewManager creates a token manager. secureCookies should be true in
// production so the session cookie is only sent over TLS.
func NewManager(secret string, secureCookies bool) *Manager {
	return &Manager{secret: []byte(secret), secureCookies: secureCookies}
}

// Generate creates a new session token for a given user.
func (m *Manager) Generate(user models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:              user.ID,
		Username:            user.Username,
		Email:               user.Email,
		IsVerified:          user.IsVerified,
		IsAcceptingMessages: user.IsAcceptingMessages,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses and validates a session token string.
func (m *Manager) Validate(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// SetSessionCookie writes the session cookie on the response.
func (m *Manager) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(SessionDuration),
		HttpOnly: true,
		Secure:   m.secureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}

// ClearSessionCookie expires the session cookie.
func (m *Manager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}

// tokenFromRequest extracts the raw token, preferring the Authorization
// header over the cookie.
func tokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, "Bearer ")
		if len(parts) == 2 {
			return parts[1]
		}
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Middleware creates a middleware for protecting routes. Requests without a
// valid session are rejected with a 401 envelope; valid sessions older than
// the refresh threshold get a re-issued cookie with a fresh expiry.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				writeUnauthorized(w)
				return
			}

			claims, err := m.Validate(tokenStr)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			if claims.IssuedAt != nil && time.Since(claims.IssuedAt.Time) > RefreshThreshold {
				if fresh, err := m.reissue(claims); err == nil {
					m.SetSessionCookie(w, fresh)
				}
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// reissue signs a new token carrying the same claims snapshot.
func (m *Manager) reissue(claims *Claims) (string, error) {
	return m.Generate(models.User{
		ID:                  claims.UserID,
		Username:            claims.Username,
		Email:               claims.Email,
		IsVerified:          claims.IsVerified,
		IsAcceptingMessages: claims.IsAcceptingMessages,
	})
}

// FromContext retrieves the session claims set by Middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": "Not authenticated",
	})
}
