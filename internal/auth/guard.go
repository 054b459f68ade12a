package auth

import (
	"net/http"
	"strings"
)

// PageGuard routes visitors between the public and authenticated areas. It
// decides purely from token presence and path, it never touches the store:
//
//   - a valid session on a guest-only page (landing, sign-up, verify,
//     sign-in) is redirected to the dashboard,
//   - no session on a dashboard page is redirected to sign-in,
//   - everything else passes through unchanged.
func (m *Manager) PageGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hasSession := false
			if tokenStr := tokenFromRequest(r); tokenStr != "" {
				if _, err := m.Validate(tokenStr); err == nil {
					hasSession = true
				}
			}

			path := r.URL.Path
			if hasSession && isGuestOnlyPath(path) {
				http.Redirect(w, r, "/dashboard", http.StatusTemporaryRedirect)
				return
			}
			if !hasSession && strings.HasPrefix(path, "/dashboard") {
				http.Redirect(w, r, "/sign-in", http.StatusTemporaryRedirect)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isGuestOnlyPath(path string) bool {
	return path == "/" ||
		strings.HasPrefix(path, "/sign-up") ||
		strings.HasPrefix(path, "/verify") ||
		strings.HasPrefix(path, "/sign-in")
}
