package server

import (
	"net/http"

	"auction-house/internal/config"
	"auction-house/utils"

	"github.com/gorilla/csrf"
)

// NewHandler wraps the router with CSRF protection. Every unsafe request must
// carry the token, either as the form field rendered by the templates or in
// the X-CSRF-Token header.
func NewHandler(router http.Handler, sec config.SecurityConfig, csrfKey []byte) http.Handler {
	protect := csrf.Protect(
		csrfKey,
		csrf.Secure(sec.CookieSecure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(sec.TrustedHosts),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)
	protected := protect(router)

	if sec.CookieSecure {
		return protected
	}
	// without TLS the Referer checks meant for HTTPS would reject every form
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}

func csrfFailure(w http.ResponseWriter, r *http.Request) {
	fields := map[string]any{"method": r.Method, "path": r.URL.Path}
	if reason := csrf.FailureReason(r); reason != nil {
		fields["reason"] = reason.Error()
	}
	utils.Warn("csrf check failed", fields)
	http.Error(w, "Forbidden - CSRF token invalid", http.StatusForbidden)
}
