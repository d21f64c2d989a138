package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"tunely/internal/logging"
)

// requireToken guards next with the configured API token. Without a token
// the API is open, which is only sensible on a loopback bind.
func (s *apiServer) requireToken(token string, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	want := []byte(token)
	return func(w http.ResponseWriter, r *http.Request) {
		if subtle.ConstantTimeCompare([]byte(bearerToken(r)), want) == 1 {
			next(w, r)
			return
		}
		s.logger.Debug("api request rejected",
			logging.String("path", r.URL.Path),
			logging.String("remote", r.RemoteAddr),
			logging.String(logging.FieldEventType, "api_unauthorized"),
		)
		w.Header().Set("WWW-Authenticate", `Bearer realm="tunely"`)
		s.writeError(w, http.StatusUnauthorized, "unauthorized")
	}
}

// bearerToken extracts the credential from an Authorization header. The
// scheme name is matched case-insensitively.
func bearerToken(r *http.Request) string {
	scheme, credential, ok := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(credential)
}
