package daemon

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"transsrt/internal/api"
)

// authMiddleware validates bearer tokens. An empty token disables
// authentication. CORS preflight requests always pass so browsers can learn
// the allowed headers before sending credentials.
func (s *apiServer) authMiddleware(token string, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		presented, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			s.applyCORS(w, r)
			s.writeJSON(w, http.StatusUnauthorized, api.NewErrorBody(api.CodeUnauthorized, "unauthorized"))
			return
		}
		next(w, r)
	}
}
