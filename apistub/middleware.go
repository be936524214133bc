package apistub

import (
	"context"
	"net/http"
	"strings"
)

// authenticate validates the bearer access token. Role comes from the account,
// not the token, the way a database-backed API sees it.
func (s *Stub) authenticate(r *http.Request) (principal, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return principal{}, false
	}

	claims, err := s.signer.Verify(parts[1])
	if err != nil {
		return principal{}, false
	}
	if kind, _ := claims["token_type"].(string); kind != "access" {
		return principal{}, false
	}
	gen, _ := claims["gen"].(float64)
	if int64(gen) < s.minGeneration.Load() {
		return principal{}, false
	}
	userID, _ := claims["user_id"].(float64)

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data.accounts[int(userID)]
	if !ok {
		return principal{}, false
	}
	return principal{UserID: a.ID, Role: a.Role}, true
}

// requireAuth rejects requests without a live access token with 401
func (s *Stub) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := s.authenticate(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Given token not valid for any token type",
				"code":   "token_not_valid",
			})
			return
		}
		s.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Int("user_id", p.UserID).Msg("api request")
		next(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, p)))
	}
}

// requireAdmin additionally answers 403 for staff
func (s *Stub) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		if !principalFrom(r.Context()).Role.IsAdmin() {
			writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next(w, r)
	})
}
