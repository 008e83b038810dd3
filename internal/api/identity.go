package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/errandly/errandly/internal/model"
	"github.com/errandly/errandly/internal/service"
)

type ctxKey int

const userKey ctxKey = iota

// WithIdentity resolves the caller's external identity (X-Identity header,
// falling back to the identity query parameter) to a stored user and puts
// the record on the request context. Banned users are rejected outright.
func WithIdentity(users *service.UserService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := strings.TrimSpace(r.Header.Get("X-Identity"))
			if identity == "" {
				identity = strings.TrimSpace(r.URL.Query().Get("identity"))
			}
			if identity == "" {
				writeErr(w, http.StatusUnauthorized, "identity is required")
				return
			}
			u, err := users.Resolve(r.Context(), identity)
			if err != nil {
				writeDomainErr(w, err)
				return
			}
			if u.Banned {
				writeErr(w, http.StatusForbidden, "account is banned")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
		})
	}
}

func currentUser(r *http.Request) *model.User {
	u, _ := r.Context().Value(userKey).(*model.User)
	return u
}
