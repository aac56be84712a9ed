package middleware

import (
	"log/slog"
	"net/http"

	httpcontext "github.com/n1rocket/go-profile-validity/internal/http/context"
	"github.com/n1rocket/go-profile-validity/internal/http/response"
	"github.com/n1rocket/go-profile-validity/internal/identity"
)

// RequireUser resolves the caller once and stores the canonical user id in
// the request context. Requests without an identity get 401; identities of
// an unsupported shape get 400.
func RequireUser(resolver identity.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := resolver.Resolve(r)
			if err != nil {
				slog.Warn("identity resolution failed",
					"request_id", httpcontext.RequestID(r.Context()),
					"error", err,
				)
				response.WriteError(w, err)
				return
			}

			userID, err := principal.UserID()
			if err != nil {
				response.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(httpcontext.WithUserID(r.Context(), userID)))
		})
	}
}
