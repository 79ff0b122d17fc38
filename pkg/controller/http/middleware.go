package http

import (
	"net/http"

	"github.com/secmon-lab/gathsalt/pkg/domain/model/auth"
	"github.com/secmon-lab/gathsalt/pkg/utils/logging"
)

// authMiddleware binds the session user to the request context. In no-auth
// mode every request runs as the anonymous user.
func authMiddleware(authUC AuthUseCase) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authUC == nil || authUC.IsNoAuthn() {
				ctx := auth.ContextWithUser(r.Context(), auth.NewAnonymousUser())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			cookie, err := r.Cookie(sessionCookieName)
			if err != nil {
				writeError(r.Context(), w, http.StatusUnauthorized, "Authentication required")
				return
			}

			user, err := authUC.Validate(r.Context(), cookie.Value)
			if err != nil {
				writeError(r.Context(), w, http.StatusUnauthorized, "Invalid authentication token")
				return
			}

			ctx := auth.ContextWithUser(r.Context(), user)
			ctx = logging.With(ctx, logging.From(ctx).With("user", user.Subject()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
