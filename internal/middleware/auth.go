package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/medsport/attachments/internal/ctxkeys"
	"github.com/medsport/attachments/internal/service"
)

// Actor resolves the acting user from a bearer token or the auth_token cookie.
// Requests without a valid token continue anonymously.
func Actor(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authService.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := authService.VerifyJWT(token)
			if err != nil {
				slog.Debug("ignoring invalid token", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			actor, ok := service.ActorID(claims)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}

	cookie, err := r.Cookie("auth_token")
	if err != nil {
		return ""
	}
	return cookie.Value
}

// RequireActor rejects anonymous requests when required is set.
// With required false it is a no-op, so routes can be wired the same way in every environment.
func RequireActor(required bool) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if !required {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			if ctxkeys.Actor(r.Context()) == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="attachments"`)
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
				return
			}
			next(w, r)
		}
	}
}

// writeError mirrors the handler error envelope for responses produced before routing.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
