package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

// Authenticate rejects requests without a valid bearer token and stores the
// claims on the request context.
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := auth.ClaimsFromRequest(r, jwtSecret, false)
			switch {
			case errors.Is(err, auth.ErrNoToken), errors.Is(err, auth.ErrMalformedToken):
				deny(w, http.StatusUnauthorized, err.Error())
			case err != nil:
				deny(w, http.StatusUnauthorized, "invalid token")
			default:
				next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
			}
		})
	}
}

// RequireShop lets admins through and everyone else only into the shops
// listed in their token. The shop comes from the {sid} route parameter.
func RequireShop(next http.Handler) http.Handler {
	return guard(func(claims *auth.Claims, r *http.Request) (int, string) {
		sid, err := uuid.Parse(chi.URLParam(r, "sid"))
		if err != nil {
			return http.StatusBadRequest, "invalid shop ID"
		}
		if !claims.CanAccessShop(sid) {
			return http.StatusForbidden, "access denied for this shop"
		}
		return 0, ""
	}, next)
}

func RequireAdmin(next http.Handler) http.Handler {
	return guard(func(claims *auth.Claims, _ *http.Request) (int, string) {
		if !claims.IsAdmin {
			return http.StatusForbidden, "insufficient permissions"
		}
		return 0, ""
	}, next)
}

// guard runs check against the authenticated caller. A non-zero status
// stops the chain.
func guard(check func(*auth.Claims, *http.Request) (int, string), next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			deny(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if status, msg := check(claims, r); status != 0 {
			deny(w, status, msg)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
