package auth

import (
	"errors"
	"net/http"
	"strings"
)

var (
	ErrNoToken        = errors.New("missing bearer token")
	ErrMalformedToken = errors.New("authorization header must be \"Bearer <token>\"")
)

// TokenFromRequest reads the bearer token from the Authorization header, or
// from the token query parameter when allowQuery is set. Browsers cannot set
// headers on a websocket handshake, so the feed endpoint passes true.
func TokenFromRequest(r *http.Request, allowQuery bool) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			return "", ErrMalformedToken
		}
		return strings.TrimSpace(token), nil
	}
	if allowQuery {
		if token := r.URL.Query().Get("token"); token != "" {
			return token, nil
		}
	}
	return "", ErrNoToken
}

// ClaimsFromRequest combines TokenFromRequest and ValidateToken.
func ClaimsFromRequest(r *http.Request, secret string, allowQuery bool) (*Claims, error) {
	token, err := TokenFromRequest(r, allowQuery)
	if err != nil {
		return nil, err
	}
	return ValidateToken(secret, token)
}
