package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoUser       = errors.New("token has no user_id")
)

// TokenTTL is the lifetime of tokens minted by GenerateToken.
const TokenTTL = 15 * time.Minute

// Claims are issued by the external session provider. Admins reach every
// shop; everyone else only the shops listed in ShopIDs.
type Claims struct {
	UserID  uuid.UUID   `json:"user_id"`
	IsAdmin bool        `json:"is_admin"`
	ShopIDs []uuid.UUID `json:"shop_ids"`
	jwt.RegisteredClaims
}

// CanAccessShop reports whether the holder may act on shopID.
func (c *Claims) CanAccessShop(shopID uuid.UUID) bool {
	return c.IsAdmin || slices.Contains(c.ShopIDs, shopID)
}

// GenerateToken mints an HS256 token. Production tokens come from the
// session provider; this exists for tests and local tooling.
func GenerateToken(secret string, userID uuid.UUID, isAdmin bool, shopIDs ...uuid.UUID) (string, error) {
	claims := Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		ShopIDs: shopIDs,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken checks the HS256 signature and expiry and requires a user.
func ValidateToken(secret, tokenStr string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuedAt())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.UserID == uuid.Nil {
		return nil, ErrNoUser
	}
	return &claims, nil
}
