package wirechat

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims mirrors the claims wirechat servers put into access tokens.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	IsGuest  bool   `json:"is_guest"`
	jwt.RegisteredClaims
}

// TokenInfo is what the client can learn from a token without the signing key.
type TokenInfo struct {
	UserID    int64
	Username  string
	IsGuest   bool
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now.
// Tokens without an expiry never expire.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// InspectToken decodes the claims of a wirechat token. The signature is not
// verified; the server does that on hello.
func InspectToken(token string) (TokenInfo, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("parse token: %w", err)
	}

	info := TokenInfo{
		UserID:   claims.UserID,
		Username: claims.Username,
		IsGuest:  claims.IsGuest,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
