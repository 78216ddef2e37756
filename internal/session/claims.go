package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the account role asserted by a session token.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ErrMalformedToken is returned when a session token cannot be decoded.
var ErrMalformedToken = errors.New("malformed session token")

// Claims is the decoded payload of a session token issued by the backend.
// It is a display hint only: the signature is never checked here.
type Claims struct {
	Role     Role   `json:"role"`
	ID       int64  `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser()

// Decode reads the claims of token without verifying its signature or expiry.
func Decode(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// Expiry returns the exp claim, if present.
func (c *Claims) Expiry() (time.Time, bool) {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}

// IsAdmin reports whether the claims carry the ADMIN role.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// IsUser reports whether the claims carry the USER role.
func (c *Claims) IsUser() bool {
	return c != nil && c.Role == RoleUser
}
