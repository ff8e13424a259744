package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Context key types to avoid collisions (Go best practice)
type contextKey string

const (
	UserIDKey   contextKey = "userID"
	UsernameKey contextKey = "username"
	RoleKey     contextKey = "role"
)

// HTTP header constants
const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
)

// HTTP path constants
const (
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// Error message constants
const (
	ErrAuthHeaderRequired = "Authorization header required"
	ErrInvalidAuthHeader  = "Invalid authorization header format"
	ErrInvalidToken       = "Invalid or expired token"
	ErrRoleNotFound       = "User role not found"
	ErrInvalidRole        = "Invalid user role"
	ErrInsufficientRole   = "Insufficient permissions"
	ErrRoleLookupFailed   = "Failed to verify user role"

	ErrUserIDNotFound     = "user ID not found in context"
	ErrRoleNotInContext   = "role not found in context"
	ErrInvalidTokenClaims = "invalid token claims"
	ErrTokenExpired       = "token expired"
	ErrTokenIssuedFuture  = "token issued in the future"
	ErrTokenParseFailed   = "failed to parse token: %w"
	ErrMissingSubject     = "token has no subject"
)

// Log message constants
const (
	LogJWTValidationFailed = "JWT token validation failed"
	LogRoleLookupFailed    = "Role lookup failed"
)

// JWTClaims represents the claims in the bearer token
type JWTClaims struct {
	Sub               string           `json:"sub"`
	Iat               int64            `json:"iat"`
	Exp               int64            `json:"exp"`
	Iss               string           `json:"iss"`
	Aud               jwt.ClaimStrings `json:"aud"`
	Name              string           `json:"name"`
	PreferredUsername string           `json:"preferred_username"`
	Email             string           `json:"email"`
}

// GetAudience implements jwt.Claims interface
func (c *JWTClaims) GetAudience() (jwt.ClaimStrings, error) {
	return c.Aud, nil
}

// GetExpirationTime implements jwt.Claims interface
func (c *JWTClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.Exp == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}

// GetIssuedAt implements jwt.Claims interface
func (c *JWTClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	if c.Iat == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.Iat, 0)), nil
}

// GetIssuer implements jwt.Claims interface
func (c *JWTClaims) GetIssuer() (string, error) {
	return c.Iss, nil
}

// GetNotBefore implements jwt.Claims interface
func (c *JWTClaims) GetNotBefore() (*jwt.NumericDate, error) {
	return nil, nil
}

// GetSubject implements jwt.Claims interface
func (c *JWTClaims) GetSubject() (string, error) {
	return c.Sub, nil
}
