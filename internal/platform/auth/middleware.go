// Package auth authenticates clinic staff with HS256 bearer tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const staffKey contextKey = "staff"

// DevStaffID is the identity assigned to unauthenticated requests in
// development mode.
const DevStaffID = "dev-user"

// Claims is the token payload issued to staff members.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// Staff identifies the authenticated caller.
type Staff struct {
	ID   string
	Name string
}

type Config struct {
	SigningKey []byte
	Issuer     string
	// Dev lets requests without an Authorization header through as DevStaffID.
	// Tokens that are present are still verified.
	Dev bool
}

// Middleware verifies the bearer token and stores the caller on the request
// context.
func Middleware(cfg Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				if cfg.Dev {
					setStaff(c, Staff{ID: DevStaffID, Name: "Development"})
					return next(c)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := ParseToken(cfg, parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			setStaff(c, Staff{ID: claims.Subject, Name: claims.Name})
			return next(c)
		}
	}
}

func setStaff(c echo.Context, s Staff) {
	ctx := context.WithValue(c.Request().Context(), staffKey, s)
	c.SetRequest(c.Request().WithContext(ctx))
}

// ParseToken verifies signature, issuer and expiry and returns the claims.
func ParseToken(cfg Config, tokenStr string) (*Claims, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("no signing key configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return cfg.SigningKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// IssueToken signs a staff token valid for ttl from now.
func IssueToken(cfg Config, subject, name string, ttl time.Duration, now time.Time) (string, error) {
	if len(cfg.SigningKey) == 0 {
		return "", errors.New("no signing key configured")
	}
	if subject == "" {
		return "", errors.New("subject is required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: name,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.SigningKey)
}

// StaffFromContext returns the authenticated caller, if any.
func StaffFromContext(ctx context.Context) (Staff, bool) {
	s, ok := ctx.Value(staffKey).(Staff)
	return s, ok
}
