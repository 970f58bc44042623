// Package auth supplies already-authenticated identity to the rest of the
// application. Tokens carry a subject, a role, and for hospital accounts the
// hospital ID; downstream code reads them from the request context and never
// touches credentials itself.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	subjectKey    contextKey = "auth_subject"
	roleKey       contextKey = "auth_role"
	hospitalIDKey contextKey = "auth_hospital_id"
)

// Roles understood by the application.
const (
	RoleAdmin    = "admin"
	RoleReviewer = "reviewer"
	RoleHospital = "hospital"
)

type Claims struct {
	jwt.RegisteredClaims
	Role       string `json:"role"`
	HospitalID string `json:"hospital_id,omitempty"`
}

// JWTMiddleware validates the bearer token with the shared HMAC secret and
// stores subject, role, and hospital ID in the request context.
func JWTMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
				func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
					}
					return secret, nil
				})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, subjectKey, claims.Subject)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			if claims.HospitalID != "" {
				if hid, err := uuid.Parse(claims.HospitalID); err == nil {
					ctx = context.WithValue(ctx, hospitalIDKey, hid)
				}
			}
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// DevAuthMiddleware grants unauthenticated requests admin access. Development
// only; runServer refuses this path outside ENV=development.
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, subjectKey, "dev-user")
			ctx = context.WithValue(ctx, roleKey, RoleAdmin)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// IssueToken signs a token for the given identity. Used by the token
// subcommand and by tests.
func IssueToken(secret []byte, subject, role string, hospitalID *uuid.UUID) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Role:             role,
	}
	if hospitalID != nil {
		claims.HospitalID = hospitalID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func SubjectFromContext(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey).(string)
	return s
}

func RoleFromContext(ctx context.Context) string {
	r, _ := ctx.Value(roleKey).(string)
	return r
}

// HospitalIDFromContext returns the authenticated hospital's ID, or uuid.Nil
// for admin and reviewer accounts.
func HospitalIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(hospitalIDKey).(uuid.UUID)
	return id
}

// WithIdentity returns a context carrying the given identity. Test helper and
// internal entry point for non-HTTP callers.
func WithIdentity(ctx context.Context, subject, role string, hospitalID uuid.UUID) context.Context {
	ctx = context.WithValue(ctx, subjectKey, subject)
	ctx = context.WithValue(ctx, roleKey, role)
	if hospitalID != uuid.Nil {
		ctx = context.WithValue(ctx, hospitalIDKey, hospitalID)
	}
	return ctx
}
