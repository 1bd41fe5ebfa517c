package echoutil

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	apierr "github.com/youwol/backends/pkg/api/types/errors"
)

const claimsKey = "youwol.claims"

// Claims of bearer tokens accepted by the gateway.
type Claims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// Bearer rejects requests without a valid HS256 token signed with secret.
//
// Tokens must have a subject. exp and nbf are verified when they are present.
// The Authorization header is left as it is, so it is forwarded to backends.
func Bearer(secret []byte) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	keyfunc := func(*jwt.Token) (interface{}, error) { return secret, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return apierr.Unauthorized("bearer token is required", nil)
			}

			claims := &Claims{}
			if _, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, keyfunc); err != nil {
				return apierr.Unauthorized("invalid token", err)
			}
			if claims.Subject == "" {
				return apierr.Unauthorized("token has no subject", nil)
			}

			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}

// ClaimsOf returns claims verified by Bearer.
func ClaimsOf(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(claimsKey).(*Claims)
	return claims, ok
}
