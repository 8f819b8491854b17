package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const principalKey = "principal"

// Principal is the authenticated caller derived from the bearer token.
type Principal struct {
	UID   string
	Email string
}

// Auth verifies the Authorization bearer token and stores the principal on
// the request context. Rejects with 401 before any handler runs.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(
				strings.TrimPrefix(header, "Bearer "),
				claims,
				func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
					}
					return []byte(jwtSecret), nil
				},
			)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			uid, _ := claims["sub"].(string)
			email, _ := claims["email"].(string)
			c.Set(principalKey, &Principal{UID: uid, Email: email})

			return next(c)
		}
	}
}

// PrincipalFrom returns the authenticated principal, or nil outside an
// authed route.
func PrincipalFrom(c echo.Context) *Principal {
	p, _ := c.Get(principalKey).(*Principal)
	return p
}
