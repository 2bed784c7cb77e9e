package middleware // middleware contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and injects the authenticated identity into the request context. The
// provided secret must match the one used when issuing tokens. A missing
// token yields 401; a token that is present but malformed, mis-signed or
// expired yields 403. Handlers read the identity via c.Get("admin_id")
// and c.Get("email"); ownership checks themselves live in the
// repositories, not here.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Authentication token required."})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			// Parse with the HS256 secret. The callback pins the signing
			// method so tokens signed with another algorithm are rejected.
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrForbidden
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Token is not valid."})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Token is not valid."})
			}
			sub, ok := claims["sub"].(float64) // JSON numbers decode as float64
			if !ok || sub <= 0 {
				return c.JSON(http.StatusForbidden, echo.Map{"message": "Token is not valid."})
			}
			email, _ := claims["email"].(string)

			c.Set("admin_id", uint64(sub))
			c.Set("email", email)
			return next(c)
		}
	}
}
