package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "overlay-service/pkg/errors"
)

type Middleware struct {
	jwtService *JWTService
}

func NewMiddleware(jwtService *JWTService) *Middleware {
	return &Middleware{jwtService: jwtService}
}

func (m *Middleware) RequireJWT() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractBearerToken(c)
			if token == "" {
				return respondError(c, http.StatusUnauthorized, msgMissingAuthorization)
			}

			claims, err := m.jwtService.Verify(token)
			if err != nil {
				return respondError(c, http.StatusUnauthorized, msgInvalidOrExpiredToken)
			}

			c.Set(ContextKeyIdentity, IdentityOf(claims))

			return next(c)
		}
	}
}

func extractBearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(headerAuthorization)
	if authHeader == "" {
		// WebSocket clients cannot set headers from the browser, so the
		// token may ride in the query string instead.
		return c.QueryParam("token")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != authHeaderParts || strings.ToLower(parts[0]) != bearerScheme {
		return ""
	}

	return parts[1]
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{jsonKeyError: message})
}

func GetIdentity(c echo.Context) (Identity, error) {
	val := c.Get(ContextKeyIdentity)
	if val == nil {
		return Identity{}, apperrors.Unauthorized(msgUserNotAuthenticated)
	}

	id, ok := val.(Identity)
	if !ok {
		return Identity{}, apperrors.InternalServer(msgInvalidIdentityCtx, nil)
	}

	return id, nil
}
