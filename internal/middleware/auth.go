package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"catalog-service/internal/apperror"
	"catalog-service/internal/model"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const identityKey = "identity"

// Authenticator turns a bearer token into the caller identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Identity, error)
}

// TokenFromRequest returns the bearer token from the Authorization header,
// falling back to the named cookie.
func TokenFromRequest(c echo.Context, cookieName string) string {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// AuthMiddleware resolves the caller once per request and stores the identity on the echo context
func AuthMiddleware(auth Authenticator, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			identity, err := auth.Authenticate(c.Request().Context(), TokenFromRequest(c, cookieName))
			if err != nil {
				appErr := apperror.From(err)
				if appErr.Code == apperror.CodeInternal {
					log.Error("Failed to authenticate request", zap.Error(err))
				} else {
					log.Warn("Request rejected", zap.String("reason", appErr.Message))
				}
				return c.JSON(appErr.HTTPStatus(), echo.Map{"error": appErr.Message})
			}

			c.Set(identityKey, identity)
			setLogger(c, log.With(
				zap.String("user_id", identity.UserID),
				zap.String("role", string(identity.Role))))

			return next(c)
		}
	}
}

// RequireRoles rejects callers whose role is not listed. It must run after AuthMiddleware.
func RequireRoles(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := GetIdentity(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "No token, authorization denied"})
			}
			for _, role := range roles {
				if identity.Role == role {
					return next(c)
				}
			}

			logger.FromContext(c).Warn("Role not allowed",
				zap.String("role", string(identity.Role)),
				zap.String("path", c.Path()))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Forbidden, insufficient permissions"})
		}
	}
}

// GetIdentity returns the identity set by AuthMiddleware
func GetIdentity(c echo.Context) (model.Identity, bool) {
	identity, ok := c.Get(identityKey).(model.Identity)
	return identity, ok && !identity.Anonymous()
}

// ErrNoIdentity is returned by MustIdentity on routes without AuthMiddleware
var ErrNoIdentity = errors.New("middleware: no identity on request")

// MustIdentity is GetIdentity for handlers mounted behind AuthMiddleware
func MustIdentity(c echo.Context) (model.Identity, error) {
	identity, ok := GetIdentity(c)
	if !ok {
		return model.Identity{}, apperror.Unauthenticated("No token, authorization denied").WithCause(ErrNoIdentity)
	}
	return identity, nil
}
