package handler

import (
	"net/http"
	"time"

	"catalog-service/internal/middleware"
	"catalog-service/internal/model"
	"catalog-service/internal/service"
	"catalog-service/pkg/config"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthHandler serves registration, login and logout
type AuthHandler struct {
	auth   *service.AuthService
	cookie config.CookieConfig
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(auth *service.AuthService, cookie config.CookieConfig) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie}
}

type userResponse struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
}

// Register handles account creation
func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	user, err := h.auth.Register(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "User created",
		"user": userResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		},
	})
}

// Login issues a token and sets it as an httpOnly cookie
func (h *AuthHandler) Login(c echo.Context) error {
	var req service.LoginInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	result, err := h.auth.Login(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}

	h.setCookie(c, result.Token, int(time.Until(result.ExpiresAt).Seconds()))
	return c.JSON(http.StatusOK, result)
}

// Logout revokes the presented token and clears the cookie. It always succeeds for the client.
func (h *AuthHandler) Logout(c echo.Context) error {
	token := middleware.TokenFromRequest(c, h.cookie.Name)
	if err := h.auth.Logout(c.Request().Context(), token); err != nil {
		logger.FromContext(c).Warn("Token revocation failed", zap.Error(err))
	}

	h.setCookie(c, "", -1)
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) setCookie(c echo.Context, value string, maxAge int) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   maxAge,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: h.cookie.SameSite,
	})
}
