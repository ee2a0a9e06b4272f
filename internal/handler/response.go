package handler

import (
	"errors"
	"fmt"
	"net/http"

	"catalog-service/internal/apperror"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// respondError writes err as {"error", "code", "details"}. Internal causes are logged, never sent.
func respondError(c echo.Context, err error) error {
	appErr := apperror.From(err)
	log := logger.FromContext(c)

	if appErr.Code == apperror.CodeInternal {
		log.Error(appErr.Message, zap.Error(err))
	} else {
		log.Warn("Request failed",
			zap.String("code", string(appErr.Code)),
			zap.String("error", appErr.Message))
	}

	body := echo.Map{
		"error": appErr.Message,
		"code":  appErr.Code,
	}
	if appErr.Details != nil {
		body["details"] = appErr.Details
	}
	return c.JSON(appErr.HTTPStatus(), body)
}

// ErrorHandler renders errors that reach echo, including its own routing and body limit errors
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok && s != "" {
			msg = s
		} else if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
		if he.Code >= http.StatusInternalServerError {
			logger.FromContext(c).Error("Unhandled HTTP error", zap.Error(err))
		}
		_ = c.JSON(he.Code, echo.Map{"error": msg})
		return
	}

	_ = respondError(c, err)
}

// bind decodes the request body into req. Field rules are checked by the services.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		logger.FromContext(c).Warn("Invalid request data", zap.Error(err))
		return apperror.Validation("Invalid request data")
	}
	return nil
}
