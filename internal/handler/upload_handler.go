package handler

import (
	"net/http"

	"catalog-service/internal/apperror"
	"catalog-service/internal/middleware"
	"catalog-service/internal/service"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UploadHandler accepts CSV catalog files
type UploadHandler struct {
	imports *service.ImportService
}

// NewUploadHandler creates an upload handler
func NewUploadHandler(imports *service.ImportService) *UploadHandler {
	return &UploadHandler{imports: imports}
}

// UploadCSV imports the multipart field "file"
func (h *UploadHandler) UploadCSV(c echo.Context) error {
	caller, err := middleware.MustIdentity(c)
	if err != nil {
		return respondError(c, err)
	}
	log := logger.FromContext(c)

	header, err := c.FormFile("file")
	if err != nil {
		log.Warn("CSV upload without file", zap.Error(err))
		return respondError(c, apperror.Validation("CSV file is required"))
	}
	file, err := header.Open()
	if err != nil {
		return respondError(c, apperror.Internal("Failed to read CSV", err))
	}
	defer file.Close()

	log.Info("Processing CSV upload",
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size))

	summary, err := h.imports.Import(c.Request().Context(), caller, file)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "CSV uploaded and processed successfully",
		"summary": summary,
	})
}
