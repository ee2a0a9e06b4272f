package handler

import (
	"net/http"

	"catalog-service/internal/middleware"
	"catalog-service/internal/service"

	"github.com/labstack/echo/v4"
)

// CategoryHandler serves the category endpoints
type CategoryHandler struct {
	catalog *service.CatalogService
}

// NewCategoryHandler creates a category handler
func NewCategoryHandler(catalog *service.CatalogService) *CategoryHandler {
	return &CategoryHandler{catalog: catalog}
}

// ListCategories returns the caller's categories, or every category for admins
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	caller, err := middleware.MustIdentity(c)
	if err != nil {
		return respondError(c, err)
	}

	categories, err := h.catalog.ListCategories(c.Request().Context(), caller)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, categories)
}

// GetCategory returns a single category
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	caller, err := middleware.MustIdentity(c)
	if err != nil {
		return respondError(c, err)
	}

	category, err := h.catalog.GetCategory(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, category)
}

// CreateCategory handles creating a new category
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	caller, err := middleware.MustIdentity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req service.CategoryInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	category, err := h.catalog.CreateCategory(c.Request().Context(), caller, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Category created", "category": category})
}

// UpdateCategory handles renaming or re-describing a category
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	caller, err := middleware.MustIdentity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req service.CategoryUpdate
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	category, err := h.catalog.UpdateCategory(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Category updated", "category": category})
}

// DeleteCategory handles deleting a category
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	caller, err := middleware.MustIdentity(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.catalog.DeleteCategory(c.Request().Context(), caller, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Category deleted"})
}
