package handler

import (
	"net/http"
	"strconv"
	"strings"

	"catalog-service/internal/apperror"
	"catalog-service/internal/middleware"
	"catalog-service/internal/service"
	"catalog-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ProductHandler serves the product endpoints
type ProductHandler struct {
	catalog *service.CatalogService
}

// NewProductHandler creates a product handler
func NewProductHandler(catalog *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// parseProductQuery reads categoryIds (comma separated), minAvailable and highAvailableOnly
func parseProductQuery(c echo.Context) (service.ProductQuery, error) {
	var q service.ProductQuery

	if raw := c.QueryParam("categoryIds"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				q.CategoryIDs = append(q.CategoryIDs, id)
			}
		}
	}

	if raw := strings.TrimSpace(c.QueryParam("minAvailable")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return q, apperror.Validation("minAvailable must be an integer")
		}
		q.MinAvailable = &n
	}

	q.HighAvailableOnly = c.QueryParam("highAvailableOnly") == "true"
	return q, nil
}

// ListProducts handles retrieving products with optional filtering
func (h *ProductHandler) ListProducts(c echo.Context) error {
	caller, err := middleware.MustIdentity(c)
	if err != nil {
		return respondError(c, err)
	}
	q, err := parseProductQuery(c)
	if err != nil {
		return respondError(c, err)
	}

	products, err := h.catalog.ListProducts(c.Request().Context(), caller, q)
	if err != nil {
		return respondError(c, err)
	}

	logger.FromContext(c).Debug("Products retrieved",
		zap.Int("count", len(products)),
		zap.Strings("category_ids", q.CategoryIDs),
		zap.Bool("high_available_only", q.HighAvailableOnly))
	return c.JSON(http.StatusOK, products)
}

// GetProduct handles retrieving a single product by ID
func (h *ProductHandler) GetProduct(c echo.Context) error {
	caller, err := middleware.MustIdentity(c)
	if err != nil {
		return respondError(c, err)
	}

	product, err := h.catalog.GetProduct(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProduct handles creating a new product and its inventory row
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	caller, err := middleware.MustIdentity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req service.ProductInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	product, err := h.catalog.CreateProduct(c.Request().Context(), caller, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Product created", "product": product})
}

// UpdateProduct handles a partial product update
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	caller, err := middleware.MustIdentity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req service.ProductUpdate
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	product, err := h.catalog.UpdateProduct(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product updated", "product": product})
}

// DeleteProduct handles deleting a product with its inventory row
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	caller, err := middleware.MustIdentity(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.catalog.DeleteProduct(c.Request().Context(), caller, c.Param("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted"})
}
