package handler

import (
	"net/http"

	"catalog-service/internal/middleware"
	"catalog-service/internal/service"

	"github.com/labstack/echo/v4"
)

// InventoryHandler serves the inventory endpoints
type InventoryHandler struct {
	catalog *service.CatalogService
}

// NewInventoryHandler creates an inventory handler
func NewInventoryHandler(catalog *service.CatalogService) *InventoryHandler {
	return &InventoryHandler{catalog: catalog}
}

// ListInventories returns inventory rows joined with their products
func (h *InventoryHandler) ListInventories(c echo.Context) error {
	caller, err := middleware.MustIdentity(c)
	if err != nil {
		return respondError(c, err)
	}

	inventories, err := h.catalog.ListInventories(c.Request().Context(), caller)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, inventories)
}

// CreateInventory handles adding the inventory row of a product
func (h *InventoryHandler) CreateInventory(c echo.Context) error {
	caller, err := middleware.MustIdentity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req service.InventoryInput
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	inventory, err := h.catalog.CreateInventory(c.Request().Context(), caller, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Inventory created", "inventory": inventory})
}

// UpdateInventory handles changing available or sold units
func (h *InventoryHandler) UpdateInventory(c echo.Context) error {
	caller, err := middleware.MustIdentity(c)
	if err != nil {
		return respondError(c, err)
	}
	var req service.InventoryUpdate
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}

	inventory, err := h.catalog.UpdateInventory(c.Request().Context(), caller, c.Param("id"), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Inventory updated", "inventory": inventory})
}
