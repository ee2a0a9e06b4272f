package service

import (
	"context"
	"errors"
	"time"

	"catalog-service/internal/apperror"
	"catalog-service/internal/authz"
	"catalog-service/internal/model"
	"catalog-service/internal/store"
	"catalog-service/pkg/logger"

	"go.uber.org/zap"
)

// InventoryInput creates the inventory row of a product that has none
type InventoryInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Available *int   `json:"available" validate:"required,gte=0"`
	Sold      *int   `json:"sold" validate:"required,gte=0"`
}

// InventoryUpdate is a partial inventory update. Nil fields are left unchanged.
type InventoryUpdate struct {
	Available *int `json:"available" validate:"omitnil,gte=0"`
	Sold      *int `json:"sold" validate:"omitnil,gte=0"`
}

func inventoryResource(inv *model.Inventory, parent *model.Product) authz.Resource {
	res := authz.Resource{Kind: authz.KindInventory, ID: inv.ID}
	if parent != nil {
		res.OwnerID = parent.CreatedBy
	}
	return res
}

// ListInventories returns the inventory rows visible to caller with their products resolved.
// Masters see the rows of their own products.
func (s *CatalogService) ListInventories(ctx context.Context, caller model.Identity) ([]model.InventoryView, error) {
	scope, err := s.authz.Scope(caller)
	if err != nil {
		return nil, err
	}
	defer s.track("inventory_find")(time.Now())

	var (
		rows     []model.Inventory
		products []model.Product
	)
	if scope.All() {
		rows, err = s.store.Inventories().Find(ctx, store.InventoryFilter{})
		if err != nil {
			return nil, internal(ctx, "Failed to list inventories", err)
		}
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ProductID)
		}
		if len(ids) > 0 {
			products, err = s.store.Products().Find(ctx, store.ProductFilter{IDs: store.Dedupe(ids)})
		}
	} else {
		products, err = s.store.Products().Find(ctx, store.ProductFilter{CreatedBy: scope.OwnerID})
		if err == nil {
			ids := make([]string, 0, len(products))
			for _, p := range products {
				ids = append(ids, p.ID)
			}
			rows, err = s.store.Inventories().Find(ctx, store.InventoryFilter{ProductIDs: ids})
		}
	}
	if err != nil {
		return nil, internal(ctx, "Failed to list inventories", err)
	}

	byID := make(map[string]model.ProductSummary, len(products))
	for _, p := range products {
		byID[p.ID] = model.ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price}
	}
	views := make([]model.InventoryView, 0, len(rows))
	for _, row := range rows {
		view := model.InventoryView{Inventory: row}
		if summary, ok := byID[row.ProductID]; ok {
			view.Product = &summary
		}
		views = append(views, view)
	}
	return views, nil
}

// CreateInventory creates the inventory row for a product owned by caller
func (s *CatalogService) CreateInventory(ctx context.Context, caller model.Identity, in InventoryInput) (*model.Inventory, error) {
	if caller.Anonymous() {
		return nil, apperror.Unauthenticated("Unauthorized")
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	prod, err := s.loadProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	res := authz.Resource{Kind: authz.KindInventory, OwnerID: prod.CreatedBy}
	if err := authz.Authorize(s.authz, caller, authz.ActionWrite, res); err != nil {
		if errors.Is(err, apperror.ErrForbidden) {
			return nil, apperror.Forbidden("Unauthorized: Cannot create inventory for another user's product")
		}
		return nil, err
	}

	_, err = s.store.Inventories().FindByProduct(ctx, prod.ID)
	if err == nil {
		return nil, apperror.Conflict("Inventory for this product already exists")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, internal(ctx, "Failed to create inventory", err)
	}

	defer s.track("inventory_create")(time.Now())
	inv := &model.Inventory{ProductID: prod.ID, Available: *in.Available, Sold: *in.Sold}
	if err := s.store.Inventories().Insert(ctx, inv); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Conflict("Inventory for this product already exists")
		}
		return nil, internal(ctx, "Failed to create inventory", err)
	}

	if _, err := s.store.Products().Update(ctx, prod.ID, store.ProductPatch{Inventory: &inv.ID}); err != nil {
		undo := newUndoLog(s.metrics)
		undo.push("delete_inventory", func(ctx context.Context) error {
			return s.store.Inventories().Delete(ctx, inv.ID)
		})
		undo.rollback(ctx, err)
		return nil, internal(ctx, "Failed to link inventory to product", err)
	}

	s.metrics.RecordOperation("inventory", "create")
	logger.FromCtx(ctx).Info("Inventory created",
		zap.String("inventory_id", inv.ID),
		zap.String("product_id", prod.ID))
	return inv, nil
}

// UpdateInventory applies a partial update to an inventory row whose product caller owns.
// A row whose product no longer exists has no owner and cannot be updated.
func (s *CatalogService) UpdateInventory(ctx context.Context, caller model.Identity, id string, in InventoryUpdate) (*model.Inventory, error) {
	if caller.Anonymous() {
		return nil, apperror.Unauthenticated("Unauthorized")
	}
	inv, err := s.store.Inventories().FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Inventory not found")
	}
	if err != nil {
		return nil, internal(ctx, "Failed to load inventory", err)
	}

	parent, err := s.store.Products().FindByID(ctx, inv.ProductID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, internal(ctx, "Failed to load inventory", err)
	}
	if err := authz.Authorize(s.authz, caller, authz.ActionWrite, inventoryResource(inv, parent)); err != nil {
		if errors.Is(err, apperror.ErrForbidden) {
			return nil, apperror.Forbidden("Unauthorized: Cannot update another user's product inventory")
		}
		return nil, err
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	patch := store.InventoryPatch{Available: in.Available, Sold: in.Sold}
	if patch.Empty() {
		return inv, nil
	}

	defer s.track("inventory_update")(time.Now())
	updated, err := s.store.Inventories().Update(ctx, inv.ID, patch)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Inventory not found")
	}
	if err != nil {
		return nil, internal(ctx, "Failed to update inventory", err)
	}

	s.metrics.RecordOperation("inventory", "update")
	return updated, nil
}
