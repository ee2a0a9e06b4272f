package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"catalog-service/internal/apperror"
	"catalog-service/internal/authz"
	"catalog-service/internal/model"
	"catalog-service/internal/store"
	"catalog-service/pkg/logger"

	"go.uber.org/zap"
)

// ProductInput creates a product together with its inventory row.
// Available and Sold default to zero.
type ProductInput struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"gte=0"`
	Stock       int      `json:"stock" validate:"gte=0"`
	CategoryIDs []string `json:"category_ids"`
	Available   *int     `json:"available" validate:"omitnil,gte=0"`
	Sold        *int     `json:"sold" validate:"omitnil,gte=0"`
}

// ProductUpdate is a partial product update. Nil fields are left unchanged;
// a non-nil CategoryIDs replaces the category set. Available and Sold go to
// the product's inventory row.
type ProductUpdate struct {
	Name        *string   `json:"name" validate:"omitnil,min=1,max=255"`
	Description *string   `json:"description"`
	Price       *float64  `json:"price" validate:"omitnil,gte=0"`
	Stock       *int      `json:"stock" validate:"omitnil,gte=0"`
	CategoryIDs *[]string `json:"category_ids"`
	Available   *int      `json:"available" validate:"omitnil,gte=0"`
	Sold        *int      `json:"sold" validate:"omitnil,gte=0"`
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// GetProduct returns a product joined with its inventory and categories
func (s *CatalogService) GetProduct(ctx context.Context, caller model.Identity, id string) (*model.ProductView, error) {
	if _, err := s.authz.Scope(caller); err != nil {
		return nil, err
	}
	prod, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, authz.ActionRead, productResource(prod), "access"); err != nil {
		return nil, err
	}

	view := &model.ProductView{Product: *prod, Categories: []model.CategorySummary{}}
	inv, err := s.store.Inventories().FindByProduct(ctx, prod.ID)
	switch {
	case err == nil:
		view.Inventory = *inv
	case !errors.Is(err, store.ErrNotFound):
		return nil, internal(ctx, "Failed to load product", err)
	}

	if len(prod.Categories) > 0 {
		cats, err := s.store.Categories().Find(ctx, store.CategoryFilter{IDs: prod.Categories})
		if err != nil {
			return nil, internal(ctx, "Failed to load product", err)
		}
		for _, cat := range cats {
			view.Categories = append(view.Categories, model.CategorySummary{ID: cat.ID, Name: cat.Name, Description: cat.Description})
		}
	}
	return view, nil
}

// CreateProduct creates a product owned by caller, its inventory row and its category links.
func (s *CatalogService) CreateProduct(ctx context.Context, caller model.Identity, in ProductInput) (*model.Product, error) {
	if err := s.authorize(caller, authz.ActionWrite, authz.Resource{Kind: authz.KindProduct, New: true}, "create"); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	categoryIDs := store.Dedupe(in.CategoryIDs)
	if err := s.ownedCategories(ctx, caller, categoryIDs); err != nil {
		return nil, err
	}

	prod := &model.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Categories:  categoryIDs,
		CreatedBy:   caller.UserID,
	}
	if err := s.insertProduct(ctx, prod, intValue(in.Available), intValue(in.Sold)); err != nil {
		return nil, internal(ctx, "Failed to create product", err)
	}
	return prod, nil
}

// insertProduct runs the product create sequence: product row, inventory row,
// inventory back-link, then category links. A failed step undoes the earlier ones.
// prod.Categories must already be checked against the owner.
func (s *CatalogService) insertProduct(ctx context.Context, prod *model.Product, available, sold int) error {
	defer s.track("product_create")(time.Now())

	undo := newUndoLog(s.metrics)
	fail := func(err error) error {
		undo.rollback(ctx, err)
		return err
	}

	if err := s.store.Products().Insert(ctx, prod); err != nil {
		return err
	}
	productID := prod.ID
	undo.push("delete_product", func(ctx context.Context) error {
		return s.store.Products().Delete(ctx, productID)
	})

	inv := &model.Inventory{ProductID: productID, Available: available, Sold: sold}
	if err := s.store.Inventories().Insert(ctx, inv); err != nil {
		return fail(err)
	}
	undo.push("delete_inventory", func(ctx context.Context) error {
		return s.store.Inventories().DeleteByProduct(ctx, productID)
	})

	updated, err := s.store.Products().Update(ctx, productID, store.ProductPatch{Inventory: &inv.ID})
	if err != nil {
		return fail(err)
	}

	if err := s.store.Categories().AddProduct(ctx, prod.Categories, productID); err != nil {
		undo.push("pull_product", func(ctx context.Context) error {
			return s.store.Categories().PullProduct(ctx, productID, nil)
		})
		return fail(err)
	}

	*prod = *updated
	s.metrics.RecordOperation("product", "create")
	logger.FromCtx(ctx).Info("Product created",
		zap.String("product_id", prod.ID),
		zap.String("inventory_id", inv.ID),
		zap.String("owner_id", prod.CreatedBy),
		zap.Int("categories", len(prod.Categories)))
	return nil
}

// UpdateProduct applies a partial update to a product owned by caller.
func (s *CatalogService) UpdateProduct(ctx context.Context, caller model.Identity, id string, in ProductUpdate) (*model.Product, error) {
	if caller.Anonymous() {
		return nil, apperror.Unauthenticated("Unauthorized")
	}
	prod, err := s.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, authz.ActionWrite, productResource(prod), "update"); err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	patch := store.ProductPatch{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
	}
	var categoryIDs []string
	if in.CategoryIDs != nil {
		categoryIDs = store.Dedupe(*in.CategoryIDs)
		if err := s.ownedCategories(ctx, caller, categoryIDs); err != nil {
			return nil, err
		}
		patch.Categories = &categoryIDs
	}

	defer s.track("product_update")(time.Now())
	updated := prod
	if !patch.Empty() {
		updated, err = s.store.Products().Update(ctx, prod.ID, patch)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFound("Product not found")
		}
		if err != nil {
			return nil, internal(ctx, "Failed to update product", err)
		}
	}

	if in.CategoryIDs != nil {
		// unlink from categories no longer listed, then link the listed ones
		if err := s.store.Categories().PullProduct(ctx, prod.ID, categoryIDs); err != nil {
			return nil, internal(ctx, "Failed to update product categories", err)
		}
		if err := s.store.Categories().AddProduct(ctx, categoryIDs, prod.ID); err != nil {
			return nil, internal(ctx, "Failed to update product categories", err)
		}
	}

	invPatch := store.InventoryPatch{Available: in.Available, Sold: in.Sold}
	if !invPatch.Empty() {
		inv, err := s.store.Inventories().FindByProduct(ctx, prod.ID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			logger.FromCtx(ctx).Warn("Product has no inventory row, skipping inventory fields",
				zap.String("product_id", prod.ID))
		case err != nil:
			return nil, internal(ctx, "Failed to update product inventory", err)
		default:
			if _, err := s.store.Inventories().Update(ctx, inv.ID, invPatch); err != nil {
				return nil, internal(ctx, "Failed to update product inventory", err)
			}
		}
	}

	s.metrics.RecordOperation("product", "update")
	return updated, nil
}

// DeleteProduct deletes a product owned by caller, its category links and its inventory row.
func (s *CatalogService) DeleteProduct(ctx context.Context, caller model.Identity, id string) error {
	if caller.Anonymous() {
		return apperror.Unauthenticated("Unauthorized")
	}
	prod, err := s.loadProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(caller, authz.ActionWrite, productResource(prod), "delete"); err != nil {
		return err
	}

	defer s.track("product_delete")(time.Now())
	if err := s.store.Products().Delete(ctx, prod.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NotFound("Product not found")
		}
		return internal(ctx, "Failed to delete product", err)
	}
	if err := s.store.Categories().PullProduct(ctx, prod.ID, nil); err != nil {
		return internal(ctx, "Failed to unlink product from categories", err)
	}
	if err := s.store.Inventories().DeleteByProduct(ctx, prod.ID); err != nil {
		return internal(ctx, "Failed to delete product inventory", err)
	}

	s.metrics.RecordOperation("product", "delete")
	logger.FromCtx(ctx).Info("Product deleted",
		zap.String("product_id", prod.ID),
		zap.String("owner_id", caller.UserID))
	return nil
}
