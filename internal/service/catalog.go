// Package service implements the catalog operations: ownership checks, the
// cross-entity consistency rules, the product query engine, CSV ingest and
// the identity service.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-service/internal/apperror"
	"catalog-service/internal/authz"
	"catalog-service/internal/metrics"
	"catalog-service/internal/model"
	"catalog-service/internal/store"
	"catalog-service/internal/validation"
	"catalog-service/pkg/logger"

	"go.uber.org/zap"
)

// CatalogService owns every write to categories, products and inventory rows
// and keeps their cross references consistent.
type CatalogService struct {
	store    store.Store
	authz    authz.Engine
	validate *validation.Validator
	metrics  *metrics.Metrics
}

// NewCatalogService creates a catalog service
func NewCatalogService(s store.Store, engine authz.Engine, v *validation.Validator, m *metrics.Metrics) *CatalogService {
	return &CatalogService{
		store:    s,
		authz:    engine,
		validate: v,
		metrics:  m,
	}
}

// CategoryInput creates a category. ProductIDs must be the caller's own products.
type CategoryInput struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description"`
	ProductIDs  []string `json:"product_ids"`
}

// CategoryUpdate changes name and description. Nil or empty values are left unchanged.
type CategoryUpdate struct {
	Name        *string `json:"name" validate:"omitnil,max=255"`
	Description *string `json:"description"`
}

// authorize runs the engine and words a denial as "Unauthorized to <verb> this <kind>"
func (s *CatalogService) authorize(caller model.Identity, action authz.Action, res authz.Resource, verb string) error {
	err := authz.Authorize(s.authz, caller, action, res)
	if err == nil || verb == "" || !errors.Is(err, apperror.ErrForbidden) {
		return err
	}
	return apperror.Forbidden(fmt.Sprintf("Unauthorized to %s this %s", verb, res.Kind))
}

func (s *CatalogService) track(op string) func(time.Time) {
	return s.metrics.TrackDBOperation(op)
}

// internal logs the store failure and returns the generic message callers see
func internal(ctx context.Context, msg string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	logger.FromCtx(ctx).Error(msg, zap.Error(err))
	return apperror.Internal(msg, err)
}

func categoryResource(c *model.Category) authz.Resource {
	return authz.Resource{Kind: authz.KindCategory, ID: c.ID, OwnerID: c.CreatedBy}
}

func productResource(p *model.Product) authz.Resource {
	return authz.Resource{Kind: authz.KindProduct, ID: p.ID, OwnerID: p.CreatedBy}
}

// loadCategory returns the category or NotFound
func (s *CatalogService) loadCategory(ctx context.Context, id string) (*model.Category, error) {
	cat, err := s.store.Categories().FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Category not found")
	}
	if err != nil {
		return nil, internal(ctx, "Failed to load category", err)
	}
	return cat, nil
}

// loadProduct returns the product or NotFound
func (s *CatalogService) loadProduct(ctx context.Context, id string) (*model.Product, error) {
	prod, err := s.store.Products().FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("Product not found")
	}
	if err != nil {
		return nil, internal(ctx, "Failed to load product", err)
	}
	return prod, nil
}

// ownedCategories checks that every id names a category the caller may link products to.
func (s *CatalogService) ownedCategories(ctx context.Context, caller model.Identity, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	cats, err := s.store.Categories().Find(ctx, store.CategoryFilter{IDs: ids})
	if err != nil {
		return internal(ctx, "Failed to load categories", err)
	}
	byID := make(map[string]*model.Category, len(cats))
	for i := range cats {
		byID[cats[i].ID] = &cats[i]
	}
	for _, id := range ids {
		cat, ok := byID[id]
		if !ok {
			return apperror.NotFound("Category not found: " + id)
		}
		if err := s.authorize(caller, authz.ActionWrite, categoryResource(cat), "use"); err != nil {
			return err
		}
	}
	return nil
}

// ownedProducts checks that every id names a product the caller owns.
func (s *CatalogService) ownedProducts(ctx context.Context, caller model.Identity, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	prods, err := s.store.Products().Find(ctx, store.ProductFilter{IDs: ids})
	if err != nil {
		return internal(ctx, "Failed to load products", err)
	}
	byID := make(map[string]*model.Product, len(prods))
	for i := range prods {
		byID[prods[i].ID] = &prods[i]
	}
	for _, id := range ids {
		prod, ok := byID[id]
		if !ok {
			return apperror.NotFound("Product not found: " + id)
		}
		if err := s.authorize(caller, authz.ActionWrite, productResource(prod), "use"); err != nil {
			return err
		}
	}
	return nil
}

// categoryViews resolves product references into summaries. Missing products are dropped.
func (s *CatalogService) categoryViews(ctx context.Context, cats []model.Category) ([]model.CategoryView, error) {
	var ids []string
	for _, cat := range cats {
		ids = append(ids, cat.Products...)
	}
	ids = store.Dedupe(ids)

	summaries := map[string]model.ProductSummary{}
	if len(ids) > 0 {
		prods, err := s.store.Products().Find(ctx, store.ProductFilter{IDs: ids})
		if err != nil {
			return nil, err
		}
		for _, p := range prods {
			summaries[p.ID] = model.ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price}
		}
	}

	views := make([]model.CategoryView, 0, len(cats))
	for _, cat := range cats {
		view := model.CategoryView{Category: cat, Products: make([]model.ProductSummary, 0, len(cat.Products))}
		for _, id := range cat.Products {
			if summary, ok := summaries[id]; ok {
				view.Products = append(view.Products, summary)
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// ListCategories returns the categories visible to caller
func (s *CatalogService) ListCategories(ctx context.Context, caller model.Identity) ([]model.CategoryView, error) {
	scope, err := s.authz.Scope(caller)
	if err != nil {
		return nil, err
	}

	defer s.track("category_find")(time.Now())
	cats, err := s.store.Categories().Find(ctx, store.CategoryFilter{CreatedBy: scope.OwnerID})
	if err != nil {
		return nil, internal(ctx, "Failed to list categories", err)
	}
	views, err := s.categoryViews(ctx, cats)
	if err != nil {
		return nil, internal(ctx, "Failed to list categories", err)
	}
	return views, nil
}

// GetCategory returns one category if caller may read it
func (s *CatalogService) GetCategory(ctx context.Context, caller model.Identity, id string) (*model.CategoryView, error) {
	if _, err := s.authz.Scope(caller); err != nil {
		return nil, err
	}
	cat, err := s.loadCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, authz.ActionRead, categoryResource(cat), "access"); err != nil {
		return nil, err
	}

	views, err := s.categoryViews(ctx, []model.Category{*cat})
	if err != nil {
		return nil, internal(ctx, "Failed to load category", err)
	}
	return &views[0], nil
}

// CreateCategory creates a category owned by caller and links the given products to it
func (s *CatalogService) CreateCategory(ctx context.Context, caller model.Identity, in CategoryInput) (*model.Category, error) {
	if err := s.authorize(caller, authz.ActionWrite, authz.Resource{Kind: authz.KindCategory, New: true}, "create"); err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	productIDs := store.Dedupe(in.ProductIDs)
	if err := s.ownedProducts(ctx, caller, productIDs); err != nil {
		return nil, err
	}

	_, err := s.store.Categories().FindByName(ctx, caller.UserID, in.Name)
	if err == nil {
		return nil, apperror.Conflict("Category already exists")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, internal(ctx, "Failed to create category", err)
	}

	defer s.track("category_create")(time.Now())
	cat := &model.Category{
		Name:        in.Name,
		Description: in.Description,
		Products:    productIDs,
		CreatedBy:   caller.UserID,
	}
	if err := s.store.Categories().Insert(ctx, cat); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Conflict("Category already exists")
		}
		return nil, internal(ctx, "Failed to create category", err)
	}

	if err := s.store.Products().AddCategory(ctx, productIDs, cat.ID); err != nil {
		undo := newUndoLog(s.metrics)
		undo.push("delete_category", func(ctx context.Context) error {
			return s.store.Categories().Delete(ctx, cat.ID)
		})
		undo.push("pull_category", func(ctx context.Context) error {
			return s.store.Products().PullCategory(ctx, cat.ID)
		})
		undo.rollback(ctx, err)
		return nil, internal(ctx, "Failed to create category", err)
	}

	s.metrics.RecordOperation("category", "create")
	logger.FromCtx(ctx).Info("Category created",
		zap.String("category_id", cat.ID),
		zap.String("owner_id", caller.UserID),
		zap.Int("products", len(productIDs)))
	return cat, nil
}

// UpdateCategory renames or re-describes a category owned by caller
func (s *CatalogService) UpdateCategory(ctx context.Context, caller model.Identity, id string, in CategoryUpdate) (*model.Category, error) {
	if caller.Anonymous() {
		return nil, apperror.Unauthenticated("Unauthorized")
	}
	cat, err := s.loadCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, authz.ActionWrite, categoryResource(cat), "update"); err != nil {
		return nil, err
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	var patch store.CategoryPatch
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" && name != cat.Name {
			patch.Name = &name
		}
	}
	if in.Description != nil && *in.Description != "" {
		patch.Description = in.Description
	}
	if patch.Empty() {
		return cat, nil
	}

	if patch.Name != nil {
		existing, err := s.store.Categories().FindByName(ctx, caller.UserID, *patch.Name)
		if err == nil && existing.ID != cat.ID {
			return nil, apperror.Conflict("Category already exists")
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, internal(ctx, "Failed to update category", err)
		}
	}

	defer s.track("category_update")(time.Now())
	updated, err := s.store.Categories().Update(ctx, cat.ID, patch)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return nil, apperror.Conflict("Category already exists")
	case errors.Is(err, store.ErrNotFound):
		return nil, apperror.NotFound("Category not found")
	case err != nil:
		return nil, internal(ctx, "Failed to update category", err)
	}

	s.metrics.RecordOperation("category", "update")
	return updated, nil
}

// DeleteCategory deletes a category owned by caller and unlinks it from every product.
func (s *CatalogService) DeleteCategory(ctx context.Context, caller model.Identity, id string) error {
	if caller.Anonymous() {
		return apperror.Unauthenticated("Unauthorized")
	}
	cat, err := s.loadCategory(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(caller, authz.ActionWrite, categoryResource(cat), "delete"); err != nil {
		return err
	}

	defer s.track("category_delete")(time.Now())
	if err := s.store.Categories().Delete(ctx, cat.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NotFound("Category not found")
		}
		return internal(ctx, "Failed to delete category", err)
	}
	// every product, not only the owner's
	if err := s.store.Products().PullCategory(ctx, cat.ID); err != nil {
		return internal(ctx, "Failed to unlink category from products", err)
	}

	s.metrics.RecordOperation("category", "delete")
	logger.FromCtx(ctx).Info("Category deleted",
		zap.String("category_id", cat.ID),
		zap.String("owner_id", caller.UserID))
	return nil
}
