package badgerstore

import (
	"context"

	"catalog-service/internal/model"
	"catalog-service/internal/store"
)

type categoryStore struct {
	s    *Store
	docs *collection[model.Category]
}

func (c *categoryStore) Insert(ctx context.Context, category *model.Category) error {
	if category.ID == "" {
		category.ID = c.s.newID()
	}
	now := c.s.timestamp()
	category.CreatedAt, category.UpdatedAt = now, now
	category.Products = store.Dedupe(category.Products)
	return c.docs.insert(ctx, category.ID, category)
}

func (c *categoryStore) FindByID(ctx context.Context, id string) (*model.Category, error) {
	return c.docs.get(ctx, id)
}

func (c *categoryStore) FindByName(ctx context.Context, ownerID, name string) (*model.Category, error) {
	return c.docs.getBy(ctx, "owner_name", ownerID+":"+name)
}

func (c *categoryStore) Find(ctx context.Context, filter store.CategoryFilter) ([]model.Category, error) {
	wanted := inSet(filter.IDs)
	return c.docs.find(ctx, func(cat *model.Category) bool {
		if filter.CreatedBy != "" && cat.CreatedBy != filter.CreatedBy {
			return false
		}
		return wanted(cat.ID)
	})
}

func (c *categoryStore) Update(ctx context.Context, id string, patch store.CategoryPatch) (*model.Category, error) {
	return c.docs.update(ctx, id, func(cat *model.Category) error {
		patch.Apply(cat)
		cat.UpdatedAt = c.s.timestamp()
		return nil
	})
}

func (c *categoryStore) Delete(ctx context.Context, id string) error {
	return c.docs.delete(ctx, id)
}

func (c *categoryStore) AddProduct(ctx context.Context, categoryIDs []string, productID string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	wanted := inSet(categoryIDs)
	_, err := c.docs.updateWhere(ctx,
		func(id string, _ *model.Category) bool { return wanted(id) },
		func(cat *model.Category) bool {
			var added bool
			cat.Products, added = store.AddToSet(cat.Products, productID)
			if added {
				cat.UpdatedAt = c.s.timestamp()
			}
			return added
		})
	return err
}

func (c *categoryStore) PullProduct(ctx context.Context, productID string, keep []string) error {
	kept := inSet(keep)
	if keep == nil {
		kept = func(string) bool { return false }
	}
	_, err := c.docs.updateWhere(ctx,
		func(id string, cat *model.Category) bool {
			return !kept(id) && store.Contains(cat.Products, productID)
		},
		func(cat *model.Category) bool {
			var removed bool
			cat.Products, removed = store.Pull(cat.Products, productID)
			if removed {
				cat.UpdatedAt = c.s.timestamp()
			}
			return removed
		})
	return err
}
