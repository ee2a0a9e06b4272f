package badgerstore

import (
	"context"
	"errors"

	"catalog-service/internal/model"
	"catalog-service/internal/store"

	"github.com/dgraph-io/badger/v4"
)

type productStore struct {
	s    *Store
	docs *collection[model.Product]
}

func (p *productStore) Insert(ctx context.Context, product *model.Product) error {
	if product.ID == "" {
		product.ID = p.s.newID()
	}
	now := p.s.timestamp()
	product.CreatedAt, product.UpdatedAt = now, now
	product.Categories = store.Dedupe(product.Categories)
	return p.docs.insert(ctx, product.ID, product)
}

func (p *productStore) FindByID(ctx context.Context, id string) (*model.Product, error) {
	return p.docs.get(ctx, id)
}

func (p *productStore) FindByName(ctx context.Context, ownerID, name string) (*model.Product, error) {
	return p.docs.findOne(ctx, func(prod *model.Product) bool {
		return prod.CreatedBy == ownerID && prod.Name == name
	})
}

func (p *productStore) Find(ctx context.Context, filter store.ProductFilter) ([]model.Product, error) {
	wanted := inSet(filter.IDs)
	return p.docs.find(ctx, func(prod *model.Product) bool {
		if filter.CreatedBy != "" && prod.CreatedBy != filter.CreatedBy {
			return false
		}
		return wanted(prod.ID)
	})
}

func (p *productStore) Update(ctx context.Context, id string, patch store.ProductPatch) (*model.Product, error) {
	return p.docs.update(ctx, id, func(prod *model.Product) error {
		patch.Apply(prod)
		prod.Categories = store.Dedupe(prod.Categories)
		prod.UpdatedAt = p.s.timestamp()
		return nil
	})
}

func (p *productStore) Delete(ctx context.Context, id string) error {
	return p.docs.delete(ctx, id)
}

func (p *productStore) AddCategory(ctx context.Context, productIDs []string, categoryID string) error {
	if len(productIDs) == 0 {
		return nil
	}
	wanted := inSet(productIDs)
	_, err := p.docs.updateWhere(ctx,
		func(id string, _ *model.Product) bool { return wanted(id) },
		func(prod *model.Product) bool {
			var added bool
			prod.Categories, added = store.AddToSet(prod.Categories, categoryID)
			if added {
				prod.UpdatedAt = p.s.timestamp()
			}
			return added
		})
	return err
}

func (p *productStore) PullCategory(ctx context.Context, categoryID string) error {
	_, err := p.docs.updateWhere(ctx,
		func(_ string, prod *model.Product) bool { return prod.HasCategory(categoryID) },
		func(prod *model.Product) bool {
			var removed bool
			prod.Categories, removed = store.Pull(prod.Categories, categoryID)
			if removed {
				prod.UpdatedAt = p.s.timestamp()
			}
			return removed
		})
	return err
}

// Aggregate reads products, their inventory and their categories from a single snapshot.
func (p *productStore) Aggregate(ctx context.Context, pipeline store.ProductPipeline) ([]model.ProductView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inventories := p.s.inventories.docs
	categories := p.s.categories.docs

	views := []model.ProductView{}
	err := p.s.db.View(func(txn *badger.Txn) error {
		var stageErr error
		err := p.docs.scan(ctx, txn, func(_ string, prod *model.Product) bool {
			if !pipeline.Match.Matches(prod.CreatedBy, prod.Categories) {
				return true
			}
			if prod.Inventory == nil {
				return true
			}

			inv, err := inventories.read(txn, *prod.Inventory)
			if errors.Is(err, store.ErrNotFound) {
				return true
			}
			if err != nil {
				stageErr = err
				return false
			}
			if pipeline.MinAvailable != nil && inv.Available < *pipeline.MinAvailable {
				return true
			}

			summaries := make([]model.CategorySummary, 0, len(prod.Categories))
			for _, id := range prod.Categories {
				cat, err := categories.read(txn, id)
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				if err != nil {
					stageErr = err
					return false
				}
				summaries = append(summaries, model.CategorySummary{
					ID:          cat.ID,
					Name:        cat.Name,
					Description: cat.Description,
				})
			}

			views = append(views, model.ProductView{
				Product:    *prod,
				Inventory:  *inv,
				Categories: summaries,
			})
			return true
		})
		if err != nil {
			return err
		}
		return stageErr
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}
