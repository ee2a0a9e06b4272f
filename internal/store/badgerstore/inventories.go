package badgerstore

import (
	"context"
	"errors"

	"catalog-service/internal/model"
	"catalog-service/internal/store"
)

type inventoryStore struct {
	s    *Store
	docs *collection[model.Inventory]
}

func (i *inventoryStore) Insert(ctx context.Context, inventory *model.Inventory) error {
	if inventory.ID == "" {
		inventory.ID = i.s.newID()
	}
	now := i.s.timestamp()
	inventory.CreatedAt, inventory.UpdatedAt = now, now
	return i.docs.insert(ctx, inventory.ID, inventory)
}

func (i *inventoryStore) FindByID(ctx context.Context, id string) (*model.Inventory, error) {
	return i.docs.get(ctx, id)
}

func (i *inventoryStore) FindByProduct(ctx context.Context, productID string) (*model.Inventory, error) {
	return i.docs.getBy(ctx, "product", productID)
}

func (i *inventoryStore) Find(ctx context.Context, filter store.InventoryFilter) ([]model.Inventory, error) {
	if filter.ProductIDs != nil && len(filter.ProductIDs) == 0 {
		return nil, nil
	}
	wanted := inSet(filter.ProductIDs)
	return i.docs.find(ctx, func(inv *model.Inventory) bool {
		return wanted(inv.ProductID)
	})
}

func (i *inventoryStore) Update(ctx context.Context, id string, patch store.InventoryPatch) (*model.Inventory, error) {
	return i.docs.update(ctx, id, func(inv *model.Inventory) error {
		patch.Apply(inv)
		inv.UpdatedAt = i.s.timestamp()
		return nil
	})
}

func (i *inventoryStore) Delete(ctx context.Context, id string) error {
	return i.docs.delete(ctx, id)
}

// DeleteByProduct removes the inventory row of productID. A missing row is not an error.
func (i *inventoryStore) DeleteByProduct(ctx context.Context, productID string) error {
	inv, err := i.FindByProduct(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	err = i.docs.delete(ctx, inv.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
