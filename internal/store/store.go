// Package store defines the entity store adapter used by the catalog services.
//
// The adapter exposes document-style primitives: find, insert, partial update by id,
// delete, set-style updateMany ($addToSet / $pull) and a joined product read.
// Implementations live in badgerstore and gormstore.
package store

import (
	"context"
	"errors"

	"catalog-service/internal/model"
)

var (
	// ErrNotFound is returned when no document matches
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a write violates a unique key
	ErrDuplicate = errors.New("store: duplicate key")
)

// Store groups the four collections
type Store interface {
	Users() UserStore
	Categories() CategoryStore
	Products() ProductStore
	Inventories() InventoryStore
	Close() error
}

// UserStore persists accounts. Email and username are unique.
type UserStore interface {
	Insert(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
}

// CategoryStore persists categories. (CreatedBy, Name) is unique.
type CategoryStore interface {
	Insert(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id string) (*model.Category, error)
	FindByName(ctx context.Context, ownerID, name string) (*model.Category, error)
	Find(ctx context.Context, filter CategoryFilter) ([]model.Category, error)
	Update(ctx context.Context, id string, patch CategoryPatch) (*model.Category, error)
	Delete(ctx context.Context, id string) error

	// AddProduct adds productID to the products set of every listed category.
	AddProduct(ctx context.Context, categoryIDs []string, productID string) error
	// PullProduct removes productID from every category holding it, except those in keep.
	PullProduct(ctx context.Context, productID string, keep []string) error
}

// ProductStore persists products. Names are not unique.
type ProductStore interface {
	Insert(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)
	// FindByName returns the first product named name owned by ownerID.
	FindByName(ctx context.Context, ownerID, name string) (*model.Product, error)
	Find(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	Update(ctx context.Context, id string, patch ProductPatch) (*model.Product, error)
	Delete(ctx context.Context, id string) error

	// AddCategory adds categoryID to the categories set of every listed product.
	AddCategory(ctx context.Context, productIDs []string, categoryID string) error
	// PullCategory removes categoryID from every product, regardless of owner.
	PullCategory(ctx context.Context, categoryID string) error

	// Aggregate runs the joined product read described by pipeline.
	Aggregate(ctx context.Context, pipeline ProductPipeline) ([]model.ProductView, error)
}

// InventoryStore persists inventory rows. ProductID is unique.
type InventoryStore interface {
	Insert(ctx context.Context, inventory *model.Inventory) error
	FindByID(ctx context.Context, id string) (*model.Inventory, error)
	FindByProduct(ctx context.Context, productID string) (*model.Inventory, error)
	Find(ctx context.Context, filter InventoryFilter) ([]model.Inventory, error)
	Update(ctx context.Context, id string, patch InventoryPatch) (*model.Inventory, error)
	Delete(ctx context.Context, id string) error
	DeleteByProduct(ctx context.Context, productID string) error
}
