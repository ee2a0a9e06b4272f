package service

import (
	"context"
	"errors"
	"testing"

	"catalog-service/internal/apperror"
	"catalog-service/internal/authz"
	"catalog-service/internal/metrics"
	"catalog-service/internal/model"
	"catalog-service/internal/store"
	"catalog-service/internal/store/badgerstore"
	"catalog-service/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	masterA = model.Identity{UserID: "master-a", Role: model.RoleMaster}
	masterB = model.Identity{UserID: "master-b", Role: model.RoleMaster}
	admin   = model.Identity{UserID: "admin-1", Role: model.RoleAdmin}
)

var errBoom = errors.New("boom")

func ptr[T any](v T) *T { return &v }

func openStore(t *testing.T) *badgerstore.Store {
	t.Helper()

	s, err := badgerstore.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newCatalog(s store.Store, m *metrics.Metrics) *CatalogService {
	return NewCatalogService(s, authz.NewOwnerPolicy(), validation.New(), m)
}

func setupCatalog(t *testing.T) (*CatalogService, *badgerstore.Store) {
	t.Helper()

	s := openStore(t)
	return newCatalog(s, nil), s
}

// faultyStore swaps individual collections for failing wrappers
type faultyStore struct {
	store.Store
	categories  store.CategoryStore
	inventories store.InventoryStore
	products    store.ProductStore
}

func (f *faultyStore) Categories() store.CategoryStore {
	if f.categories != nil {
		return f.categories
	}
	return f.Store.Categories()
}

func (f *faultyStore) Inventories() store.InventoryStore {
	if f.inventories != nil {
		return f.inventories
	}
	return f.Store.Inventories()
}

func (f *faultyStore) Products() store.ProductStore {
	if f.products != nil {
		return f.products
	}
	return f.Store.Products()
}

type failingAddProduct struct{ store.CategoryStore }

func (failingAddProduct) AddProduct(context.Context, []string, string) error { return errBoom }

type failingInventoryInsert struct{ store.InventoryStore }

func (failingInventoryInsert) Insert(context.Context, *model.Inventory) error { return errBoom }

// failingProductInsert fails every insert after the first `after` calls
type failingProductInsert struct {
	store.ProductStore
	after int
	calls int
}

func (f *failingProductInsert) Insert(ctx context.Context, p *model.Product) error {
	f.calls++
	if f.calls > f.after {
		return errBoom
	}
	return f.ProductStore.Insert(ctx, p)
}

func assertCode(t *testing.T, err error, code apperror.Code) {
	t.Helper()

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

// assertConsistent checks both directions of the category/product link and the inventory pairing
func assertConsistent(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	cats, err := s.Categories().Find(ctx, store.CategoryFilter{})
	require.NoError(t, err)
	prods, err := s.Products().Find(ctx, store.ProductFilter{})
	require.NoError(t, err)

	catByID := map[string]model.Category{}
	for _, c := range cats {
		catByID[c.ID] = c
	}
	prodByID := map[string]model.Product{}
	for _, p := range prods {
		prodByID[p.ID] = p
	}

	for _, c := range cats {
		for _, pid := range c.Products {
			p, ok := prodByID[pid]
			if assert.True(t, ok, "category %s references missing product %s", c.Name, pid) {
				assert.True(t, p.HasCategory(c.ID), "product %s is missing category %s", p.Name, c.Name)
			}
		}
	}
	for _, p := range prods {
		for _, cid := range p.Categories {
			c, ok := catByID[cid]
			if assert.True(t, ok, "product %s references missing category %s", p.Name, cid) {
				assert.Contains(t, c.Products, p.ID, "category %s is missing product %s", c.Name, p.Name)
			}
		}
		if p.Inventory != nil {
			inv, err := s.Inventories().FindByID(ctx, *p.Inventory)
			if assert.NoError(t, err, "product %s inventory", p.Name) {
				assert.Equal(t, p.ID, inv.ProductID)
			}
		}
	}

	rows, err := s.Inventories().Find(ctx, store.InventoryFilter{})
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, row := range rows {
		assert.False(t, seen[row.ProductID], "two inventory rows for product %s", row.ProductID)
		seen[row.ProductID] = true
	}
}

func createCategory(t *testing.T, svc *CatalogService, caller model.Identity, name string, productIDs ...string) *model.Category {
	t.Helper()

	cat, err := svc.CreateCategory(context.Background(), caller, CategoryInput{Name: name, ProductIDs: productIDs})
	require.NoError(t, err)
	return cat
}

func createProduct(t *testing.T, svc *CatalogService, caller model.Identity, name string, available int, categoryIDs ...string) *model.Product {
	t.Helper()

	prod, err := svc.CreateProduct(context.Background(), caller, ProductInput{
		Name:        name,
		Price:       10,
		Stock:       available,
		CategoryIDs: categoryIDs,
		Available:   ptr(available),
	})
	require.NoError(t, err)
	return prod
}
