package service

import (
	"context"
	"strings"
	"testing"
	"testing/iotest"

	"catalog-service/internal/apperror"
	"catalog-service/internal/model"
	"catalog-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvHeader = "Category,Category Description,Product Name,Product Description,Product Price,Available Units\n"

func setupImport(t *testing.T) (*ImportService, *CatalogService, store.Store) {
	t.Helper()

	svc, s := setupCatalog(t)
	return NewImportService(svc, nil), svc, s
}

func TestImport_CreatesCatalog(t *testing.T) {
	imports, svc, s := setupImport(t)
	ctx := context.Background()

	data := csvHeader +
		"Electronics,Gadgets,Laptop,Thin,999.90,5\n" +
		"Electronics,Gadgets,Mouse,Wireless,19.5,40\n" +
		"Garden,Outdoor,Rake,Steel,12,150\n"

	summary, err := imports.Import(ctx, masterA, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 2, summary.CategoriesCreated)
	assert.Equal(t, 3, summary.ProductsCreated)
	assert.Empty(t, summary.Skipped)

	cat, err := s.Categories().FindByName(ctx, masterA.UserID, "Electronics")
	require.NoError(t, err)
	assert.Equal(t, "Gadgets", cat.Description)
	assert.Len(t, cat.Products, 2)

	laptop, err := s.Products().FindByName(ctx, masterA.UserID, "Laptop")
	require.NoError(t, err)
	assert.Equal(t, 999.9, laptop.Price)
	assert.Equal(t, []string{cat.ID}, laptop.Categories)

	inv, err := s.Inventories().FindByProduct(ctx, laptop.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, inv.Available)
	assert.Equal(t, 0, inv.Sold)

	high, err := svc.ListProducts(ctx, masterA, ProductQuery{HighAvailableOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Rake"}, productNames(high))

	assertConsistent(t, s)
}

func TestImport_IdempotentReimport(t *testing.T) {
	imports, _, s := setupImport(t)
	ctx := context.Background()

	first := csvHeader + "Electronics,,Laptop,,100,5\n"
	_, err := imports.Import(ctx, masterA, strings.NewReader(first))
	require.NoError(t, err)

	second := csvHeader + "Electronics,,Laptop,,250,9\n"
	summary, err := imports.Import(ctx, masterA, strings.NewReader(second))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.CategoriesCreated)
	assert.Equal(t, 0, summary.ProductsCreated)
	assert.Equal(t, 1, summary.ProductsExisting)

	cats, err := s.Categories().Find(ctx, store.CategoryFilter{CreatedBy: masterA.UserID})
	require.NoError(t, err)
	assert.Len(t, cats, 1)

	prods, err := s.Products().Find(ctx, store.ProductFilter{CreatedBy: masterA.UserID})
	require.NoError(t, err)
	require.Len(t, prods, 1)
	assert.Equal(t, 100.0, prods[0].Price)

	inv, err := s.Inventories().FindByProduct(ctx, prods[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 5, inv.Available)
}

func TestImport_SkipsInvalidRows(t *testing.T) {
	imports, _, s := setupImport(t)
	ctx := context.Background()

	data := csvHeader +
		"Electronics,,Laptop,,abc,5\n" +
		"Electronics,,Mouse,,20,3\n" +
		",,Orphan,,1,1\n" +
		"Electronics,,,,1,1\n" +
		"Electronics,,Cable,,-1,1\n" +
		"Electronics,,Plug,,1,many\n" +
		"\n" +
		"Electronics,,Charger,,5,0\n"

	summary, err := imports.Import(ctx, masterA, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 7, summary.Rows)
	assert.Equal(t, 2, summary.ProductsCreated)
	assert.Equal(t, []SkippedRow{
		{Line: 2, Reason: "invalid product price"},
		{Line: 4, Reason: "category is required"},
		{Line: 5, Reason: "product name is required"},
		{Line: 6, Reason: "product price must not be negative"},
		{Line: 7, Reason: "invalid available units"},
	}, summary.Skipped)

	prods, err := s.Products().Find(ctx, store.ProductFilter{CreatedBy: masterA.UserID})
	require.NoError(t, err)
	names := make([]string, 0, len(prods))
	for _, p := range prods {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"Mouse", "Charger"}, names)
}

func TestImport_LeadingNumbers(t *testing.T) {
	imports, _, s := setupImport(t)
	ctx := context.Background()

	data := csvHeader +
		"Tools,,Hammer,,12.50,10.0\n" +
		"Tools,,Saw,,12.50 USD,4\n" +
		"Tools,,Drill,,$40,4\n"

	summary, err := imports.Import(ctx, masterA, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ProductsCreated)
	assert.Equal(t, []SkippedRow{{Line: 4, Reason: "invalid product price"}}, summary.Skipped)

	hammer, err := s.Products().FindByName(ctx, masterA.UserID, "Hammer")
	require.NoError(t, err)
	assert.Equal(t, 12.5, hammer.Price)
	assert.Equal(t, 10, hammer.Stock)

	saw, err := s.Products().FindByName(ctx, masterA.UserID, "Saw")
	require.NoError(t, err)
	assert.Equal(t, 12.5, saw.Price)
}

func TestParseNumericCells(t *testing.T) {
	prices := []struct {
		cell    string
		want    string
		wantErr bool
	}{
		{cell: "12.50", want: "12.5"},
		{cell: "12.50 USD", want: "12.5"},
		{cell: ".5", want: "0.5"},
		{cell: "1e2kg", want: "100"},
		{cell: "-3", want: "-3"},
		{cell: "USD 12", wantErr: true},
		{cell: "", wantErr: true},
	}
	for _, tc := range prices {
		t.Run("price "+tc.cell, func(t *testing.T) {
			got, err := parsePrice(tc.cell)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}

	units := []struct {
		cell    string
		want    int
		wantErr bool
	}{
		{cell: "10", want: 10},
		{cell: "10.9", want: 10},
		{cell: "4 boxes", want: 4},
		{cell: "-2", want: -2},
		{cell: "many", wantErr: true},
		{cell: ".5", wantErr: true},
	}
	for _, tc := range units {
		t.Run("units "+tc.cell, func(t *testing.T) {
			got, err := parseUnits(tc.cell)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestImport_OwnersAreIsolated(t *testing.T) {
	imports, _, s := setupImport(t)
	ctx := context.Background()

	data := csvHeader + "Electronics,,Laptop,,100,5\n"
	_, err := imports.Import(ctx, masterA, strings.NewReader(data))
	require.NoError(t, err)

	summary, err := imports.Import(ctx, masterB, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CategoriesCreated)
	assert.Equal(t, 1, summary.ProductsCreated)

	cats, err := s.Categories().Find(ctx, store.CategoryFilter{})
	require.NoError(t, err)
	assert.Len(t, cats, 2)
	assertConsistent(t, s)
}

func TestImport_HeaderVariants(t *testing.T) {
	imports, _, s := setupImport(t)
	ctx := context.Background()

	// BOM, reordered columns and padded header names
	data := "\ufeff Product Name ,Category,Available Units,Product Price\n" +
		"Laptop,Electronics,2,10\n"

	summary, err := imports.Import(ctx, masterA, strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ProductsCreated)

	_, err = s.Products().FindByName(ctx, masterA.UserID, "Laptop")
	assert.NoError(t, err)
}

func TestImport_EmptyAndUnreadable(t *testing.T) {
	imports, _, _ := setupImport(t)
	ctx := context.Background()

	summary, err := imports.Import(ctx, masterA, strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Rows)

	summary, err = imports.Import(ctx, masterA, strings.NewReader(csvHeader))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Rows)

	_, err = imports.Import(ctx, masterA, iotest.ErrReader(errBoom))
	assertCode(t, err, apperror.CodeInternal)
}

func TestImport_Authorization(t *testing.T) {
	imports, _, _ := setupImport(t)
	ctx := context.Background()

	_, err := imports.Import(ctx, admin, strings.NewReader(csvHeader))
	assertCode(t, err, apperror.CodeForbidden)

	_, err = imports.Import(ctx, model.Identity{}, strings.NewReader(csvHeader))
	assertCode(t, err, apperror.CodeUnauthenticated)
}

func TestImport_StopsOnStoreFailure(t *testing.T) {
	base := openStore(t)
	ctx := context.Background()

	products := &failingProductInsert{ProductStore: base.Products(), after: 1}
	svc := newCatalog(&faultyStore{Store: base, products: products}, nil)
	imports := NewImportService(svc, nil)

	data := csvHeader +
		"Electronics,,Laptop,,1,1\n" +
		"Electronics,,Mouse,,1,1\n" +
		"Electronics,,Cable,,1,1\n"

	summary, err := imports.Import(ctx, masterA, strings.NewReader(data))
	assertCode(t, err, apperror.CodeInternal)
	assert.Equal(t, "Failed to process CSV", apperror.From(err).Message)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.ProductsCreated)

	// rows before the failure stay applied
	_, err = base.Products().FindByName(ctx, masterA.UserID, "Laptop")
	assert.NoError(t, err)
	_, err = base.Products().FindByName(ctx, masterA.UserID, "Cable")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assertConsistent(t, base)
}
