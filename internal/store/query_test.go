package store_test

import (
	"testing"

	"catalog-service/internal/model"
	"catalog-service/internal/store"

	"github.com/stretchr/testify/assert"
)

func TestProductMatch_Matches(t *testing.T) {
	tests := []struct {
		name       string
		match      store.ProductMatch
		createdBy  string
		categories []string
		want       bool
	}{
		{"empty match accepts everything", store.ProductMatch{}, "u1", nil, true},
		{"owner mismatch", store.ProductMatch{CreatedBy: "u2"}, "u1", nil, false},
		{"owner match", store.ProductMatch{CreatedBy: "u1"}, "u1", []string{"a"}, true},
		{"all categories present", store.ProductMatch{AllCategories: []string{"a", "b"}}, "u1", []string{"b", "c", "a"}, true},
		{"one category missing", store.ProductMatch{AllCategories: []string{"a", "b"}}, "u1", []string{"a"}, false},
		{"no categories on product", store.ProductMatch{AllCategories: []string{"a"}}, "u1", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.match.Matches(tt.createdBy, tt.categories))
		})
	}
}

func TestInventoryPatch_ApplyLeavesAbsentFields(t *testing.T) {
	sold := 5
	inv := model.Inventory{Available: 40, Sold: 1}

	store.InventoryPatch{Sold: &sold}.Apply(&inv)

	assert.Equal(t, 40, inv.Available)
	assert.Equal(t, 5, inv.Sold)
}

func TestProductPatch_ApplyCopiesCategories(t *testing.T) {
	cats := []string{"a", "b"}
	p := model.Product{Name: "Lamp", Categories: []string{"z"}}

	store.ProductPatch{Categories: &cats}.Apply(&p)
	cats[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, p.Categories)
	assert.Equal(t, "Lamp", p.Name)
	assert.True(t, store.ProductPatch{}.Empty())
}
