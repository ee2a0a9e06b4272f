package store

import "catalog-service/internal/model"

// CategoryFilter selects categories. An empty CreatedBy or a nil IDs does not filter;
// an empty non-nil IDs matches nothing.
type CategoryFilter struct {
	CreatedBy string
	IDs       []string
}

// ProductFilter selects products with the same rules as CategoryFilter.
type ProductFilter struct {
	CreatedBy string
	IDs       []string
}

// InventoryFilter selects inventory rows. A nil ProductIDs does not filter;
// an empty non-nil slice matches nothing.
type InventoryFilter struct {
	ProductIDs []string
}

// CategoryPatch carries a partial category update. Nil fields stay unchanged.
type CategoryPatch struct {
	Name        *string
	Description *string
}

// ProductPatch carries a partial product update. Nil fields stay unchanged.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	Categories  *[]string
	Inventory   *string
}

// InventoryPatch carries a partial inventory update. Nil fields stay unchanged.
type InventoryPatch struct {
	Available *int
	Sold      *int
}

// ProductMatch is the first stage of a product pipeline.
type ProductMatch struct {
	CreatedBy string
	// AllCategories requires every listed id to be in the product's categories.
	AllCategories []string
}

// ProductPipeline is match → lookup inventory → unwind → optional availability match → lookup categories.
// Products whose inventory reference does not resolve are dropped by the unwind.
type ProductPipeline struct {
	Match        ProductMatch
	MinAvailable *int
}

// Matches applies the match stage to a single product.
func (m ProductMatch) Matches(createdBy string, categories []string) bool {
	if m.CreatedBy != "" && m.CreatedBy != createdBy {
		return false
	}
	if len(m.AllCategories) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(categories))
	for _, id := range categories {
		have[id] = struct{}{}
	}
	for _, id := range m.AllCategories {
		if _, ok := have[id]; !ok {
			return false
		}
	}
	return true
}

// Empty reports whether the patch changes nothing.
func (p CategoryPatch) Empty() bool {
	return p.Name == nil && p.Description == nil
}

// Apply copies the set fields onto c.
func (p CategoryPatch) Apply(c *model.Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Price == nil &&
		p.Stock == nil && p.Categories == nil && p.Inventory == nil
}

// Apply copies the set fields onto prod.
func (p ProductPatch) Apply(prod *model.Product) {
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Description != nil {
		prod.Description = *p.Description
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.Stock != nil {
		prod.Stock = *p.Stock
	}
	if p.Categories != nil {
		prod.Categories = append([]string{}, (*p.Categories)...)
	}
	if p.Inventory != nil {
		id := *p.Inventory
		prod.Inventory = &id
	}
}

// Empty reports whether the patch changes nothing.
func (p InventoryPatch) Empty() bool {
	return p.Available == nil && p.Sold == nil
}

// Apply copies the set fields onto inv.
func (p InventoryPatch) Apply(inv *model.Inventory) {
	if p.Available != nil {
		inv.Available = *p.Available
	}
	if p.Sold != nil {
		inv.Sold = *p.Sold
	}
}
