package model

import "time"

// Inventory tracks stock movement for exactly one product.
// Ownership follows the parent product's CreatedBy.
type Inventory struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Available int       `json:"available"`
	Sold      int       `json:"sold"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InventoryView is an inventory row with its parent product resolved.
// Product is nil when the parent no longer exists.
type InventoryView struct {
	Inventory
	Product *ProductSummary `json:"product"`
}
