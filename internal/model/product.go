package model

import "time"

// Product represents a catalog item owned by a master user
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Categories  []string  `json:"categories"`
	Inventory   *string   `json:"inventory"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasCategory reports whether the product is linked to categoryID
func (p *Product) HasCategory(categoryID string) bool {
	for _, id := range p.Categories {
		if id == categoryID {
			return true
		}
	}
	return false
}

// ProductView is a product joined with its inventory row and category summaries
type ProductView struct {
	Product
	Inventory  Inventory         `json:"inventory"`
	Categories []CategorySummary `json:"categories"`
}
