package model

import "time"

// Category groups products of a single owner.
// Products mirrors the set of products whose Categories contain this category's ID.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Products    []string  `json:"products"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategorySummary is the embedded form of a category inside product views
type CategorySummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProductSummary is the embedded form of a product inside category and inventory views
type ProductSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// CategoryView is a category with its product references resolved
type CategoryView struct {
	Category
	Products []ProductSummary `json:"products"`
}
