package gormstore

import (
	"time"

	"catalog-service/internal/model"

	"github.com/lib/pq"
)

type userRecord struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"size:255;not null;uniqueIndex"`
	Email        string    `gorm:"size:320;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Role         string    `gorm:"size:16;not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (userRecord) TableName() string { return "users" }

type categoryRecord struct {
	ID          string         `gorm:"primaryKey;size:36"`
	Name        string         `gorm:"size:255;not null;uniqueIndex:idx_categories_owner_name"`
	Description string         `gorm:"type:text"`
	Products    pq.StringArray `gorm:"type:text[];not null"`
	CreatedBy   string         `gorm:"size:36;not null;uniqueIndex:idx_categories_owner_name;index"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
}

func (categoryRecord) TableName() string { return "categories" }

type productRecord struct {
	ID          string         `gorm:"primaryKey;size:36"`
	Name        string         `gorm:"size:255;not null;index"`
	Description string         `gorm:"type:text"`
	Price       float64        `gorm:"type:decimal(12,2);not null"`
	Stock       int            `gorm:"not null"`
	Categories  pq.StringArray `gorm:"type:text[];not null"`
	Inventory   *string        `gorm:"size:36"`
	CreatedBy   string         `gorm:"size:36;not null;index"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
}

func (productRecord) TableName() string { return "products" }

type inventoryRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	ProductID string    `gorm:"size:36;not null;uniqueIndex"`
	Available int       `gorm:"not null"`
	Sold      int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (inventoryRecord) TableName() string { return "inventories" }

// Models lists the records AutoMigrate must create
func Models() []any {
	return []any{&userRecord{}, &categoryRecord{}, &productRecord{}, &inventoryRecord{}}
}

func stringArray(ids []string) pq.StringArray {
	if ids == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(ids)
}

func idList(a pq.StringArray) []string {
	if a == nil {
		return []string{}
	}
	return []string(a)
}

func userFromModel(u *model.User) *userRecord {
	return &userRecord{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r *userRecord) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         model.Role(r.Role),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func categoryFromModel(c *model.Category) *categoryRecord {
	return &categoryRecord{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Products:    stringArray(c.Products),
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (r *categoryRecord) toModel() *model.Category {
	return &model.Category{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Products:    idList(r.Products),
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func productFromModel(p *model.Product) *productRecord {
	return &productRecord{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Categories:  stringArray(p.Categories),
		Inventory:   p.Inventory,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r *productRecord) toModel() *model.Product {
	return &model.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Categories:  idList(r.Categories),
		Inventory:   r.Inventory,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func inventoryFromModel(i *model.Inventory) *inventoryRecord {
	return &inventoryRecord{
		ID:        i.ID,
		ProductID: i.ProductID,
		Available: i.Available,
		Sold:      i.Sold,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

func (r *inventoryRecord) toModel() *model.Inventory {
	return &model.Inventory{
		ID:        r.ID,
		ProductID: r.ProductID,
		Available: r.Available,
		Sold:      r.Sold,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
