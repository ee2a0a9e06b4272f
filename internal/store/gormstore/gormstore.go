// Package gormstore implements store.Store on PostgreSQL through gorm.
//
// Set-valued references are text[] columns updated with array_append and
// array_remove so each updateMany is a single statement.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-service/internal/model"
	"catalog-service/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is a gorm backed store.Store
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New wraps an opened gorm connection. The connection must be opened with TranslateError.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Migrate creates or updates the tables
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	return nil
}

func (s *Store) Users() store.UserStore           { return &userStore{s} }
func (s *Store) Categories() store.CategoryStore   { return &categoryStore{s} }
func (s *Store) Products() store.ProductStore      { return &productStore{s} }
func (s *Store) Inventories() store.InventoryStore { return &inventoryStore{s} }

// Close closes the underlying sql.DB
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// translate maps gorm errors onto the store sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	default:
		return err
	}
}

func deleted(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// byIDs narrows q to ids. ok is false when ids is an empty non-nil slice.
func byIDs(q *gorm.DB, column string, ids []string) (*gorm.DB, bool) {
	if ids == nil {
		return q, true
	}
	if len(ids) == 0 {
		return q, false
	}
	return q.Where(column+" IN ?", ids), true
}

type userStore struct{ s *Store }

func (u *userStore) Insert(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := u.s.timestamp()
	user.CreatedAt, user.UpdatedAt = now, now
	return translate(u.s.conn(ctx).Create(userFromModel(user)).Error)
}

func (u *userStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	return u.first(ctx, "id = ?", id)
}

func (u *userStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.first(ctx, "lower(email) = lower(?)", email)
}

func (u *userStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return u.first(ctx, "username = ?", username)
}

func (u *userStore) first(ctx context.Context, query string, args ...any) (*model.User, error) {
	var rec userRecord
	if err := u.s.conn(ctx).Where(query, args...).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return rec.toModel(), nil
}

type categoryStore struct{ s *Store }

func (c *categoryStore) Insert(ctx context.Context, category *model.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	now := c.s.timestamp()
	category.CreatedAt, category.UpdatedAt = now, now
	category.Products = store.Dedupe(category.Products)
	return translate(c.s.conn(ctx).Create(categoryFromModel(category)).Error)
}

func (c *categoryStore) FindByID(ctx context.Context, id string) (*model.Category, error) {
	var rec categoryRecord
	if err := c.s.conn(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return rec.toModel(), nil
}

func (c *categoryStore) FindByName(ctx context.Context, ownerID, name string) (*model.Category, error) {
	var rec categoryRecord
	if err := c.s.conn(ctx).Where("created_by = ? AND name = ?", ownerID, name).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return rec.toModel(), nil
}

func (c *categoryStore) Find(ctx context.Context, filter store.CategoryFilter) ([]model.Category, error) {
	q := c.s.conn(ctx).Model(&categoryRecord{})
	if filter.CreatedBy != "" {
		q = q.Where("created_by = ?", filter.CreatedBy)
	}
	q, ok := byIDs(q, "id", filter.IDs)
	if !ok {
		return nil, nil
	}

	var recs []categoryRecord
	if err := q.Order("created_at").Find(&recs).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]model.Category, 0, len(recs))
	for i := range recs {
		out = append(out, *recs[i].toModel())
	}
	return out, nil
}

func (c *categoryStore) Update(ctx context.Context, id string, patch store.CategoryPatch) (*model.Category, error) {
	var out *model.Category
	err := c.s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var rec categoryRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&rec).Error; err != nil {
			return err
		}
		cat := rec.toModel()
		patch.Apply(cat)
		cat.UpdatedAt = c.s.timestamp()
		if err := tx.Save(categoryFromModel(cat)).Error; err != nil {
			return err
		}
		out = cat
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (c *categoryStore) Delete(ctx context.Context, id string) error {
	return deleted(c.s.conn(ctx).Where("id = ?", id).Delete(&categoryRecord{}))
}

func (c *categoryStore) AddProduct(ctx context.Context, categoryIDs []string, productID string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	err := c.s.conn(ctx).Model(&categoryRecord{}).
		Where("id IN ?", categoryIDs).
		Where("NOT (? = ANY(products))", productID).
		Updates(map[string]any{
			"products":   gorm.Expr("array_append(products, ?)", productID),
			"updated_at": c.s.timestamp(),
		}).Error
	return translate(err)
}

func (c *categoryStore) PullProduct(ctx context.Context, productID string, keep []string) error {
	q := c.s.conn(ctx).Model(&categoryRecord{}).Where("? = ANY(products)", productID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	err := q.Updates(map[string]any{
		"products":   gorm.Expr("array_remove(products, ?)", productID),
		"updated_at": c.s.timestamp(),
	}).Error
	return translate(err)
}

type productStore struct{ s *Store }

func (p *productStore) Insert(ctx context.Context, product *model.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	now := p.s.timestamp()
	product.CreatedAt, product.UpdatedAt = now, now
	product.Categories = store.Dedupe(product.Categories)
	return translate(p.s.conn(ctx).Create(productFromModel(product)).Error)
}

func (p *productStore) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var rec productRecord
	if err := p.s.conn(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return rec.toModel(), nil
}

func (p *productStore) FindByName(ctx context.Context, ownerID, name string) (*model.Product, error) {
	var rec productRecord
	err := p.s.conn(ctx).
		Where("created_by = ? AND name = ?", ownerID, name).
		Order("created_at").
		First(&rec).Error
	if err != nil {
		return nil, translate(err)
	}
	return rec.toModel(), nil
}

func (p *productStore) Find(ctx context.Context, filter store.ProductFilter) ([]model.Product, error) {
	q := p.s.conn(ctx).Model(&productRecord{})
	if filter.CreatedBy != "" {
		q = q.Where("created_by = ?", filter.CreatedBy)
	}
	q, ok := byIDs(q, "id", filter.IDs)
	if !ok {
		return nil, nil
	}

	var recs []productRecord
	if err := q.Order("created_at").Find(&recs).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]model.Product, 0, len(recs))
	for i := range recs {
		out = append(out, *recs[i].toModel())
	}
	return out, nil
}

func (p *productStore) Update(ctx context.Context, id string, patch store.ProductPatch) (*model.Product, error) {
	var out *model.Product
	err := p.s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var rec productRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&rec).Error; err != nil {
			return err
		}
		prod := rec.toModel()
		patch.Apply(prod)
		prod.Categories = store.Dedupe(prod.Categories)
		prod.UpdatedAt = p.s.timestamp()
		if err := tx.Save(productFromModel(prod)).Error; err != nil {
			return err
		}
		out = prod
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (p *productStore) Delete(ctx context.Context, id string) error {
	return deleted(p.s.conn(ctx).Where("id = ?", id).Delete(&productRecord{}))
}

func (p *productStore) AddCategory(ctx context.Context, productIDs []string, categoryID string) error {
	if len(productIDs) == 0 {
		return nil
	}
	err := p.s.conn(ctx).Model(&productRecord{}).
		Where("id IN ?", productIDs).
		Where("NOT (? = ANY(categories))", categoryID).
		Updates(map[string]any{
			"categories": gorm.Expr("array_append(categories, ?)", categoryID),
			"updated_at": p.s.timestamp(),
		}).Error
	return translate(err)
}

func (p *productStore) PullCategory(ctx context.Context, categoryID string) error {
	err := p.s.conn(ctx).Model(&productRecord{}).
		Where("? = ANY(categories)", categoryID).
		Updates(map[string]any{
			"categories": gorm.Expr("array_remove(categories, ?)", categoryID),
			"updated_at": p.s.timestamp(),
		}).Error
	return translate(err)
}

// aggregateRow is a product joined with its inventory row
type aggregateRow struct {
	Product      productRecord `gorm:"embedded"`
	InvID        string        `gorm:"column:inv_id"`
	InvProductID string        `gorm:"column:inv_product_id"`
	InvAvailable int           `gorm:"column:inv_available"`
	InvSold      int           `gorm:"column:inv_sold"`
	InvCreatedAt time.Time     `gorm:"column:inv_created_at"`
	InvUpdatedAt time.Time     `gorm:"column:inv_updated_at"`
}

// Aggregate joins products to inventories with an inner join, then resolves category summaries.
func (p *productStore) Aggregate(ctx context.Context, pipeline store.ProductPipeline) ([]model.ProductView, error) {
	views := []model.ProductView{}
	err := p.s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Table("products AS p").
			Select(`p.*, i.id AS inv_id, i.product_id AS inv_product_id, i.available AS inv_available,
				i.sold AS inv_sold, i.created_at AS inv_created_at, i.updated_at AS inv_updated_at`).
			Joins("JOIN inventories AS i ON i.id = p.inventory")
		if pipeline.Match.CreatedBy != "" {
			q = q.Where("p.created_by = ?", pipeline.Match.CreatedBy)
		}
		if len(pipeline.Match.AllCategories) > 0 {
			q = q.Where("p.categories @> ?::text[]", pq.StringArray(pipeline.Match.AllCategories))
		}
		if pipeline.MinAvailable != nil {
			q = q.Where("i.available >= ?", *pipeline.MinAvailable)
		}

		var rows []aggregateRow
		if err := q.Order("p.created_at").Scan(&rows).Error; err != nil {
			return err
		}

		var categoryIDs []string
		for _, row := range rows {
			categoryIDs = append(categoryIDs, row.Product.Categories...)
		}
		summaries := map[string]model.CategorySummary{}
		if ids := store.Dedupe(categoryIDs); len(ids) > 0 {
			var cats []categoryRecord
			if err := tx.Where("id IN ?", ids).Find(&cats).Error; err != nil {
				return err
			}
			for _, cat := range cats {
				summaries[cat.ID] = model.CategorySummary{ID: cat.ID, Name: cat.Name, Description: cat.Description}
			}
		}

		for i := range rows {
			row := &rows[i]
			view := model.ProductView{
				Product:   *row.Product.toModel(),
				Inventory: model.Inventory{
					ID:        row.InvID,
					ProductID: row.InvProductID,
					Available: row.InvAvailable,
					Sold:      row.InvSold,
					CreatedAt: row.InvCreatedAt,
					UpdatedAt: row.InvUpdatedAt,
				},
				Categories: make([]model.CategorySummary, 0, len(row.Product.Categories)),
			}
			for _, id := range row.Product.Categories {
				if summary, ok := summaries[id]; ok {
					view.Categories = append(view.Categories, summary)
				}
			}
			views = append(views, view)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return views, nil
}

type inventoryStore struct{ s *Store }

func (i *inventoryStore) Insert(ctx context.Context, inventory *model.Inventory) error {
	if inventory.ID == "" {
		inventory.ID = uuid.NewString()
	}
	now := i.s.timestamp()
	inventory.CreatedAt, inventory.UpdatedAt = now, now
	return translate(i.s.conn(ctx).Create(inventoryFromModel(inventory)).Error)
}

func (i *inventoryStore) FindByID(ctx context.Context, id string) (*model.Inventory, error) {
	return i.first(ctx, "id = ?", id)
}

func (i *inventoryStore) FindByProduct(ctx context.Context, productID string) (*model.Inventory, error) {
	return i.first(ctx, "product_id = ?", productID)
}

func (i *inventoryStore) first(ctx context.Context, query string, args ...any) (*model.Inventory, error) {
	var rec inventoryRecord
	if err := i.s.conn(ctx).Where(query, args...).First(&rec).Error; err != nil {
		return nil, translate(err)
	}
	return rec.toModel(), nil
}

func (i *inventoryStore) Find(ctx context.Context, filter store.InventoryFilter) ([]model.Inventory, error) {
	q, ok := byIDs(i.s.conn(ctx).Model(&inventoryRecord{}), "product_id", filter.ProductIDs)
	if !ok {
		return nil, nil
	}

	var recs []inventoryRecord
	if err := q.Order("created_at").Find(&recs).Error; err != nil {
		return nil, translate(err)
	}
	out := make([]model.Inventory, 0, len(recs))
	for j := range recs {
		out = append(out, *recs[j].toModel())
	}
	return out, nil
}

func (i *inventoryStore) Update(ctx context.Context, id string, patch store.InventoryPatch) (*model.Inventory, error) {
	var out *model.Inventory
	err := i.s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var rec inventoryRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&rec).Error; err != nil {
			return err
		}
		inv := rec.toModel()
		patch.Apply(inv)
		inv.UpdatedAt = i.s.timestamp()
		if err := tx.Save(inventoryFromModel(inv)).Error; err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (i *inventoryStore) Delete(ctx context.Context, id string) error {
	return deleted(i.s.conn(ctx).Where("id = ?", id).Delete(&inventoryRecord{}))
}

// DeleteByProduct removes the inventory row of productID. A missing row is not an error.
func (i *inventoryStore) DeleteByProduct(ctx context.Context, productID string) error {
	return translate(i.s.conn(ctx).Where("product_id = ?", productID).Delete(&inventoryRecord{}).Error)
}
