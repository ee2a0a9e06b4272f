// Package badgerstore implements store.Store on an embedded Badger database.
package badgerstore

import (
	"fmt"
	"strings"
	"time"

	"catalog-service/internal/model"
	"catalog-service/internal/store"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	userPrefix      = "user:"
	categoryPrefix  = "category:"
	productPrefix   = "product:"
	inventoryPrefix = "inventory:"
)

// Store is a Badger backed store.Store
type Store struct {
	db          *badger.DB
	users       *userStore
	categories  *categoryStore
	products    *productStore
	inventories *inventoryStore
	now         func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open opens (or creates) a Badger database at path. An empty path keeps everything in memory.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return New(db), nil
}

// New wraps an already opened database
func New(db *badger.DB) *Store {
	s := &Store{db: db, now: time.Now}

	s.users = &userStore{s: s, docs: newCollection(db, userPrefix,
		uniqueIndex[model.User]{name: "email", key: func(u *model.User) string { return normalizeEmail(u.Email) }},
		uniqueIndex[model.User]{name: "username", key: func(u *model.User) string { return u.Username }},
	)}
	s.categories = &categoryStore{s: s, docs: newCollection(db, categoryPrefix,
		uniqueIndex[model.Category]{name: "owner_name", key: func(c *model.Category) string { return c.CreatedBy + ":" + c.Name }},
	)}
	s.products = &productStore{s: s, docs: newCollection[model.Product](db, productPrefix)}
	s.inventories = &inventoryStore{s: s, docs: newCollection(db, inventoryPrefix,
		uniqueIndex[model.Inventory]{name: "product", key: func(i *model.Inventory) string { return i.ProductID }},
	)}
	return s
}

func (s *Store) Users() store.UserStore           { return s.users }
func (s *Store) Categories() store.CategoryStore   { return s.categories }
func (s *Store) Products() store.ProductStore      { return s.products }
func (s *Store) Inventories() store.InventoryStore { return s.inventories }

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) newID() string {
	return uuid.NewString()
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func inSet(ids []string) func(string) bool {
	if ids == nil {
		return func(string) bool { return true }
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(id string) bool {
		_, ok := set[id]
		return ok
	}
}
