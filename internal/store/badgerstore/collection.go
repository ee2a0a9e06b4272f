package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"catalog-service/internal/store"

	"github.com/dgraph-io/badger/v4"
)

// collection stores JSON documents of type T under a key prefix.
// Unique indexes live under prefix + "idx:" and point at the document id.
type collection[T any] struct {
	db      *badger.DB
	prefix  string
	indexes []uniqueIndex[T]
}

// uniqueIndex maps a document to a unique lookup value. An empty value is not indexed.
type uniqueIndex[T any] struct {
	name string
	key  func(*T) string
}

func newCollection[T any](db *badger.DB, prefix string, indexes ...uniqueIndex[T]) *collection[T] {
	return &collection[T]{db: db, prefix: prefix, indexes: indexes}
}

func (c *collection[T]) docKey(id string) []byte {
	return []byte(c.prefix + id)
}

func (c *collection[T]) indexKey(name, value string) []byte {
	return []byte(c.prefix + "idx:" + name + ":" + value)
}

func (c *collection[T]) insert(ctx context.Context, id string, doc *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(c.docKey(id))
		if err == nil {
			return store.ErrDuplicate
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		for _, idx := range c.indexes {
			value := idx.key(doc)
			if value == "" {
				continue
			}
			if err := c.claim(txn, idx.name, value, id); err != nil {
				return err
			}
		}

		if err := txn.Set(c.docKey(id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return nil
	})
}

// claim points an index value at id, failing if another document holds it.
func (c *collection[T]) claim(txn *badger.Txn, name, value, id string) error {
	key := c.indexKey(name, value)
	_, err := txn.Get(key)
	if err == nil {
		return fmt.Errorf("index %s conflict on %q: %w", name, value, store.ErrDuplicate)
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to check index key: %w", err)
	}
	if err := txn.Set(key, []byte(id)); err != nil {
		return fmt.Errorf("failed to set index key: %w", err)
	}
	return nil
}

func (c *collection[T]) read(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(c.docKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var doc T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &doc, nil
}

func (c *collection[T]) get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc *T
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = c.read(txn, id)
		return err
	})
	return doc, err
}

func (c *collection[T]) getBy(ctx context.Context, index, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc *T
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = c.readBy(txn, index, value)
		return err
	})
	return doc, err
}

func (c *collection[T]) readBy(txn *badger.Txn, index, value string) (*T, error) {
	item, err := txn.Get(c.indexKey(index, value))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index key: %w", err)
	}

	id, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	return c.read(txn, string(id))
}

// update runs mutate on the stored document and writes it back in the same transaction.
func (c *collection[T]) update(ctx context.Context, id string, mutate func(*T) error) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc *T
	err := c.db.Update(func(txn *badger.Txn) error {
		var err error
		doc, err = c.read(txn, id)
		if err != nil {
			return err
		}

		before := c.indexValues(doc)
		if err := mutate(doc); err != nil {
			return err
		}
		return c.write(txn, id, before, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// updateWhere applies mutate to every matching document inside one transaction.
// mutate reports whether it changed the document; unchanged documents are not rewritten.
func (c *collection[T]) updateWhere(ctx context.Context, match func(id string, doc *T) bool, mutate func(*T) bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	changed := 0
	err := c.db.Update(func(txn *badger.Txn) error {
		type hit struct {
			id  string
			doc *T
		}
		var hits []hit
		err := c.scan(ctx, txn, func(id string, doc *T) bool {
			if match(id, doc) {
				hits = append(hits, hit{id: id, doc: doc})
			}
			return true
		})
		if err != nil {
			return err
		}

		for _, h := range hits {
			before := c.indexValues(h.doc)
			if !mutate(h.doc) {
				continue
			}
			if err := c.write(txn, h.id, before, h.doc); err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	return changed, err
}

func (c *collection[T]) indexValues(doc *T) []string {
	values := make([]string, len(c.indexes))
	for i, idx := range c.indexes {
		values[i] = idx.key(doc)
	}
	return values
}

// write stores doc and moves any index entries whose values changed.
func (c *collection[T]) write(txn *badger.Txn, id string, before []string, doc *T) error {
	for i, idx := range c.indexes {
		after := idx.key(doc)
		if after == before[i] {
			continue
		}
		if before[i] != "" {
			if err := txn.Delete(c.indexKey(idx.name, before[i])); err != nil {
				return fmt.Errorf("failed to delete old index key: %w", err)
			}
		}
		if after != "" {
			if err := c.claim(txn, idx.name, after, id); err != nil {
				return err
			}
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := txn.Set(c.docKey(id), data); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

// delete removes a document and its index entries. Missing documents return store.ErrNotFound.
func (c *collection[T]) delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return c.deleteTxn(txn, id)
	})
}

func (c *collection[T]) deleteTxn(txn *badger.Txn, id string) error {
	doc, err := c.read(txn, id)
	if err != nil {
		return err
	}

	for _, idx := range c.indexes {
		value := idx.key(doc)
		if value == "" {
			continue
		}
		if err := txn.Delete(c.indexKey(idx.name, value)); err != nil {
			return fmt.Errorf("failed to delete index key: %w", err)
		}
	}

	if err := txn.Delete(c.docKey(id)); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// find returns every document accepted by match.
func (c *collection[T]) find(ctx context.Context, match func(*T) bool) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var docs []T
	err := c.db.View(func(txn *badger.Txn) error {
		return c.scan(ctx, txn, func(_ string, doc *T) bool {
			if match == nil || match(doc) {
				docs = append(docs, *doc)
			}
			return true
		})
	})
	return docs, err
}

// findOne returns the first document accepted by match.
func (c *collection[T]) findOne(ctx context.Context, match func(*T) bool) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var found *T
	err := c.db.View(func(txn *badger.Txn) error {
		return c.scan(ctx, txn, func(_ string, doc *T) bool {
			if match(doc) {
				found = doc
				return false
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

// scan decodes every document under the prefix until fn returns false.
func (c *collection[T]) scan(ctx context.Context, txn *badger.Txn, fn func(id string, doc *T) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(c.prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		id := strings.TrimPrefix(string(it.Item().Key()), c.prefix)
		if strings.HasPrefix(id, "idx:") {
			continue
		}

		var doc T
		err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		})
		if err != nil {
			return fmt.Errorf("failed to unmarshal document %s: %w", id, err)
		}

		if !fn(id, &doc) {
			return nil
		}
	}
	return nil
}
