package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrIndexOutOfRange = errors.New("product index out of range")
	ErrProductNotFound = errors.New("product not found")
)

// Catalog applies load-mutate-save operations on a Store. Mutations are
// serialised within the process; separate processes sharing a backing store
// still race and the last save wins.
type Catalog struct {
	store Store
	log   *zap.Logger
	newID func() string

	mu sync.Mutex
}

func New(store Store, log *zap.Logger) *Catalog {
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{
		store: store,
		log:   log,
		newID: uuid.NewString,
	}
}

func (c *Catalog) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

// List returns the current sequence. Storage problems degrade to an empty
// catalog and are only logged.
func (c *Catalog) List(ctx context.Context) []Product {
	products, err := c.store.Load(ctx)
	if err != nil {
		c.log.Warn("catalog load failed, treating as empty", zap.Error(err))
		return []Product{}
	}
	return products
}

func (c *Catalog) Append(ctx context.Context, p Product) (Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p.ID == "" {
		p.ID = c.newID()
	}

	products := c.List(ctx)
	products = append(products, p)
	if err := c.store.Save(ctx, products); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (c *Catalog) ReplaceAt(ctx context.Context, index int, p Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	products := c.List(ctx)
	if index < 0 || index >= len(products) {
		return ErrIndexOutOfRange
	}

	p.ID = products[index].ID
	p.carryExtra(products[index])
	products[index] = p
	return c.store.Save(ctx, products)
}

func (c *Catalog) RemoveAt(ctx context.Context, index int) (Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	products := c.List(ctx)
	if index < 0 || index >= len(products) {
		return Product{}, ErrIndexOutOfRange
	}

	removed := products[index]
	products = append(products[:index], products[index+1:]...)
	if err := c.store.Save(ctx, products); err != nil {
		return Product{}, err
	}
	return removed, nil
}

func (c *Catalog) ReplaceByID(ctx context.Context, id string, p Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	products := c.List(ctx)
	i := indexOf(products, id)
	if i < 0 {
		return ErrProductNotFound
	}

	p.ID = id
	p.carryExtra(products[i])
	products[i] = p
	return c.store.Save(ctx, products)
}

func (c *Catalog) RemoveByID(ctx context.Context, id string) (Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	products := c.List(ctx)
	i := indexOf(products, id)
	if i < 0 {
		return Product{}, ErrProductNotFound
	}

	removed := products[i]
	products = append(products[:i], products[i+1:]...)
	if err := c.store.Save(ctx, products); err != nil {
		return Product{}, err
	}
	return removed, nil
}

// Get looks a product up by its stable id.
func (c *Catalog) Get(ctx context.Context, id string) (Product, int, bool) {
	products := c.List(ctx)
	i := indexOf(products, id)
	if i < 0 {
		return Product{}, -1, false
	}
	return products[i], i, true
}

func indexOf(products []Product, id string) int {
	if id == "" {
		return -1
	}
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
