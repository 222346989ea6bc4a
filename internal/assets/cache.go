package assets

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/assetdesk/internal/logging"
)

// Cache keeps a snapshot of the full register in front of a Store. Reads
// are served from the snapshot; every successful write reloads it.
type Cache struct {
	store Store

	mu       sync.RWMutex
	snapshot []Asset
	loaded   bool
}

// NewCache wraps store. The snapshot is loaded on first use.
func NewCache(store Store) *Cache {
	return &Cache{store: store}
}

// Reload replaces the snapshot with the store's current contents.
func (c *Cache) Reload(ctx context.Context) error {
	list, err := c.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load asset cache: %w", err)
	}

	c.mu.Lock()
	c.snapshot = list
	c.loaded = true
	c.mu.Unlock()

	logging.Debug("Asset cache reloaded", zap.Int("assets", len(list)))
	return nil
}

// List returns a copy of the snapshot.
func (c *Cache) List(ctx context.Context) ([]Asset, error) {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()

	if !loaded {
		if err := c.Reload(ctx); err != nil {
			return nil, err
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Asset, len(c.snapshot))
	copy(out, c.snapshot)
	return out, nil
}

// Query searches the snapshot and returns the requested page.
func (c *Cache) Query(ctx context.Context, query string, page, pageSize int) (Page, error) {
	list, err := c.List(ctx)
	if err != nil {
		return Page{}, err
	}
	return Paginate(Search(list, query), page, pageSize), nil
}

func (c *Cache) Get(ctx context.Context, id int) (Asset, error) {
	return c.store.Get(ctx, id)
}

func (c *Cache) Create(ctx context.Context, a Asset) (Asset, error) {
	created, err := c.store.Create(ctx, a)
	if err != nil {
		return Asset{}, err
	}
	c.refresh(ctx)
	return created, nil
}

func (c *Cache) Update(ctx context.Context, a Asset) error {
	if err := c.store.Update(ctx, a); err != nil {
		return err
	}
	c.refresh(ctx)
	return nil
}

func (c *Cache) Delete(ctx context.Context, id int) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.refresh(ctx)
	return nil
}

// refresh reloads after a write. A failed reload marks the snapshot stale
// so the next read retries.
func (c *Cache) refresh(ctx context.Context) {
	if err := c.Reload(ctx); err != nil {
		logging.Warn("Asset cache refresh failed", zap.Error(err))
		c.mu.Lock()
		c.loaded = false
		c.mu.Unlock()
	}
}
