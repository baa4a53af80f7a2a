package catalog

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// NormalizeCategory replaces spaces by underscores
func NormalizeCategory(name string) string {
	return strings.Join(strings.Fields(name), "_")
}

// CategoryIndex maps category names to vendor's category IDs.
// It is loaded on first use and kept for the life of its owner.
// A failed load leaves the index empty and the next call tries again.
type CategoryIndex struct {
	load func(ctx context.Context) (map[string]string, error)

	mu        sync.Mutex
	populated bool
	ids       map[string]string
}

// NewCategoryIndex returns an index populated by the load function
func NewCategoryIndex(load func(ctx context.Context) (map[string]string, error)) *CategoryIndex {
	return &CategoryIndex{load: load}
}

// IDs returns the name to ID mapping, populating the index when needed.
// The same map is returned on every call, callers must not modify it.
func (c *CategoryIndex) IDs(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.populated {
		return c.ids, nil
	}
	raw, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.ids = make(map[string]string, len(raw))
	for name, id := range raw {
		c.ids[NormalizeCategory(name)] = id
	}
	c.populated = true
	return c.ids, nil
}

// Names returns the sorted category names
func (c *CategoryIndex) Names(ctx context.Context) ([]string, error) {
	ids, err := c.IDs(ctx)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(ids)), nil
}

// Lookup returns the ID of the category name. The name is normalized before the lookup.
func (c *CategoryIndex) Lookup(ctx context.Context, name string) (string, error) {
	ids, err := c.IDs(ctx)
	if err != nil {
		return "", err
	}
	name = NormalizeCategory(name)
	if id, ok := ids[name]; ok {
		return id, nil
	}
	for n, id := range ids {
		if strings.EqualFold(n, name) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrCategoryNotFound, name)
}

// Populated is true once the index has been loaded
func (c *CategoryIndex) Populated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.populated
}
