package listview

import (
	"context"
	"sort"
	"sync"
)

// FetchAllFunc loads a whole (small, bounded) collection.
type FetchAllFunc[T any] func(ctx context.Context) ([]T, error)

// Predicate keeps items for which it returns true.
type Predicate[T any] func(T) bool

// Query selects, orders and pages a cached collection. Page is 0-based;
// PageSize <= 0 returns everything.
type Query[T any] struct {
	Filters  []Predicate[T]
	Less     func(a, b T) bool
	Page     int
	PageSize int
}

// View is one page of a filtered collection.
type View[T any] struct {
	Items    []T
	Total    int // items matching the filters
	Page     int
	PageSize int
	Pages    int
}

// Collection is the "eager collection cache with local filter" strategy:
// fetch once, then filter, sort and paginate in memory.
type Collection[T any] struct {
	fetch FetchAllFunc[T]

	mu      sync.RWMutex
	seq     uint64
	items   []T
	loaded  bool
	loading bool
	err     error
}

// NewCollection returns an empty collection backed by fetch.
func NewCollection[T any](fetch FetchAllFunc[T]) *Collection[T] {
	return &Collection[T]{fetch: fetch}
}

// Load fetches the collection. If another Load starts before this one
// returns, this one's result is discarded and ErrStaleResponse returned.
// A fetch error is kept as the collection's error state; cached items stay.
func (c *Collection[T]) Load(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.loading = true
	c.mu.Unlock()

	items, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		return ErrStaleResponse
	}
	c.loading = false
	c.err = err
	if err != nil {
		return err
	}
	c.items = items
	c.loaded = true
	return nil
}

// Refresh is the manual retry after a fetch error.
func (c *Collection[T]) Refresh(ctx context.Context) error {
	return c.Load(ctx)
}

// Prepend inserts a live item at the front without refetching.
func (c *Collection[T]) Prepend(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]T{item}, c.items...)
}

// Err returns the last fetch error, or nil.
func (c *Collection[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Loading reports whether a fetch is outstanding.
func (c *Collection[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Loaded reports whether a fetch has ever succeeded.
func (c *Collection[T]) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Len returns the number of cached items.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// View applies q to the cached items.
func (c *Collection[T]) View(q Query[T]) View[T] {
	c.mu.RLock()
	matched := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if keep(item, q.Filters) {
			matched = append(matched, item)
		}
	}
	c.mu.RUnlock()

	if q.Less != nil {
		sort.SliceStable(matched, func(i, j int) bool { return q.Less(matched[i], matched[j]) })
	}
	return paginate(matched, q.Page, q.PageSize)
}

func keep[T any](item T, filters []Predicate[T]) bool {
	for _, f := range filters {
		if f != nil && !f(item) {
			return false
		}
	}
	return true
}

func paginate[T any](items []T, page, pageSize int) View[T] {
	v := View[T]{Total: len(items), Page: page, PageSize: pageSize}
	if pageSize <= 0 {
		v.Items = items
		v.Pages = 1
		v.Page = 0
		return v
	}

	v.Pages = (len(items) + pageSize - 1) / pageSize
	if v.Pages == 0 {
		v.Pages = 1
	}
	if page < 0 {
		v.Page = 0
	}
	if v.Page >= v.Pages {
		v.Page = v.Pages - 1
	}

	start := v.Page * pageSize
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	if start > end {
		start = end
	}
	v.Items = items[start:end]
	return v
}
