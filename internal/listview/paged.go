package listview

import (
	"context"
	"sync"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/apiclient"
)

// FetchPageFunc loads one page from the server.
type FetchPageFunc[T any] func(ctx context.Context, p api.ListParams) (*apiclient.Page[T], error)

// PageResult is the state after a successful page fetch.
type PageResult[T any] struct {
	Items    []T
	Count    int
	Page     int // 1-based, as sent to the server
	PageSize int
	Pages    int
}

// PagedQuery is the "server-paginated query" strategy. Every Fetch maps to
// page/page_size query parameters; only the latest issued fetch may update
// the state.
type PagedQuery[T any] struct {
	fetch FetchPageFunc[T]

	mu      sync.RWMutex
	seq     uint64
	last    api.ListParams
	result  PageResult[T]
	loading bool
	err     error
}

// NewPagedQuery returns a query backed by fetch.
func NewPagedQuery[T any](fetch FetchPageFunc[T]) *PagedQuery[T] {
	return &PagedQuery[T]{fetch: fetch}
}

// Fetch requests page (1-based) of pageSize items with the given search and
// filters. A response overtaken by a newer Fetch returns ErrStaleResponse
// and leaves the state alone.
func (q *PagedQuery[T]) Fetch(ctx context.Context, page, pageSize int, search string, filters map[string]string) (PageResult[T], error) {
	if page < 1 {
		page = 1
	}
	return q.run(ctx, api.ListParams{Page: page, PageSize: pageSize, Search: search, Filters: filters})
}

// Refresh repeats the last fetch.
func (q *PagedQuery[T]) Refresh(ctx context.Context) (PageResult[T], error) {
	q.mu.RLock()
	p := q.last
	q.mu.RUnlock()
	if p.Page < 1 {
		p.Page = 1
	}
	return q.run(ctx, p)
}

func (q *PagedQuery[T]) run(ctx context.Context, p api.ListParams) (PageResult[T], error) {
	q.mu.Lock()
	q.seq++
	seq := q.seq
	q.last = p
	q.loading = true
	q.mu.Unlock()

	page, err := q.fetch(ctx, p)

	q.mu.Lock()
	defer q.mu.Unlock()
	if seq != q.seq {
		return PageResult[T]{}, ErrStaleResponse
	}
	q.loading = false
	q.err = err
	if err != nil {
		return PageResult[T]{}, err
	}

	r := PageResult[T]{Items: page.Results, Count: page.Count, Page: p.Page, PageSize: p.PageSize}
	if r.Count == 0 {
		r.Count = len(page.Results)
	}
	if p.PageSize > 0 {
		r.Pages = (r.Count + p.PageSize - 1) / p.PageSize
	}
	if r.Pages == 0 {
		r.Pages = 1
	}
	q.result = r
	return r, nil
}

// Result returns the latest applied page.
func (q *PagedQuery[T]) Result() PageResult[T] {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.result
}

// Err returns the last fetch error, or nil.
func (q *PagedQuery[T]) Err() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.err
}

// Loading reports whether a fetch is outstanding.
func (q *PagedQuery[T]) Loading() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.loading
}
