package listview

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/config"
)

// DateWindow limits activities to a recent period.
type DateWindow string

const (
	WindowAll   DateWindow = "all"
	WindowToday DateWindow = "today"
	WindowWeek  DateWindow = "week"
	WindowMonth DateWindow = "month"
)

// ParseDateWindow accepts all, today, week or month ("" means all).
func ParseDateWindow(s string) (DateWindow, error) {
	switch w := DateWindow(strings.ToLower(strings.TrimSpace(s))); w {
	case "", WindowAll:
		return WindowAll, nil
	case WindowToday, WindowWeek, WindowMonth:
		return w, nil
	}
	return "", fmt.Errorf("invalid date window %q: must be all, today, week or month", s)
}

// Start returns the earliest timestamp inside the window, or the zero time
// for WindowAll.
func (w DateWindow) Start(now time.Time) time.Time {
	switch w {
	case WindowToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case WindowWeek:
		return now.AddDate(0, 0, -7)
	case WindowMonth:
		return now.AddDate(0, 0, -30)
	}
	return time.Time{}
}

// ActivityFilter is the activity feed's filter state.
type ActivityFilter struct {
	Search string     // case-insensitive match on user, activity type and details
	Type   string     // exact activity type; "" or "all" for any
	Window DateWindow // date window; "" means all
}

// Predicates returns the filter as collection predicates evaluated at now.
func (f ActivityFilter) Predicates(now time.Time) []Predicate[api.Activity] {
	var preds []Predicate[api.Activity]

	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		preds = append(preds, func(a api.Activity) bool {
			return strings.Contains(strings.ToLower(a.User), s) ||
				strings.Contains(strings.ToLower(a.ActivityType), s) ||
				strings.Contains(strings.ToLower(a.Details), s)
		})
	}
	if f.Type != "" && f.Type != "all" {
		preds = append(preds, func(a api.Activity) bool { return a.ActivityType == f.Type })
	}
	if f.Window != "" && f.Window != WindowAll {
		start := f.Window.Start(now)
		preds = append(preds, func(a api.Activity) bool {
			return a.Timestamp.After(start) && !a.Timestamp.After(now)
		})
	}
	return preds
}

// ActivityFeed is the activity log screen state: an eager collection plus
// filter, page and page size. Every filter change resets the page to 0.
type ActivityFeed struct {
	*Collection[api.Activity]

	// Now is the clock used for date windows.
	Now func() time.Time

	mu       sync.Mutex
	filter   ActivityFilter
	page     int
	pageSize int
}

// NewActivityFeed returns a feed backed by fetch with the default page size.
func NewActivityFeed(fetch FetchAllFunc[api.Activity]) *ActivityFeed {
	return &ActivityFeed{
		Collection: NewCollection(fetch),
		Now:        time.Now,
		pageSize:   config.DefaultPageSize,
	}
}

// Filter returns the current filter.
func (f *ActivityFeed) Filter() ActivityFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filter
}

// SetFilter replaces the whole filter.
func (f *ActivityFeed) SetFilter(filter ActivityFilter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter
	f.page = 0
}

// SetSearch changes the search text.
func (f *ActivityFeed) SetSearch(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.Search = s
	f.page = 0
}

// SetType changes the activity type filter.
func (f *ActivityFeed) SetType(t string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.Type = t
	f.page = 0
}

// SetWindow changes the date window.
func (f *ActivityFeed) SetWindow(w DateWindow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.Window = w
	f.page = 0
}

// SetPage moves to page (0-based).
func (f *ActivityFeed) SetPage(page int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if page < 0 {
		page = 0
	}
	f.page = page
}

// SetPageSize changes the page size; it must be one of config.PageSizes.
func (f *ActivityFeed) SetPageSize(size int) error {
	if !config.ValidPageSize(size) {
		return fmt.Errorf("%w: %d (want one of %v)", ErrInvalidPageSize, size, config.PageSizes)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pageSize = size
	f.page = 0
	return nil
}

// Page returns the current page, newest activity first.
func (f *ActivityFeed) Page() View[api.Activity] {
	f.mu.Lock()
	q := Query[api.Activity]{
		Filters:  f.filter.Predicates(f.Now()),
		Less:     func(a, b api.Activity) bool { return a.Timestamp.After(b.Timestamp) },
		Page:     f.page,
		PageSize: f.pageSize,
	}
	f.mu.Unlock()
	return f.View(q)
}

// Types returns the distinct activity types in the cache, for the type filter.
func (f *ActivityFeed) Types() []string {
	seen := map[string]bool{}
	var types []string
	for _, a := range f.View(Query[api.Activity]{}).Items {
		if !seen[a.ActivityType] {
			seen[a.ActivityType] = true
			types = append(types, a.ActivityType)
		}
	}
	return types
}

// LoadAll is a FetchAllFunc that reads one large page from list, normally
// UsersAPI.Activities.
func LoadAll(list FetchPageFunc[api.Activity]) FetchAllFunc[api.Activity] {
	return func(ctx context.Context) ([]api.Activity, error) {
		page, err := list(ctx, api.ListParams{Page: 1, PageSize: 1000})
		if err != nil {
			return nil, err
		}
		return page.Results, nil
	}
}

// LoadUser is a FetchAllFunc over one user's activities.
func LoadUser(activity *api.ActivityAPI, userID int64) FetchAllFunc[api.Activity] {
	return func(ctx context.Context) ([]api.Activity, error) {
		page, err := activity.ForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		return page.Results, nil
	}
}
