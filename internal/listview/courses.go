package listview

import (
	"strings"

	"github.com/muurk/lmsadmin/internal/api"
)

// CourseFilter is the course list's filter state.
type CourseFilter struct {
	Status   string // status tab: "", "all", "Published", "Draft", "Archived"
	Search   string // case-insensitive match on title and code
	Category string // category name
	Level    string
}

// Predicates returns the filter as collection predicates.
func (f CourseFilter) Predicates() []Predicate[api.Course] {
	var preds []Predicate[api.Course]

	if f.Status != "" && !strings.EqualFold(f.Status, "all") {
		preds = append(preds, func(c api.Course) bool { return strings.EqualFold(c.Status, f.Status) })
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		preds = append(preds, func(c api.Course) bool {
			return strings.Contains(strings.ToLower(c.Title), s) ||
				strings.Contains(strings.ToLower(c.Code), s)
		})
	}
	if f.Category != "" && f.Category != "all" {
		preds = append(preds, func(c api.Course) bool { return strings.EqualFold(c.CategoryName(), f.Category) })
	}
	if f.Level != "" && f.Level != "all" {
		preds = append(preds, func(c api.Course) bool { return strings.EqualFold(c.Level, f.Level) })
	}
	return preds
}

// Query returns a course query for page (0-based) sorted by title.
func (f CourseFilter) Query(page, pageSize int) Query[api.Course] {
	return Query[api.Course]{
		Filters:  f.Predicates(),
		Less:     func(a, b api.Course) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) },
		Page:     page,
		PageSize: pageSize,
	}
}

// StatusCounts returns the number of cached courses per status, plus "all".
func StatusCounts(c *Collection[api.Course]) map[string]int {
	counts := map[string]int{}
	for _, course := range c.View(Query[api.Course]{}).Items {
		counts["all"]++
		counts[course.Status]++
	}
	return counts
}
