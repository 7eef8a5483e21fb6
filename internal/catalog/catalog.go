// Package catalog filters, sorts and paginates course listings.
//
// All functions are pure: they take an explicit slice plus a Criteria value and
// never mutate their input.
package catalog

import (
	"slices"
	"strings"

	"github.com/noah-isme/course-market-api/internal/models"
)

// Sort keys understood by Sort.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortTitle     = "title"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100
)

// Criteria describes a catalog query.
type Criteria struct {
	Search   string
	Category string
	Level    string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
	Page     int
	PageSize int
}

// Page is one page of results plus the size of the filtered set.
type Page struct {
	Items    []models.Course
	Total    int
	Page     int
	PageSize int
}

// Apply filters, sorts and paginates courses according to criteria.
func Apply(courses []models.Course, criteria Criteria) Page {
	filtered := Filter(courses, criteria)
	sorted := Sort(filtered, criteria.Sort)
	page, size := normalizePage(criteria.Page, criteria.PageSize)
	return Page{
		Items:    Paginate(sorted, page, size),
		Total:    len(sorted),
		Page:     page,
		PageSize: size,
	}
}

// Filter returns the courses matching every non-empty criterion.
func Filter(courses []models.Course, criteria Criteria) []models.Course {
	search := strings.ToLower(strings.TrimSpace(criteria.Search))
	category := strings.ToLower(strings.TrimSpace(criteria.Category))
	level := strings.ToLower(strings.TrimSpace(criteria.Level))

	out := make([]models.Course, 0, len(courses))
	for _, course := range courses {
		if category != "" && category != "all" && strings.ToLower(course.Category) != category {
			continue
		}
		if level != "" && level != "all" && strings.ToLower(course.Level) != level {
			continue
		}
		if criteria.MinPrice != nil && course.Price < *criteria.MinPrice {
			continue
		}
		if criteria.MaxPrice != nil && course.Price > *criteria.MaxPrice {
			continue
		}
		if search != "" && !matchesSearch(course, search) {
			continue
		}
		out = append(out, course)
	}
	return out
}

func matchesSearch(course models.Course, needle string) bool {
	return strings.Contains(strings.ToLower(course.Title), needle) ||
		strings.Contains(strings.ToLower(course.Subtitle), needle) ||
		strings.Contains(strings.ToLower(course.Description), needle)
}

// Sort returns a sorted copy. Unknown keys fall back to newest first.
func Sort(courses []models.Course, key string) []models.Course {
	out := slices.Clone(courses)
	var cmp func(a, b models.Course) int
	switch key {
	case SortOldest:
		cmp = func(a, b models.Course) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case SortPriceAsc:
		cmp = func(a, b models.Course) int { return compareInt64(a.Price, b.Price) }
	case SortPriceDesc:
		cmp = func(a, b models.Course) int { return compareInt64(b.Price, a.Price) }
	case SortTitle:
		cmp = func(a, b models.Course) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	default:
		cmp = func(a, b models.Course) int { return b.CreatedAt.Compare(a.CreatedAt) }
	}
	slices.SortStableFunc(out, cmp)
	return out
}

// Paginate returns the 1-based page of the given size.
func Paginate(courses []models.Course, page, pageSize int) []models.Course {
	page, pageSize = normalizePage(page, pageSize)
	pages := (len(courses) + pageSize - 1) / pageSize
	// Compare page numbers before multiplying so huge pages cannot overflow.
	if page > pages {
		return []models.Course{}
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(courses) {
		end = len(courses)
	}
	return slices.Clone(courses[start:end])
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
