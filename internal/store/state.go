package store

import (
	"maps"
	"slices"
	"time"

	"github.com/simp-lee/hireline/internal/domain"
)

// Collection defaults applied when a fetch leaves a parameter unset.
const (
	DefaultPageSize      = 10
	DefaultSortBy        = "createdAt"
	DefaultSortDirection = domain.SortDesc

	// StaleAfter is the age past which a loaded collection is reported stale.
	StaleAfter = 5 * time.Minute

	// FilterAll is the sentinel filter value meaning "no filter".
	FilterAll = "ALL"
)

// Pagination mirrors the page metadata of the last successful fetch.
type Pagination struct {
	TotalItems  int64
	TotalPages  int
	CurrentPage int
	PageSize    int
}

// adjust changes TotalItems by delta and recomputes TotalPages. CurrentPage
// is pulled back onto the last page when a removal empties it.
func (p *Pagination) adjust(delta int64) {
	p.TotalItems = max(p.TotalItems+delta, 0)
	size := p.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	p.TotalPages = domain.TotalPages(p.TotalItems, size)
	if p.TotalPages > 0 && p.CurrentPage >= p.TotalPages {
		p.CurrentPage = p.TotalPages - 1
	}
}

// Query is the parameter set of the last successful fetch, replayed by
// Refresh, GoToPage, SetPageSize and SortBy.
type Query struct {
	Filters       map[string]string
	SortBy        string
	SortDirection string
}

// State is the observable state of one resource collection.
type State[T any] struct {
	Items      []T
	Selected   *T
	Pagination Pagination
	Query      Query
	Loading    bool
	LastError  string
	Indexes    map[string][]string
	LastFetch  time.Time
}

// FetchParams are the arguments of a collection fetch. Zero values fall back
// to the defaults above.
type FetchParams struct {
	Filters       map[string]string
	Page          int
	PageSize      int
	SortBy        string
	SortDirection string
}

func newState[T any]() State[T] {
	return State[T]{
		Items:      []T{},
		Pagination: Pagination{PageSize: DefaultPageSize},
		Query: Query{
			Filters:       map[string]string{},
			SortBy:        DefaultSortBy,
			SortDirection: DefaultSortDirection,
		},
		Indexes: map[string][]string{},
	}
}

// cloner is implemented by records holding slices or pointers.
type cloner[T any] interface {
	Clone() T
}

func cloneItem[T any](v T) T {
	if c, ok := any(v).(cloner[T]); ok {
		return c.Clone()
	}
	return v
}

func cloneItems[T any](items []T) []T {
	out := make([]T, len(items))
	for i, item := range items {
		out[i] = cloneItem(item)
	}
	return out
}

// clone copies every slice, map and record so the result shares nothing
// mutable with the store.
func (s State[T]) clone() State[T] {
	out := s
	out.Items = cloneItems(s.Items)
	if s.Selected != nil {
		sel := cloneItem(*s.Selected)
		out.Selected = &sel
	}
	out.Query.Filters = maps.Clone(s.Query.Filters)
	if out.Query.Filters == nil {
		out.Query.Filters = map[string]string{}
	}
	out.Indexes = make(map[string][]string, len(s.Indexes))
	for k, v := range s.Indexes {
		out.Indexes[k] = slices.Clone(v)
	}
	return out
}

// normalize returns p with defaults applied and the sort direction normalised.
func (p FetchParams) normalize() FetchParams {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.SortBy == "" {
		p.SortBy = DefaultSortBy
	}
	switch p.SortDirection {
	case domain.SortAsc, "ASC", "Asc":
		p.SortDirection = domain.SortAsc
	default:
		p.SortDirection = domain.SortDesc
	}
	p.Filters = maps.Clone(p.Filters)
	if p.Filters == nil {
		p.Filters = map[string]string{}
	}
	return p
}

// activeFilters drops empty and ALL filter values.
func activeFilters(filters map[string]string) map[string]string {
	out := make(map[string]string, len(filters))
	for k, v := range filters {
		if v == "" || v == FilterAll {
			continue
		}
		out[k] = v
	}
	return out
}
