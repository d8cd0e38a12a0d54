package pkg

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/simp-lee/hireline/internal/domain"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	defaultSortBy   = "createdAt"
)

// FilterAll is the sentinel meaning "no filter" in list queries.
const FilterAll = "ALL"

// reservedParams lists query parameter names used for pagination/sorting, not for filtering.
var reservedParams = map[string]bool{
	"page":          true,
	"size":          true,
	"sortBy":        true,
	"sortDirection": true,
}

// validColumn matches only alphanumeric characters, underscores and a single table qualifier.
var validColumn = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// ListSpec whitelists what a collection endpoint may sort and filter on.
// Keys are API field names, values are database columns.
type ListSpec struct {
	Sorts   map[string]string
	Filters map[string]string
	// Search lists columns matched case-insensitively by the "search" filter.
	Search []string
}

// ParsePageRequest extracts zero-based pagination, sorting and filtering
// parameters from the query string. Empty and "ALL" filters are dropped.
func ParsePageRequest(c *gin.Context) domain.PageRequest {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		page = 0
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
	if err != nil || size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	direction := strings.ToLower(strings.TrimSpace(c.DefaultQuery("sortDirection", domain.SortDesc)))
	if direction != domain.SortAsc && direction != domain.SortDesc {
		direction = domain.SortDesc
	}

	filter := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		v := strings.TrimSpace(values[0])
		if v == "" || v == FilterAll {
			continue
		}
		filter[key] = v
	}

	return domain.PageRequest{
		Page:          page,
		PageSize:      size,
		SortBy:        strings.TrimSpace(c.DefaultQuery("sortBy", defaultSortBy)),
		SortDirection: direction,
		Filter:        filter,
	}
}

// Paginate returns a GORM scope that applies LIMIT and OFFSET for a zero-based page.
func Paginate(req domain.PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Page * req.PageSize).Limit(req.PageSize)
	}
}

// Sort returns a GORM scope that applies ORDER BY for a whitelisted field.
// Unknown fields fall back to created_at; the direction is always applied.
func Sort(req domain.PageRequest, spec ListSpec) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		column, ok := spec.Sorts[req.SortBy]
		if !ok || !validColumn.MatchString(column) {
			column = "created_at"
		}
		direction := domain.SortDesc
		if req.SortDirection == domain.SortAsc {
			direction = domain.SortAsc
		}
		return db.Order(column + " " + direction).Order("id " + direction)
	}
}

// Filter returns a GORM scope that applies WHERE conditions for whitelisted
// filters. Keys ending with "__like" produce a LIKE '%value%' condition; the
// "search" key matches any Search column.
func Filter(req domain.PageRequest, spec ListSpec) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for key, value := range req.Filter {
			if key == "search" {
				db = searchScope(db, spec.Search, value)
				continue
			}
			like := strings.HasSuffix(key, "__like")
			column, ok := spec.Filters[strings.TrimSuffix(key, "__like")]
			if !ok || !validColumn.MatchString(column) {
				continue
			}
			if like {
				db = db.Where("LOWER("+column+") LIKE ?", "%"+strings.ToLower(value)+"%")
			} else {
				db = db.Where(column+" = ?", value)
			}
		}
		return db
	}
}

func searchScope(db *gorm.DB, columns []string, term string) *gorm.DB {
	pattern := "%" + strings.ToLower(term) + "%"
	var clauses []string
	var args []any
	for _, column := range columns {
		if !validColumn.MatchString(column) {
			continue
		}
		clauses = append(clauses, "LOWER("+column+") LIKE ?")
		args = append(args, pattern)
	}
	if len(clauses) == 0 {
		return db
	}
	return db.Where(strings.Join(clauses, " OR "), args...)
}
