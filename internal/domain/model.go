package domain

import (
	"context"
	"math"
	"time"
)

// BaseModel is the common base struct for all domain models.
// It replaces gorm.Model to avoid the implicit soft delete behavior of DeletedAt.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GetID returns the primary key.
func (m BaseModel) GetID() uint { return m.ID }

// GetCreatedAt returns the creation instant.
func (m BaseModel) GetCreatedAt() time.Time { return m.CreatedAt }

// Resource is implemented by every record type the backend persists.
type Resource interface {
	GetID() uint
	GetCreatedAt() time.Time
}

// Sort directions accepted by collection endpoints.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// PageRequest holds pagination, sorting, and filtering parameters.
// Page is zero-based.
type PageRequest struct {
	Page          int
	PageSize      int
	SortBy        string
	SortDirection string
	Filter        map[string]string
}

// Page is the collection envelope returned under "data" by list endpoints.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// NewPage builds a Page with computed TotalPages.
func NewPage[T any](items []T, total int64, req PageRequest) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Content:       items,
		TotalElements: total,
		TotalPages:    TotalPages(total, req.PageSize),
		Number:        req.Page,
		Size:          req.PageSize,
	}
}

// TotalPages is the number of pages of size needed to hold total items.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(size)))
}

// Repository is the data access contract shared by all resource modules.
type Repository[T any] interface {
	Create(ctx context.Context, item *T) error
	GetByID(ctx context.Context, id uint) (*T, error)
	List(ctx context.Context, req PageRequest) (*Page[T], error)
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id uint) error
}
