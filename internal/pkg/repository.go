package pkg

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/simp-lee/hireline/internal/domain"
)

// Repository implements domain.Repository[T] with GORM. Resource modules
// embed it and add their own lookups.
type Repository[T any] struct {
	DB   *gorm.DB
	Spec ListSpec
	// Preload names associations loaded with every read.
	Preload []string
	// ListOmit names columns left out of collection responses.
	ListOmit []string
}

// NewRepository creates a Repository for T.
func NewRepository[T any](db *gorm.DB, spec ListSpec) *Repository[T] {
	return &Repository[T]{DB: db, Spec: spec}
}

// Create inserts item.
func (r *Repository[T]) Create(ctx context.Context, item *T) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(item).Error; err != nil {
		return MapDBError(err)
	}
	return r.reload(ctx, item)
}

// GetByID retrieves an item by its primary key.
func (r *Repository[T]) GetByID(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := r.preload(r.DB.WithContext(ctx)).First(&item, id).Error; err != nil {
		return nil, MapDBError(err)
	}
	return &item, nil
}

// List returns one sorted, filtered page.
func (r *Repository[T]) List(ctx context.Context, req domain.PageRequest) (*domain.Page[T], error) {
	return r.ListWhere(ctx, req)
}

// ListWhere is List with extra scopes applied before filtering.
func (r *Repository[T]) ListWhere(ctx context.Context, req domain.PageRequest, scopes ...func(*gorm.DB) *gorm.DB) (*domain.Page[T], error) {
	base := func() *gorm.DB {
		return r.DB.WithContext(ctx).Model(new(T)).Scopes(scopes...).Scopes(Filter(req, r.Spec))
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, MapDBError(err)
	}

	var items []T
	query := r.preload(base()).Scopes(Paginate(req), Sort(req, r.Spec))
	if len(r.ListOmit) > 0 {
		query = query.Omit(r.ListOmit...)
	}
	if err := query.Find(&items).Error; err != nil {
		return nil, MapDBError(err)
	}

	return domain.NewPage(items, total, req), nil
}

// Update saves changes to an existing item.
func (r *Repository[T]) Update(ctx context.Context, item *T) error {
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Save(item).Error; err != nil {
		return MapDBError(err)
	}
	return r.reload(ctx, item)
}

// Delete removes an item by ID.
func (r *Repository[T]) Delete(ctx context.Context, id uint) error {
	result := r.DB.WithContext(ctx).Delete(new(T), id)
	if result.Error != nil {
		return MapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// WithDB returns a copy bound to db, typically a transaction.
func (r *Repository[T]) WithDB(db *gorm.DB) *Repository[T] {
	cp := *r
	cp.DB = db
	return &cp
}

func (r *Repository[T]) preload(db *gorm.DB) *gorm.DB {
	for _, assoc := range r.Preload {
		db = db.Preload(assoc)
	}
	return db
}

// reload refreshes associations after a write so responses carry joined data.
func (r *Repository[T]) reload(ctx context.Context, item *T) error {
	if len(r.Preload) == 0 {
		return nil
	}
	if err := r.preload(r.DB.WithContext(ctx)).First(item).Error; err != nil {
		return MapDBError(err)
	}
	return nil
}

// MapDBError converts GORM errors to domain errors.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by examining the
// error message. Not all GORM dialectors translate driver-level errors to
// gorm.ErrDuplicatedKey (e.g. the pure-Go SQLite driver).
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
