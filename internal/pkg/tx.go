package pkg

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/simp-lee/hireline/internal/domain"
)

// WithTx runs fn inside a transaction bound to ctx. The transaction commits
// when fn returns nil and rolls back on error or panic. Domain errors from fn
// are returned unchanged; driver errors are mapped with MapDBError.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	err := db.WithContext(ctx).Transaction(fn)
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return MapDBError(err)
}
