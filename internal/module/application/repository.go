package application

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/pkg"
)

var listSpec = pkg.ListSpec{
	Sorts: map[string]string{
		"email":     "email",
		"lastName":  "last_name",
		"status":    "status",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
	Filters: map[string]string{
		"jobId":  "job_id",
		"status": "status",
		"email":  "email",
	},
	Search: []string{"email", "first_name", "last_name"},
}

// Repository persists job applications.
type Repository interface {
	domain.Repository[domain.Application]
	// GetJob loads the job an application targets.
	GetJob(ctx context.Context, jobID uint) (*domain.Job, error)
	// Exists reports whether email already applied to jobID, ignoring case.
	Exists(ctx context.Context, jobID uint, email string) (bool, error)
	// Transaction runs fn with a repository bound to one transaction.
	Transaction(ctx context.Context, fn func(Repository) error) error
}

type repository struct {
	*pkg.Repository[domain.Application]
}

// NewRepository creates a GORM application repository that joins the job on reads.
func NewRepository(db *gorm.DB) Repository {
	base := pkg.NewRepository[domain.Application](db, listSpec)
	base.Preload = []string{"Job"}
	base.ListOmit = []string{"cover_letter"}
	return &repository{Repository: base}
}

func (r *repository) GetJob(ctx context.Context, jobID uint) (*domain.Job, error) {
	var job domain.Job
	if err := r.DB.WithContext(ctx).First(&job, jobID).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}
	return &job, nil
}

func (r *repository) Exists(ctx context.Context, jobID uint, email string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&domain.Application{}).
		Where("job_id = ? AND LOWER(email) = ?", jobID, strings.ToLower(strings.TrimSpace(email))).
		Count(&n).Error
	if err != nil {
		return false, pkg.MapDBError(err)
	}
	return n > 0, nil
}

func (r *repository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return pkg.WithTx(ctx, r.DB, func(tx *gorm.DB) error {
		return fn(&repository{Repository: r.Repository.WithDB(tx)})
	})
}
