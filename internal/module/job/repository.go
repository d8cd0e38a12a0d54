package job

import (
	"context"

	"gorm.io/gorm"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/pkg"
)

var listSpec = pkg.ListSpec{
	Sorts: map[string]string{
		"title":          "title",
		"location":       "location",
		"employmentType": "employment_type",
		"status":         "status",
		"salaryMin":      "salary_min",
		"salaryMax":      "salary_max",
		"createdAt":      "created_at",
		"updatedAt":      "updated_at",
	},
	Filters: map[string]string{
		"title":          "title",
		"status":         "status",
		"employmentType": "employment_type",
		"location":       "location",
		"companyId":      "company_id",
	},
	Search: []string{"title", "location"},
}

// Repository persists jobs.
type Repository interface {
	domain.Repository[domain.Job]
	ListActive(ctx context.Context) ([]domain.Job, error)
	CompanyExists(ctx context.Context, id uint) (bool, error)
}

type repository struct {
	*pkg.Repository[domain.Job]
}

// NewRepository creates a GORM job repository. Reads join the company;
// collection reads leave out the long text columns.
func NewRepository(db *gorm.DB) Repository {
	base := pkg.NewRepository[domain.Job](db, listSpec)
	base.Preload = []string{"Company"}
	base.ListOmit = []string{"description", "requirements"}
	return &repository{Repository: base}
}

func (r *repository) ListActive(ctx context.Context) ([]domain.Job, error) {
	var jobs []domain.Job
	err := r.DB.WithContext(ctx).
		Preload("Company").
		Omit("description", "requirements").
		Where("status = ?", domain.JobStatusActive).
		Order("created_at desc").Order("id desc").
		Find(&jobs).Error
	if err != nil {
		return nil, pkg.MapDBError(err)
	}
	return jobs, nil
}

func (r *repository) CompanyExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&domain.Company{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, pkg.MapDBError(err)
	}
	return n > 0, nil
}
