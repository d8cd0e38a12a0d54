package company

import (
	"gorm.io/gorm"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/pkg"
)

var listSpec = pkg.ListSpec{
	Sorts: map[string]string{
		"name":      "name",
		"industry":  "industry",
		"location":  "location",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
	Filters: map[string]string{"name": "name", "industry": "industry", "location": "location"},
	Search:  []string{"name", "industry", "location"},
}

// NewRepository creates the company repository.
func NewRepository(db *gorm.DB) domain.Repository[domain.Company] {
	return pkg.NewRepository[domain.Company](db, listSpec)
}
