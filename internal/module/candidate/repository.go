package candidate

import (
	"gorm.io/gorm"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/pkg"
)

var listSpec = pkg.ListSpec{
	Sorts: map[string]string{
		"firstName":       "first_name",
		"lastName":        "last_name",
		"email":           "email",
		"location":        "location",
		"experienceYears": "experience_years",
		"createdAt":       "created_at",
		"updatedAt":       "updated_at",
	},
	Filters: map[string]string{
		"location":  "location",
		"email":     "email",
		"lastName":  "last_name",
		"firstName": "first_name",
		"skills":    "skills",
	},
	Search: []string{"first_name", "last_name", "email", "headline", "skills"},
}

// NewRepository creates the candidate repository.
func NewRepository(db *gorm.DB) domain.Repository[domain.Candidate] {
	return pkg.NewRepository[domain.Candidate](db, listSpec)
}
