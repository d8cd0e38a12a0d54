package user

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/pkg"
)

// listSpec whitelists sorting and filtering for GET /users.
var listSpec = pkg.ListSpec{
	Sorts: map[string]string{
		"name":      "name",
		"email":     "email",
		"role":      "role",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	},
	Filters: map[string]string{"name": "name", "email": "email", "role": "role"},
	Search:  []string{"name", "email"},
}

// userRepository implements domain.UserRepository using GORM.
type userRepository struct {
	*pkg.Repository[domain.User]
}

// NewUserRepository creates a new UserRepository backed by the given GORM database.
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{Repository: pkg.NewRepository[domain.User](db, listSpec)}
}

// GetByEmail looks a user up by email, case-insensitively.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.DB.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, pkg.MapDBError(err)
	}
	return &user, nil
}
