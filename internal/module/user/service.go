package user

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/simp-lee/hireline/internal/domain"
)

// Service defines user management operations.
type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (*domain.User, error)
	Get(ctx context.Context, id uint) (*domain.User, error)
	List(ctx context.Context, req domain.PageRequest) (*domain.Page[domain.User], error)
	Update(ctx context.Context, id uint, req UpdateUserRequest) (*domain.User, error)
	Delete(ctx context.Context, id uint) error
	// EnsureAdmin creates an ADMIN account for email unless one exists.
	EnsureAdmin(ctx context.Context, name, email, password string) (created bool, err error)
}

// CreateUserRequest represents the input for creating a dashboard account.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Role     string `json:"role" binding:"omitempty,oneof=ADMIN RECRUITER"`
}

// UpdateUserRequest represents the input for updating an account. An empty
// password keeps the current one.
type UpdateUserRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"omitempty,min=8,max=72"`
	Role     string `json:"role" binding:"omitempty,oneof=ADMIN RECRUITER"`
}

// userService implements Service.
type userService struct {
	repo   domain.UserRepository
	logger *slog.Logger
}

// NewUserService creates a new user Service with the given repository.
func NewUserService(repo domain.UserRepository, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &userService{repo: repo, logger: logger}
}

// Create hashes the password and persists a new user.
func (s *userService) Create(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Role:         roleOrDefault(req.Role),
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Get retrieves a user by ID.
func (s *userService) Get(ctx context.Context, id uint) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a paginated list of users.
func (s *userService) List(ctx context.Context, req domain.PageRequest) (*domain.Page[domain.User], error) {
	return s.repo.List(ctx, req)
}

// Update loads the existing user, applies changes, and persists them.
func (s *userService) Update(ctx context.Context, id uint, req UpdateUserRequest) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Email = strings.TrimSpace(req.Email)
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.Password != "" {
		if user.PasswordHash, err = hashPassword(req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes a user by ID.
func (s *userService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func (s *userService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	_, err := s.repo.GetByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !domain.IsNotFound(err) {
		return false, err
	}

	if _, err := s.Create(ctx, CreateUserRequest{Name: name, Email: email, Password: password, Role: domain.RoleAdmin}); err != nil {
		return false, err
	}
	s.logger.InfoContext(ctx, "admin account created", slog.String("email", email))
	return true, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", domain.NewAppError(domain.CodeInternal, "failed to hash password", err)
	}
	return string(hash), nil
}

func roleOrDefault(role string) string {
	if role == "" {
		return domain.RoleRecruiter
	}
	return role
}
