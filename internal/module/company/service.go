package company

import (
	"context"
	"strings"

	"github.com/simp-lee/hireline/internal/domain"
)

// Request is the create and update payload for a company.
type Request struct {
	Name         string `json:"name" binding:"required,min=2,max=150"`
	Industry     string `json:"industry" binding:"max=100"`
	Location     string `json:"location" binding:"max=150"`
	Website      string `json:"website" binding:"omitempty,url,max=255"`
	ContactEmail string `json:"contactEmail" binding:"omitempty,email,max=255"`
	Description  string `json:"description" binding:"max=5000"`
}

func (r Request) apply(c *domain.Company) {
	c.Name = strings.TrimSpace(r.Name)
	c.Industry = strings.TrimSpace(r.Industry)
	c.Location = strings.TrimSpace(r.Location)
	c.Website = strings.TrimSpace(r.Website)
	c.ContactEmail = strings.TrimSpace(r.ContactEmail)
	c.Description = strings.TrimSpace(r.Description)
}

// Service defines company operations.
type Service interface {
	Create(ctx context.Context, req Request) (*domain.Company, error)
	Get(ctx context.Context, id uint) (*domain.Company, error)
	List(ctx context.Context, req domain.PageRequest) (*domain.Page[domain.Company], error)
	Update(ctx context.Context, id uint, req Request) (*domain.Company, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo domain.Repository[domain.Company]
}

// NewService creates a company Service.
func NewService(repo domain.Repository[domain.Company]) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req Request) (*domain.Company, error) {
	var c domain.Company
	req.apply(&c)
	if err := s.repo.Create(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *service) Get(ctx context.Context, id uint) (*domain.Company, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, req domain.PageRequest) (*domain.Page[domain.Company], error) {
	return s.repo.List(ctx, req)
}

func (s *service) Update(ctx context.Context, id uint, req Request) (*domain.Company, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(c)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}
