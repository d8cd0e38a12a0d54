package candidate

import (
	"context"
	"strings"

	"github.com/simp-lee/hireline/internal/domain"
)

// Request is the create and update payload for a candidate.
type Request struct {
	FirstName       string   `json:"firstName" binding:"required,min=2,max=100"`
	LastName        string   `json:"lastName" binding:"required,min=2,max=100"`
	Email           string   `json:"email" binding:"required,email,max=255"`
	Phone           string   `json:"phone" binding:"max=30"`
	Location        string   `json:"location" binding:"max=150"`
	Headline        string   `json:"headline" binding:"max=255"`
	ExperienceYears int      `json:"experienceYears" binding:"gte=0,lte=70"`
	Skills          []string `json:"skills" binding:"max=50,dive,max=60"`
}

func (r Request) apply(c *domain.Candidate) {
	c.FirstName = strings.TrimSpace(r.FirstName)
	c.LastName = strings.TrimSpace(r.LastName)
	c.Email = strings.ToLower(strings.TrimSpace(r.Email))
	c.Phone = strings.TrimSpace(r.Phone)
	c.Location = strings.TrimSpace(r.Location)
	c.Headline = strings.TrimSpace(r.Headline)
	c.ExperienceYears = r.ExperienceYears
	c.Skills = normalizeSkills(r.Skills)
}

// normalizeSkills trims entries and drops blanks and case-insensitive repeats.
func normalizeSkills(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// Service defines candidate operations.
type Service interface {
	Create(ctx context.Context, req Request) (*domain.Candidate, error)
	Get(ctx context.Context, id uint) (*domain.Candidate, error)
	List(ctx context.Context, req domain.PageRequest) (*domain.Page[domain.Candidate], error)
	Update(ctx context.Context, id uint, req Request) (*domain.Candidate, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo domain.Repository[domain.Candidate]
}

// NewService creates a candidate Service.
func NewService(repo domain.Repository[domain.Candidate]) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req Request) (*domain.Candidate, error) {
	var c domain.Candidate
	req.apply(&c)
	if err := s.repo.Create(ctx, &c); err != nil {
		return nil, emailTaken(err)
	}
	return &c, nil
}

func (s *service) Get(ctx context.Context, id uint) (*domain.Candidate, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, req domain.PageRequest) (*domain.Page[domain.Candidate], error) {
	return s.repo.List(ctx, req)
}

func (s *service) Update(ctx context.Context, id uint, req Request) (*domain.Candidate, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.apply(c)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, emailTaken(err)
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// emailTaken reports a unique email violation against the email field.
func emailTaken(err error) error {
	if domain.IsAlreadyExists(err) {
		return domain.NewValidationError(map[string]string{"email": "a candidate with this email already exists"})
	}
	return err
}
