package job

import (
	"context"
	"log/slog"
	"strings"

	"github.com/simp-lee/hireline/internal/domain"
)

// Request is the create and update payload for a job. Status defaults to
// ACTIVE on create and is kept on update when empty.
type Request struct {
	Title          string `json:"title" binding:"required,min=2,max=200"`
	CompanyID      uint   `json:"companyId" binding:"required"`
	Location       string `json:"location" binding:"max=150"`
	EmploymentType string `json:"employmentType" binding:"omitempty,oneof=FULL_TIME PART_TIME CONTRACT INTERNSHIP"`
	SalaryMin      int    `json:"salaryMin" binding:"gte=0"`
	SalaryMax      int    `json:"salaryMax" binding:"gte=0"`
	Status         string `json:"status" binding:"omitempty,oneof=ACTIVE CLOSED"`
	Description    string `json:"description" binding:"max=20000"`
	Requirements   string `json:"requirements" binding:"max=20000"`
}

// StatusRequest is the body of PATCH /jobs/:id/status. An empty status
// flips the current one.
type StatusRequest struct {
	Status string `json:"status" binding:"omitempty,oneof=ACTIVE CLOSED"`
}

// Service defines job operations.
type Service interface {
	Create(ctx context.Context, req Request) (*domain.Job, error)
	Get(ctx context.Context, id uint) (*domain.Job, error)
	List(ctx context.Context, req domain.PageRequest) (*domain.Page[domain.Job], error)
	ListActive(ctx context.Context) ([]domain.Job, error)
	Update(ctx context.Context, id uint, req Request) (*domain.Job, error)
	SetStatus(ctx context.Context, id uint, status string) (*domain.Job, error)
	Delete(ctx context.Context, id uint) error
}

type service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a job Service.
func NewService(repo Repository, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, logger: logger}
}

func (s *service) Create(ctx context.Context, req Request) (*domain.Job, error) {
	job := &domain.Job{Status: domain.JobStatusActive}
	if err := s.apply(ctx, job, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "job created", slog.Uint64("job_id", uint64(job.ID)), slog.String("title", job.Title))
	return job, nil
}

func (s *service) Get(ctx context.Context, id uint) (*domain.Job, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, req domain.PageRequest) (*domain.Page[domain.Job], error) {
	return s.repo.List(ctx, req)
}

func (s *service) ListActive(ctx context.Context) ([]domain.Job, error) {
	return s.repo.ListActive(ctx)
}

func (s *service) Update(ctx context.Context, id uint, req Request) (*domain.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, job, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *service) SetStatus(ctx context.Context, id uint, status string) (*domain.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := job.Status.Toggle()
	if status != "" {
		if next, err = domain.ParseJobStatus(status); err != nil {
			return nil, domain.NewValidationError(map[string]string{"status": err.Error()})
		}
	}
	job.Status = next

	if err := s.repo.Update(ctx, job); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "job status changed", slog.Uint64("job_id", uint64(id)), slog.String("status", string(next)))
	return job, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// apply copies req onto job after the checks binding tags cannot express.
func (s *service) apply(ctx context.Context, job *domain.Job, req Request) error {
	fields := make(map[string]string)
	if req.SalaryMax > 0 && req.SalaryMin > req.SalaryMax {
		fields["salaryMax"] = "must not be lower than salaryMin"
	}
	ok, err := s.repo.CompanyExists(ctx, req.CompanyID)
	if err != nil {
		return err
	}
	if !ok {
		fields["companyId"] = "company does not exist"
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}

	job.Title = strings.TrimSpace(req.Title)
	if job.CompanyID != req.CompanyID {
		job.Company = nil
	}
	job.CompanyID = req.CompanyID
	job.Location = strings.TrimSpace(req.Location)
	job.EmploymentType = req.EmploymentType
	job.SalaryMin = req.SalaryMin
	job.SalaryMax = req.SalaryMax
	if req.Status != "" {
		job.Status = domain.JobStatus(req.Status)
	}
	job.Description = strings.TrimSpace(req.Description)
	job.Requirements = strings.TrimSpace(req.Requirements)
	return nil
}
