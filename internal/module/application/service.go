package application

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/simp-lee/hireline/internal/domain"
	"github.com/simp-lee/hireline/internal/storage"
)

// SubmitRequest is the scalar part of the public application form.
type SubmitRequest struct {
	JobID       uint   `form:"jobId" json:"jobId" binding:"required"`
	Email       string `form:"email" json:"email" binding:"required,email,max=255"`
	FirstName   string `form:"firstName" json:"firstName" binding:"required,min=2,max=100"`
	LastName    string `form:"lastName" json:"lastName" binding:"required,min=2,max=100"`
	PhoneNumber string `form:"phoneNumber" json:"phoneNumber" binding:"max=15"`
	CoverLetter string `form:"coverLetter" json:"coverLetter" binding:"max=2000"`
}

// StatusRequest is the body of PUT /job-applications/:id.
type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PENDING REVIEWED INTERVIEW REJECTED HIRED"`
}

// Upload is the CV part of a submission.
type Upload struct {
	Name string
	Body io.Reader
}

// FileStore keeps uploaded CVs.
type FileStore interface {
	Save(ctx context.Context, originalName string, r io.Reader) (storage.Stored, error)
	Open(key string) (*os.File, error)
	Remove(key string) error
}

// Service defines job application operations.
type Service interface {
	Submit(ctx context.Context, req SubmitRequest, cv Upload) (*domain.Application, error)
	Get(ctx context.Context, id uint) (*domain.Application, error)
	List(ctx context.Context, req domain.PageRequest) (*domain.Page[domain.Application], error)
	UpdateStatus(ctx context.Context, id uint, status string) (*domain.Application, error)
	Delete(ctx context.Context, id uint) error
	// OpenCV returns the stored CV of an application. The caller closes the file.
	OpenCV(ctx context.Context, id uint) (*domain.Application, *os.File, error)
}

type service struct {
	repo   Repository
	files  FileStore
	logger *slog.Logger
}

// NewService creates an application Service.
func NewService(repo Repository, files FileStore, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{repo: repo, files: files, logger: logger}
}

// Submit checks the target job, stores the CV and records the application.
// The stored file is removed again when the record cannot be written.
func (s *service) Submit(ctx context.Context, req SubmitRequest, cv Upload) (*domain.Application, error) {
	app := &domain.Application{
		JobID:       req.JobID,
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		CoverLetter: strings.TrimSpace(req.CoverLetter),
		Status:      domain.ApplicationPending,
	}
	if err := s.check(ctx, app, cv); err != nil {
		return nil, err
	}

	stored, err := s.files.Save(ctx, cv.Name, cv.Body)
	if err != nil {
		return nil, err
	}
	app.CVFileName = cv.Name
	app.CVPath = stored.Key
	app.CVType = stored.ContentType

	err = s.repo.Transaction(ctx, func(repo Repository) error {
		dup, err := repo.Exists(ctx, app.JobID, app.Email)
		if err != nil {
			return err
		}
		if dup {
			return domain.NewValidationError(map[string]string{"email": "you have already applied for this job"})
		}
		return repo.Create(ctx, app)
	})
	if err != nil {
		s.removeCV(ctx, stored.Key)
		return nil, err
	}

	s.logger.InfoContext(ctx, "application received",
		slog.Uint64("application_id", uint64(app.ID)),
		slog.Uint64("job_id", uint64(app.JobID)),
		slog.Int64("cv_bytes", stored.Size),
	)
	return app, nil
}

// check validates what binding tags cannot: trimmed name lengths, the CV
// part and the target job's state.
func (s *service) check(ctx context.Context, app *domain.Application, cv Upload) error {
	fields := make(map[string]string)
	if len(app.FirstName) < 2 {
		fields["firstName"] = "must be at least 2 characters"
	}
	if len(app.LastName) < 2 {
		fields["lastName"] = "must be at least 2 characters"
	}
	if cv.Body == nil || strings.TrimSpace(cv.Name) == "" {
		fields["cvFile"] = "a CV file is required"
	}

	job, err := s.repo.GetJob(ctx, app.JobID)
	switch {
	case domain.IsNotFound(err):
		fields["jobId"] = "job does not exist"
	case err != nil:
		return err
	case job.Status != domain.JobStatusActive:
		fields["jobId"] = "job is no longer accepting applications"
	}

	if len(fields) > 0 {
		return domain.NewValidationError(fields)
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uint) (*domain.Application, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, req domain.PageRequest) (*domain.Page[domain.Application], error) {
	return s.repo.List(ctx, req)
}

func (s *service) UpdateStatus(ctx context.Context, id uint, status string) (*domain.Application, error) {
	next, err := domain.ParseApplicationStatus(status)
	if err != nil {
		return nil, domain.NewValidationError(map[string]string{"status": err.Error()})
	}
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	app.Status = next
	if err := s.repo.Update(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeCV(ctx, app.CVPath)
	return nil
}

func (s *service) OpenCV(ctx context.Context, id uint) (*domain.Application, *os.File, error) {
	app, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if app.CVPath == "" {
		return nil, nil, domain.NewAppError(domain.CodeNotFound, "application has no CV", nil)
	}
	f, err := s.files.Open(app.CVPath)
	if err != nil {
		return nil, nil, err
	}
	return app, f, nil
}

func (s *service) removeCV(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.files.Remove(key); err != nil {
		s.logger.WarnContext(ctx, "failed to remove stored CV", slog.String("key", key), slog.Any("error", err))
	}
}
