package store

import (
	"context"
	"log/slog"

	"github.com/simp-lee/hireline/internal/apiclient"
	"github.com/simp-lee/hireline/internal/domain"
)

// IndexJobs lists the distinct job titles on the loaded application page.
const IndexJobs = "jobs"

// ApplicationStore holds the job applications collection and submits new
// applications with a CV attachment.
type ApplicationStore struct {
	*Engine[domain.Application]

	validate *submissionValidator
}

// NewApplicationStore creates an empty ApplicationStore.
func NewApplicationStore(client *apiclient.Client, logger *slog.Logger) *ApplicationStore {
	return &ApplicationStore{
		Engine: NewEngine(client, Config[domain.Application]{
			Path:     "/job-applications",
			Singular: "application",
			Plural:   "applications",
			Indexes: map[string]IndexFunc[domain.Application]{
				IndexJobs:     func(a domain.Application) []string { return one(a.JobTitle()) },
				IndexStatuses: func(a domain.Application) []string { return one(string(a.Status)) },
			},
			SearchFields: func(a domain.Application) []string {
				return []string{a.FirstName, a.LastName, a.Email, a.JobTitle()}
			},
			PublicCreate: true,
		}, logger),
		validate: newSubmissionValidator(),
	}
}

// Submit validates sub locally and, when it passes, posts it as a multipart
// form. Validation failures are returned as a domain validation error keyed
// by form field and never reach the network.
func (s *ApplicationStore) Submit(ctx context.Context, sub ApplicationSubmission) (domain.Application, error) {
	sub = sub.normalize()
	fields := s.validate.check(sub)
	if len(fields) == 0 && s.hasApplied(sub.JobID, sub.Email) {
		fields = map[string]string{"email": "an application for this job has already been submitted with this email"}
	}
	if len(fields) > 0 {
		s.apply(func(st *State[domain.Application]) { st.LastError = "Please correct the highlighted fields" })
		return domain.Application{}, domain.NewValidationError(fields)
	}

	form := sub.form()
	return s.create(ctx, func(ctx context.Context, out *domain.Application) error {
		return s.client.PostMultipart(ctx, s.cfg.Path, form, out)
	})
}

// hasApplied reports whether the loaded page already holds an application
// for jobID from email, ignoring case.
func (s *ApplicationStore) hasApplied(jobID uint, email string) bool {
	for _, a := range s.Items() {
		if a.JobID == jobID && equalFoldTrim(a.Email, email) {
			return true
		}
	}
	return false
}

type applicationStatusRequest struct {
	Status domain.ApplicationStatus `json:"status"`
}

// UpdateStatus moves a loaded application to status.
func (s *ApplicationStore) UpdateStatus(ctx context.Context, id uint, status domain.ApplicationStatus) (domain.Application, error) {
	if _, err := domain.ParseApplicationStatus(string(status)); err != nil {
		return domain.Application{}, domain.NewValidationError(map[string]string{"status": err.Error()})
	}
	return s.Update(ctx, id, applicationStatusRequest{Status: status})
}

// CountByStatus counts loaded applications per status.
func (s *ApplicationStore) CountByStatus() map[domain.ApplicationStatus]int {
	out := make(map[domain.ApplicationStatus]int)
	for _, a := range s.Items() {
		out[a.Status]++
	}
	return out
}

// ForJob returns loaded applications for one job.
func (s *ApplicationStore) ForJob(jobID uint) []domain.Application {
	var out []domain.Application
	for _, a := range s.Items() {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	return out
}
