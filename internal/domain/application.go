package domain

import "fmt"

// ApplicationStatus tracks a job application through review.
type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "PENDING"
	ApplicationReviewed  ApplicationStatus = "REVIEWED"
	ApplicationInterview ApplicationStatus = "INTERVIEW"
	ApplicationRejected  ApplicationStatus = "REJECTED"
	ApplicationHired     ApplicationStatus = "HIRED"
)

// ParseApplicationStatus converts a raw string to an ApplicationStatus.
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(s)
	switch st {
	case ApplicationPending, ApplicationReviewed, ApplicationInterview, ApplicationRejected, ApplicationHired:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// Application is a job application submitted through the public site.
type Application struct {
	BaseModel
	JobID       uint              `gorm:"not null;index" json:"jobId"`
	Job         *Job              `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Email       string            `gorm:"size:255;not null;index" json:"email"`
	FirstName   string            `gorm:"size:100;not null" json:"firstName"`
	LastName    string            `gorm:"size:100;not null" json:"lastName"`
	PhoneNumber string            `gorm:"size:15" json:"phoneNumber,omitempty"`
	CoverLetter string            `gorm:"type:text" json:"coverLetter,omitempty"`
	CVFileName  string            `gorm:"size:255" json:"cvFileName,omitempty"`
	CVPath      string            `gorm:"size:500" json:"-"`
	CVType      string            `gorm:"size:100" json:"-"`
	Status      ApplicationStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
}

// JobTitle returns the joined job title, or "" when not loaded.
func (a Application) JobTitle() string {
	if a.Job == nil {
		return ""
	}
	return a.Job.Title
}

// Clone returns a copy that shares no pointers with a.
func (a Application) Clone() Application {
	if a.Job != nil {
		j := a.Job.Clone()
		a.Job = &j
	}
	return a
}
