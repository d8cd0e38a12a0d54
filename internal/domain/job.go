package domain

import "fmt"

// JobStatus is the binary publication state of a job.
type JobStatus string

const (
	JobStatusActive JobStatus = "ACTIVE"
	JobStatusClosed JobStatus = "CLOSED"
)

// Toggle returns the opposite status.
func (s JobStatus) Toggle() JobStatus {
	if s == JobStatusActive {
		return JobStatusClosed
	}
	return JobStatusActive
}

// ParseJobStatus converts a raw string to a JobStatus.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(s)
	switch st {
	case JobStatusActive, JobStatusClosed:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// Employment types offered on job postings.
const (
	EmploymentFullTime   = "FULL_TIME"
	EmploymentPartTime   = "PART_TIME"
	EmploymentContract   = "CONTRACT"
	EmploymentInternship = "INTERNSHIP"
)

// Job is an open or closed position at a company.
// Description and Requirements are omitted from collection responses.
type Job struct {
	BaseModel
	Title          string    `gorm:"size:200;not null;index" json:"title"`
	CompanyID      uint      `gorm:"not null;index" json:"companyId"`
	Company        *Company  `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Location       string    `gorm:"size:150;index" json:"location"`
	EmploymentType string    `gorm:"size:30;index" json:"employmentType"`
	SalaryMin      int       `json:"salaryMin,omitempty"`
	SalaryMax      int       `json:"salaryMax,omitempty"`
	Status         JobStatus `gorm:"size:20;not null;default:ACTIVE;index" json:"status"`
	Description    string    `gorm:"type:text" json:"description,omitempty"`
	Requirements   string    `gorm:"type:text" json:"requirements,omitempty"`
}

// CompanyName returns the joined company name, or "" when not loaded.
func (j Job) CompanyName() string {
	if j.Company == nil {
		return ""
	}
	return j.Company.Name
}

// Clone returns a copy that shares no pointers with j.
func (j Job) Clone() Job {
	if j.Company != nil {
		c := *j.Company
		j.Company = &c
	}
	return j
}
