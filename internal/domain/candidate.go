package domain

// Candidate is a person in the consultancy's talent pool.
type Candidate struct {
	BaseModel
	FirstName       string   `gorm:"size:100;not null" json:"firstName"`
	LastName        string   `gorm:"size:100;not null" json:"lastName"`
	Email           string   `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone           string   `gorm:"size:30" json:"phone,omitempty"`
	Location        string   `gorm:"size:150;index" json:"location"`
	Headline        string   `gorm:"size:255" json:"headline,omitempty"`
	ExperienceYears int      `json:"experienceYears"`
	Skills          []string `gorm:"serializer:json" json:"skills"`
}

// FullName joins first and last name.
func (c Candidate) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Clone returns a copy with its own Skills slice.
func (c Candidate) Clone() Candidate {
	if c.Skills != nil {
		c.Skills = append([]string(nil), c.Skills...)
	}
	return c
}
