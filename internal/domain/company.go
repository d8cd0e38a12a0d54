package domain

// Company is a client organisation that publishes jobs.
type Company struct {
	BaseModel
	Name         string `gorm:"size:150;not null;index" json:"name"`
	Industry     string `gorm:"size:100;index" json:"industry"`
	Location     string `gorm:"size:150;index" json:"location"`
	Website      string `gorm:"size:255" json:"website,omitempty"`
	ContactEmail string `gorm:"size:255" json:"contactEmail,omitempty"`
	Description  string `gorm:"type:text" json:"description,omitempty"`
}
