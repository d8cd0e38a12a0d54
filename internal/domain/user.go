package domain

import "context"

// User roles.
const (
	RoleAdmin     = "ADMIN"
	RoleRecruiter = "RECRUITER"
)

// User represents a dashboard account.
type User struct {
	BaseModel
	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role         string `gorm:"size:20;not null;default:RECRUITER" json:"role"`
	PasswordHash string `gorm:"size:255" json:"-"`
}

// Identity is the public part of a User returned on login.
type Identity struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Identity returns the public identity of u.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserRepository extends the generic repository with lookup by email.
type UserRepository interface {
	Repository[User]
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// AuthCookieName is the cookie mirroring the bearer token for route guarding.
const AuthCookieName = "auth-token"

// LoginResult is the payload of a successful login.
type LoginResult struct {
	AccessToken string   `json:"accessToken"`
	ExpiresAt   int64    `json:"expiresAt"`
	User        Identity `json:"user"`
}
