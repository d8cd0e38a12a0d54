package store

import (
	"log/slog"

	"github.com/simp-lee/hireline/internal/apiclient"
	"github.com/simp-lee/hireline/internal/domain"
)

// IndexRoles lists the distinct roles on the loaded user page.
const IndexRoles = "roles"

// UserStore holds the dashboard accounts collection.
type UserStore struct {
	*Engine[domain.User]
}

// NewUserStore creates an empty UserStore.
func NewUserStore(client *apiclient.Client, logger *slog.Logger) *UserStore {
	return &UserStore{Engine: NewEngine(client, Config[domain.User]{
		Path:     "/users",
		Singular: "user",
		Plural:   "users",
		Indexes: map[string]IndexFunc[domain.User]{
			IndexRoles: func(u domain.User) []string { return one(u.Role) },
		},
		SearchFields: func(u domain.User) []string { return []string{u.Name, u.Email} },
	}, logger)}
}

// CountByRole counts loaded users per role.
func (s *UserStore) CountByRole() map[string]int {
	out := make(map[string]int)
	for _, u := range s.Items() {
		out[u.Role]++
	}
	return out
}
