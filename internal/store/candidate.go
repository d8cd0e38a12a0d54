package store

import (
	"log/slog"
	"strings"

	"github.com/simp-lee/hireline/internal/apiclient"
	"github.com/simp-lee/hireline/internal/domain"
)

// IndexSkills lists the distinct skills on the loaded candidate page.
const IndexSkills = "skills"

// CandidateStore holds the candidates collection.
type CandidateStore struct {
	*Engine[domain.Candidate]
}

// NewCandidateStore creates an empty CandidateStore.
func NewCandidateStore(client *apiclient.Client, logger *slog.Logger) *CandidateStore {
	return &CandidateStore{Engine: NewEngine(client, Config[domain.Candidate]{
		Path:     "/candidates",
		Singular: "candidate",
		Plural:   "candidates",
		Indexes: map[string]IndexFunc[domain.Candidate]{
			IndexLocations: func(c domain.Candidate) []string { return one(c.Location) },
			IndexSkills:    func(c domain.Candidate) []string { return c.Skills },
		},
		SearchFields: func(c domain.Candidate) []string {
			return []string{c.FirstName, c.LastName, c.Email, c.Headline, c.Location}
		},
	}, logger)}
}

// SearchBySkill returns loaded candidates listing skill, case-insensitively.
func (s *CandidateStore) SearchBySkill(skill string) []domain.Candidate {
	skill = strings.TrimSpace(skill)
	var out []domain.Candidate
	for _, c := range s.Items() {
		for _, have := range c.Skills {
			if strings.EqualFold(have, skill) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
