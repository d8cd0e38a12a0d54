package store

import (
	"log/slog"

	"github.com/simp-lee/hireline/internal/apiclient"
	"github.com/simp-lee/hireline/internal/domain"
)

// Company index names.
const (
	IndexIndustries = "industries"
	IndexLocations  = "locations"
)

// CompanyStore holds the companies collection.
type CompanyStore struct {
	*Engine[domain.Company]
}

// NewCompanyStore creates an empty CompanyStore.
func NewCompanyStore(client *apiclient.Client, logger *slog.Logger) *CompanyStore {
	return &CompanyStore{Engine: NewEngine(client, Config[domain.Company]{
		Path:     "/companies",
		Singular: "company",
		Plural:   "companies",
		Indexes: map[string]IndexFunc[domain.Company]{
			IndexIndustries: func(c domain.Company) []string { return one(c.Industry) },
			IndexLocations:  func(c domain.Company) []string { return one(c.Location) },
		},
		SearchFields: func(c domain.Company) []string {
			return []string{c.Name, c.Industry, c.Location}
		},
	}, logger)}
}

// CountByIndustry counts loaded companies per industry.
func (s *CompanyStore) CountByIndustry() map[string]int {
	out := make(map[string]int)
	for _, c := range s.Items() {
		out[c.Industry]++
	}
	return out
}
