package store

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/simp-lee/hireline/internal/apiclient"
)

// Stores is the set of resource stores shared by one dashboard session.
// Create one per session (or per test); there is no package-level instance.
type Stores struct {
	Companies    *CompanyStore
	Jobs         *JobStore
	Candidates   *CandidateStore
	Applications *ApplicationStore
	Users        *UserStore
}

// NewStores creates empty stores sharing client.
func NewStores(client *apiclient.Client, logger *slog.Logger) *Stores {
	return &Stores{
		Companies:    NewCompanyStore(client, logger),
		Jobs:         NewJobStore(client, logger),
		Candidates:   NewCandidateStore(client, logger),
		Applications: NewApplicationStore(client, logger),
		Users:        NewUserStore(client, logger),
	}
}

// Warm fetches the first page of every collection concurrently. Each store
// is independent, so the fetches do not contend for a busy flag.
func (s *Stores) Warm(ctx context.Context, pageSize int) error {
	p := FetchParams{PageSize: pageSize}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return fetchFirst(ctx, "companies", s.Companies.FetchCollection, p) })
	g.Go(func() error { return fetchFirst(ctx, "jobs", s.Jobs.FetchCollection, p) })
	g.Go(func() error { return fetchFirst(ctx, "candidates", s.Candidates.FetchCollection, p) })
	g.Go(func() error { return fetchFirst(ctx, "applications", s.Applications.FetchCollection, p) })
	g.Go(func() error { return fetchFirst(ctx, "users", s.Users.FetchCollection, p) })
	return g.Wait()
}

// Wait blocks until every store's background refreshes have finished.
func (s *Stores) Wait() {
	s.Companies.Wait()
	s.Jobs.Wait()
	s.Candidates.Wait()
	s.Applications.Wait()
	s.Users.Wait()
}

func fetchFirst[P any](ctx context.Context, name string, fetch func(context.Context, FetchParams) (P, error), p FetchParams) error {
	if _, err := fetch(ctx, p); err != nil {
		return fmt.Errorf("fetch %s: %w", name, err)
	}
	return nil
}
