package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/simp-lee/hireline/internal/apiclient"
	"github.com/simp-lee/hireline/internal/domain"
)

// Job index names.
const (
	IndexCompanies       = "companies"
	IndexEmploymentTypes = "employmentTypes"
	IndexStatuses        = "statuses"
)

// JobStore holds the jobs collection plus the list of active jobs shown on
// the public site. Both lists are guarded by the engine's lock.
type JobStore struct {
	*Engine[domain.Job]

	active []domain.Job
}

// NewJobStore creates an empty JobStore.
func NewJobStore(client *apiclient.Client, logger *slog.Logger) *JobStore {
	s := &JobStore{}
	s.Engine = NewEngine(client, Config[domain.Job]{
		Path:     "/jobs",
		Singular: "job",
		Plural:   "jobs",
		Indexes: map[string]IndexFunc[domain.Job]{
			IndexCompanies:       func(j domain.Job) []string { return one(j.CompanyName()) },
			IndexLocations:       func(j domain.Job) []string { return one(j.Location) },
			IndexEmploymentTypes: func(j domain.Job) []string { return one(j.EmploymentType) },
			IndexStatuses:        func(j domain.Job) []string { return one(string(j.Status)) },
		},
		SearchFields: func(j domain.Job) []string {
			return []string{j.Title, j.CompanyName(), j.Location}
		},
		Mirror: activeList{s},
	}, logger)
	return s
}

// activeList keeps the active-only list in step with creates, updates and
// removals made through the engine.
type activeList struct{ s *JobStore }

func (a activeList) Put(j domain.Job) { a.s.active = withActive(a.s.active, j) }

func (a activeList) Drop(id uint) {
	a.s.active = slices.DeleteFunc(slices.Clone(a.s.active), func(j domain.Job) bool { return j.ID == id })
}

func (a activeList) Save() func() {
	prev := a.s.active
	return func() { a.s.active = prev }
}

// Active returns a copy of the active-only list.
func (s *JobStore) Active() []domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.active)
}

// FetchActive loads every ACTIVE job into the active-only list.
func (s *JobStore) FetchActive(ctx context.Context) ([]domain.Job, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	var jobs []domain.Job
	if err := s.client.Get(ctx, s.cfg.Path+"/active", nil, &jobs); err != nil {
		return nil, s.fail(ctx, err, "Failed to fetch active jobs")
	}
	if jobs == nil {
		jobs = []domain.Job{}
	}
	s.apply(func(st *State[domain.Job]) {
		s.active = slices.Clone(jobs)
		st.LastError = ""
		st.Loading = false
	})
	return jobs, nil
}

type statusRequest struct {
	Status domain.JobStatus `json:"status"`
}

// ToggleStatus flips a loaded job between ACTIVE and CLOSED in the primary
// list, the selected job and the active-only list before the PATCH resolves.
// On failure all three are restored.
func (s *JobStore) ToggleStatus(ctx context.Context, id uint) (domain.Job, error) {
	var (
		snapshot      State[domain.Job]
		restoreActive func()
		optimistic    domain.Job
		next          domain.JobStatus
	)
	active := activeList{s}
	err := s.applyErr(func(st *State[domain.Job]) error {
		if st.Loading {
			return domain.ErrBusy
		}
		i := indexOf(st.Items, id)
		if i < 0 {
			return domain.ErrNotFoundLocally
		}
		snapshot = st.clone()
		restoreActive = active.Save()

		next = st.Items[i].Status.Toggle()
		optimistic = st.Items[i]
		optimistic.Status = next
		st.Items[i] = optimistic
		if st.Selected != nil && st.Selected.ID == id {
			sel := *st.Selected
			sel.Status = next
			st.Selected = &sel
		}
		active.Put(optimistic)
		st.Loading = true
		return nil
	})
	if err != nil {
		return domain.Job{}, err
	}

	var raw json.RawMessage
	if err := s.client.Patch(ctx, fmt.Sprintf("%s/%d/status", s.cfg.Path, id), statusRequest{Status: next}, &raw); err != nil {
		s.apply(func(st *State[domain.Job]) {
			st.Items = snapshot.Items
			st.Selected = snapshot.Selected
			restoreActive()
		})
		return domain.Job{}, s.fail(ctx, err, "Failed to update job status")
	}

	final, err := mergeJSON(optimistic, raw)
	if err != nil {
		final = optimistic
	}
	s.apply(func(st *State[domain.Job]) {
		if i := indexOf(st.Items, id); i >= 0 {
			st.Items[i] = final
		}
		if st.Selected != nil && st.Selected.ID == id {
			sel := final
			st.Selected = &sel
		}
		active.Put(final)
		st.LastError = ""
		st.Loading = false
	})
	s.logger.InfoContext(ctx, "job status changed", slog.Uint64("id", uint64(id)), slog.String("status", string(final.Status)))
	return final, nil
}

// withActive keeps job in the active-only list exactly when it is ACTIVE.
func withActive(active []domain.Job, job domain.Job) []domain.Job {
	out := slices.DeleteFunc(slices.Clone(active), func(j domain.Job) bool { return j.ID == job.ID })
	if job.Status == domain.JobStatusActive {
		out = insertByCreated(out, job)
	}
	return out
}

// CountByStatus counts loaded jobs per status.
func (s *JobStore) CountByStatus() map[domain.JobStatus]int {
	out := make(map[domain.JobStatus]int)
	for _, j := range s.Items() {
		out[j.Status]++
	}
	return out
}

// SalaryRange returns the lowest SalaryMin and highest SalaryMax over loaded
// jobs that advertise a salary. ok is false when none do.
func (s *JobStore) SalaryRange() (lo, hi int, ok bool) {
	for _, j := range s.Items() {
		if j.SalaryMin <= 0 && j.SalaryMax <= 0 {
			continue
		}
		jobLo, jobHi := j.SalaryMin, j.SalaryMax
		if jobLo <= 0 {
			jobLo = jobHi
		}
		if jobHi <= 0 {
			jobHi = jobLo
		}
		if !ok || jobLo < lo {
			lo = jobLo
		}
		if !ok || jobHi > hi {
			hi = jobHi
		}
		ok = true
	}
	return lo, hi, ok
}

// ByCompany returns loaded jobs of one company.
func (s *JobStore) ByCompany(companyID uint) []domain.Job {
	return slices.DeleteFunc(s.Items(), func(j domain.Job) bool { return j.CompanyID != companyID })
}
