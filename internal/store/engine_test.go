package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/simp-lee/hireline/internal/apiclient"
	"github.com/simp-lee/hireline/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := apiclient.New(apiclient.Options{BaseURL: srv.URL + "/api", Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("apiclient.New: %v", err)
	}
	return c
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": status, "message": "success", "data": data})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": status, "message": msg})
}

func page[T any](items []T, total int64, number, size int) domain.Page[T] {
	return *domain.NewPage(items, total, domain.PageRequest{Page: number, PageSize: size})
}

func company(id uint, name string, created time.Time) domain.Company {
	return domain.Company{BaseModel: domain.BaseModel{ID: id, CreatedAt: created}, Name: name}
}

// seedCompanies loads items into the store through a real fetch.
func seedCompanies(t *testing.T, items []domain.Company) (*CompanyStore, *atomic.Value) {
	t.Helper()
	var handler atomic.Value
	handler.Store(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, page(items, int64(len(items)), 0, 10))
	}))
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		handler.Load().(http.HandlerFunc)(w, r)
	})
	s := NewCompanyStore(client, nil)
	if _, err := s.FetchCollection(context.Background(), FetchParams{}); err != nil {
		t.Fatalf("seed fetch: %v", err)
	}
	return s, &handler
}

func TestFetchCollection_FilterOmission(t *testing.T) {
	var gotQuery atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		writeData(w, http.StatusOK, page([]domain.Job{}, 0, 0, 10))
	})
	s := NewJobStore(client, nil)

	_, err := s.FetchCollection(context.Background(), FetchParams{
		Filters: map[string]string{"status": "ALL", "companyId": "3", "location": ""},
	})
	if err != nil {
		t.Fatalf("FetchCollection() error: %v", err)
	}

	q := gotQuery.Load().(url.Values)
	if got := q["companyId"]; len(got) != 1 || got[0] != "3" {
		t.Errorf("companyId = %v; want [3]", got)
	}
	for _, k := range []string{"status", "location"} {
		if _, ok := q[k]; ok {
			t.Errorf("query should not contain %q: %v", k, q)
		}
	}
	for k, want := range map[string]string{"page": "0", "size": "10", "sortBy": "createdAt", "sortDirection": "desc"} {
		if got := q[k]; len(got) != 1 || got[0] != want {
			t.Errorf("%s = %v; want %s", k, got, want)
		}
	}
	if st := s.Snapshot(); st.Query.Filters["status"] != "ALL" {
		t.Errorf("stored query should keep caller filters, got %v", st.Query.Filters)
	}
}

func TestFetchCollection_SuccessReplacesState(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, page([]domain.Company{
			company(1, "Acme", now), company(2, "Globex", now),
		}, 12, 1, 2))
	})
	s := NewCompanyStore(client, nil)
	s.now = func() time.Time { return now }

	if _, err := s.FetchCollection(context.Background(), FetchParams{Page: 1, PageSize: 2}); err != nil {
		t.Fatalf("FetchCollection() error: %v", err)
	}
	st := s.Snapshot()
	if len(st.Items) != 2 {
		t.Fatalf("items = %d; want 2", len(st.Items))
	}
	want := Pagination{TotalItems: 12, TotalPages: 6, CurrentPage: 1, PageSize: 2}
	if st.Pagination != want {
		t.Errorf("pagination = %+v; want %+v", st.Pagination, want)
	}
	if st.Loading || st.LastError != "" {
		t.Errorf("loading=%v lastError=%q", st.Loading, st.LastError)
	}
	if !st.LastFetch.Equal(now) {
		t.Errorf("LastFetch = %v; want %v", st.LastFetch, now)
	}
	if s.IsStale(now.Add(4 * time.Minute)) {
		t.Error("should not be stale after 4 minutes")
	}
	if !s.IsStale(now.Add(6 * time.Minute)) {
		t.Error("should be stale after 6 minutes")
	}
}

func TestFetchCollection_FailureKeepsItems(t *testing.T) {
	items := []domain.Company{company(1, "Acme", time.Now())}
	s, handler := seedCompanies(t, items)
	before := s.Snapshot()

	handler.Store(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusInternalServerError, "database unavailable")
	}))
	_, err := s.GoToPage(context.Background(), 3)
	if !domain.IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}

	st := s.Snapshot()
	if len(st.Items) != 1 || st.Pagination != before.Pagination {
		t.Errorf("state changed on failure: %+v", st)
	}
	if st.LastError != "database unavailable" {
		t.Errorf("LastError = %q", st.LastError)
	}

	handler.Store(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	_, _ = s.Refresh(context.Background())
	if got := s.Snapshot().LastError; got != "Failed to fetch companies" {
		t.Errorf("fallback LastError = %q", got)
	}
	s.ClearError()
	if s.Snapshot().LastError != "" {
		t.Error("ClearError() should drop the message")
	}
}

func TestFetchCollection_BusyRejection(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		writeData(w, http.StatusOK, page([]domain.Company{company(1, "Acme", time.Now())}, 1, 0, 10))
	})
	s := NewCompanyStore(client, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.FetchCollection(context.Background(), FetchParams{})
		done <- err
	}()
	<-started

	if !s.Snapshot().Loading {
		t.Error("Loading should be true while a fetch is in flight")
	}
	_, err := s.FetchCollection(context.Background(), FetchParams{Page: 2})
	if !domain.IsBusy(err) {
		t.Fatalf("expected busy, got %v", err)
	}
	if len(s.Snapshot().Items) != 0 {
		t.Error("busy rejection must not alter items")
	}
	if _, err := s.Create(context.Background(), map[string]string{"name": "X"}); !domain.IsBusy(err) {
		t.Errorf("mutation during fetch: expected busy, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first fetch error: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d; want 1", got)
	}
}

func TestReplayOperations(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		writeData(w, http.StatusOK, page([]domain.Company{}, 50, 0, 10))
	})
	s := NewCompanyStore(client, nil)
	ctx := context.Background()

	if _, err := s.FetchCollection(ctx, FetchParams{Filters: map[string]string{"industry": "Tech"}, SortBy: "name", SortDirection: "asc"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GoToPage(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetPageSize(ctx, 25); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SortBy(ctx, "createdAt", "desc"); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"industry=Tech&page=0&size=10&sortBy=name&sortDirection=asc",
		"industry=Tech&page=2&size=10&sortBy=name&sortDirection=asc",
		"industry=Tech&page=0&size=25&sortBy=name&sortDirection=asc",
		"industry=Tech&page=0&size=10&sortBy=createdAt&sortDirection=desc",
	}
	// The server echoes size 10, so the replayed size after SetPageSize is the server's.
	if !slices.Equal(queries, want) {
		t.Errorf("queries =\n%v\nwant\n%v", strings.Join(queries, "\n"), strings.Join(want, "\n"))
	}
}

func TestDerivedIndexRecompute(t *testing.T) {
	var locations atomic.Value
	locations.Store([]string{"Paris", "Paris", "Lyon"})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var jobs []domain.Job
		for i, loc := range locations.Load().([]string) {
			jobs = append(jobs, domain.Job{BaseModel: domain.BaseModel{ID: uint(i + 1)}, Location: loc, Status: domain.JobStatusActive})
		}
		writeData(w, http.StatusOK, page(jobs, int64(len(jobs)), 0, 10))
	})
	s := NewJobStore(client, nil)

	if _, err := s.FetchCollection(context.Background(), FetchParams{}); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Indexes[IndexLocations]; !slices.Equal(got, []string{"Lyon", "Paris"}) {
		t.Errorf("locations = %v; want [Lyon Paris]", got)
	}
	if got := s.Snapshot().Indexes[IndexStatuses]; !slices.Equal(got, []string{"ACTIVE"}) {
		t.Errorf("statuses = %v", got)
	}

	locations.Store([]string{"Berlin"})
	if _, err := s.GoToPage(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if got := s.Snapshot().Indexes[IndexLocations]; !slices.Equal(got, []string{"Berlin"}) {
		t.Errorf("locations = %v; want [Berlin]", got)
	}
}

func TestFetchByID(t *testing.T) {
	var calls atomic.Int32
	full := domain.Company{BaseModel: domain.BaseModel{ID: 9}, Name: "Initech", Description: "long text"}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/companies":
			writeData(w, http.StatusOK, page([]domain.Company{company(1, "Acme", time.Now())}, 1, 0, 10))
		case "/api/companies/9":
			calls.Add(1)
			writeData(w, http.StatusOK, full)
		default:
			calls.Add(1)
			writeMessage(w, http.StatusNotFound, "company not found")
		}
	})
	s := NewCompanyStore(client, nil)
	ctx := context.Background()
	if _, err := s.FetchCollection(ctx, FetchParams{}); err != nil {
		t.Fatal(err)
	}

	got, err := s.FetchByID(ctx, 1, true)
	if err != nil || got.Name != "Acme" {
		t.Fatalf("cached FetchByID = %+v, %v", got, err)
	}
	if sel := s.Snapshot().Selected; sel == nil || sel.ID != 1 {
		t.Errorf("selected = %+v; want id 1", sel)
	}
	if calls.Load() != 0 {
		t.Error("page hit should not call the server")
	}

	got, err = s.FetchByID(ctx, 9, true)
	if err != nil || got.Description != "long text" {
		t.Fatalf("network FetchByID = %+v, %v", got, err)
	}
	if _, err := s.FetchByID(ctx, 9, true); err != nil || calls.Load() != 1 {
		t.Errorf("selected hit should not call the server, calls=%d err=%v", calls.Load(), err)
	}
	if _, err := s.FetchByID(ctx, 9, false); err != nil || calls.Load() != 2 {
		t.Errorf("preferCache=false should call the server, calls=%d err=%v", calls.Load(), err)
	}

	_, err = s.FetchByID(ctx, 404, true)
	if !domain.IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
	if s.Snapshot().LastError != "company not found" {
		t.Errorf("LastError = %q", s.Snapshot().LastError)
	}
}

func TestCreate_FailureLeavesStateUntouched(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusConflict, "company already exists")
	})
	s := NewCompanyStore(client, nil)
	before := s.Snapshot()

	_, err := s.Create(context.Background(), map[string]string{"name": "Acme"})
	if !domain.IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
	s.Wait()

	st := s.Snapshot()
	if len(st.Items) != len(before.Items) || st.Pagination.TotalItems != before.Pagination.TotalItems {
		t.Errorf("state leaked after failed create: %+v", st)
	}
	if st.LastError != "company already exists" || st.Loading {
		t.Errorf("lastError=%q loading=%v", st.LastError, st.Loading)
	}
}

func TestCreate_PrependsAndReconciles(t *testing.T) {
	now := time.Now()
	var listCalls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			writeData(w, http.StatusCreated, company(7, "Hooli", now))
		default:
			n := listCalls.Add(1)
			if n == 1 {
				writeData(w, http.StatusOK, page([]domain.Company{company(1, "Acme", now.Add(-time.Hour))}, 1, 0, 10))
				return
			}
			writeData(w, http.StatusOK, page([]domain.Company{company(7, "Hooli", now), company(1, "Acme", now.Add(-time.Hour))}, 2, 0, 10))
		}
	})
	s := NewCompanyStore(client, nil)
	ctx := context.Background()
	if _, err := s.FetchCollection(ctx, FetchParams{}); err != nil {
		t.Fatal(err)
	}

	var notified atomic.Int32
	unsubscribe := s.Subscribe(func(State[domain.Company]) { notified.Add(1) })
	defer unsubscribe()

	created, err := s.Create(ctx, map[string]string{"name": "Hooli"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if created.ID != 7 {
		t.Errorf("created id = %d", created.ID)
	}
	s.Wait()

	st := s.Snapshot()
	if len(st.Items) != 2 || st.Items[0].ID != 7 {
		t.Errorf("items = %+v; want Hooli first", st.Items)
	}
	if st.Pagination.TotalItems != 2 {
		t.Errorf("TotalItems = %d; want 2", st.Pagination.TotalItems)
	}
	if listCalls.Load() != 2 {
		t.Errorf("list calls = %d; want 2 (initial + reconcile)", listCalls.Load())
	}
	if notified.Load() == 0 {
		t.Error("subscribers should be notified")
	}
}

func TestUpdate_ServerFieldsWin(t *testing.T) {
	items := []domain.Company{{BaseModel: domain.BaseModel{ID: 1}, Name: "A"}}
	s, handler := seedCompanies(t, items)
	if _, err := s.FetchByID(context.Background(), 1, true); err != nil {
		t.Fatal(err)
	}

	seen := make(chan domain.Company, 1)
	handler.Store(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/companies/1" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		seen <- s.Snapshot().Items[0]
		writeData(w, http.StatusOK, map[string]any{"id": 1, "name": "B", "location": "X"})
	}))

	got, err := s.Update(context.Background(), 1, map[string]string{"name": "B"})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if optimistic := <-seen; optimistic.Name != "B" {
		t.Errorf("optimistic name = %q; want B before the response", optimistic.Name)
	}
	if got.ID != 1 || got.Name != "B" || got.Location != "X" {
		t.Errorf("result = %+v", got)
	}
	st := s.Snapshot()
	if st.Items[0].Name != "B" || st.Items[0].Location != "X" {
		t.Errorf("item = %+v", st.Items[0])
	}
	if st.Selected == nil || st.Selected.Location != "X" {
		t.Errorf("selected = %+v", st.Selected)
	}
}

func TestUpdate_FailureRestoresSnapshot(t *testing.T) {
	items := []domain.Company{{BaseModel: domain.BaseModel{ID: 1}, Name: "A", Industry: "Retail"}}
	s, handler := seedCompanies(t, items)
	if _, err := s.FetchByID(context.Background(), 1, true); err != nil {
		t.Fatal(err)
	}
	before := s.Snapshot()

	handler.Store(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusBadRequest, "name taken")
	}))
	_, err := s.Update(context.Background(), 1, map[string]string{"name": "B"})
	if !domain.IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}

	st := s.Snapshot()
	if st.Items[0] != before.Items[0] || *st.Selected != *before.Selected {
		t.Errorf("not restored: items=%+v selected=%+v", st.Items[0], st.Selected)
	}
	if st.LastError != "name taken" || st.Loading {
		t.Errorf("lastError=%q loading=%v", st.LastError, st.Loading)
	}
}

func TestMutations_NotFoundLocally(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeData(w, http.StatusOK, nil)
	})
	companies := NewCompanyStore(client, nil)
	jobs := NewJobStore(client, nil)
	ctx := context.Background()

	if _, err := companies.Update(ctx, 5, map[string]string{"name": "x"}); !domain.IsNotFoundLocally(err) {
		t.Errorf("Update: expected not found locally, got %v", err)
	}
	if err := companies.Remove(ctx, 5); !domain.IsNotFoundLocally(err) {
		t.Errorf("Remove: expected not found locally, got %v", err)
	}
	if _, err := jobs.ToggleStatus(ctx, 5); !domain.IsNotFoundLocally(err) {
		t.Errorf("ToggleStatus: expected not found locally, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("server calls = %d; want 0", calls.Load())
	}
}

func TestRemove(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []domain.Company{
		company(3, "C", base.Add(3*time.Hour)),
		company(2, "B", base.Add(2*time.Hour)),
		company(1, "A", base.Add(1*time.Hour)),
	}

	t.Run("success", func(t *testing.T) {
		s, handler := seedCompanies(t, items)
		handler.Store(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		if err := s.Remove(context.Background(), 2); err != nil {
			t.Fatalf("Remove() error: %v", err)
		}
		st := s.Snapshot()
		if len(st.Items) != 2 || st.Pagination.TotalItems != 2 {
			t.Errorf("items=%d total=%d", len(st.Items), st.Pagination.TotalItems)
		}
	})

	t.Run("failure reinserts by creation time", func(t *testing.T) {
		s, handler := seedCompanies(t, items)
		handler.Store(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := s.Snapshot(); len(got.Items) != 2 || got.Pagination.TotalItems != 2 {
				t.Errorf("optimistic remove not applied: %+v", got.Pagination)
			}
			writeMessage(w, http.StatusInternalServerError, "")
		}))
		err := s.Remove(context.Background(), 2)
		if !domain.IsNetwork(err) {
			t.Fatalf("expected network error, got %v", err)
		}
		st := s.Snapshot()
		ids := []uint{st.Items[0].ID, st.Items[1].ID, st.Items[2].ID}
		if !slices.Equal(ids, []uint{3, 2, 1}) {
			t.Errorf("order = %v; want [3 2 1]", ids)
		}
		if st.Pagination.TotalItems != 3 {
			t.Errorf("TotalItems = %d; want 3", st.Pagination.TotalItems)
		}
		if st.LastError != "Failed to delete company" {
			t.Errorf("LastError = %q", st.LastError)
		}
	})
}

func TestSessionExpiredPassesThrough(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusUnauthorized, "token expired")
	})
	client.SetToken("tok")
	var loggedOut atomic.Bool
	client.OnAuthFailure(func() { loggedOut.Store(true) })

	s := NewUserStore(client, nil)
	_, err := s.FetchCollection(context.Background(), FetchParams{})
	if !domain.IsSessionExpired(err) {
		t.Fatalf("expected session expired, got %v", err)
	}
	if !loggedOut.Load() {
		t.Error("auth failure hook should run")
	}
}

func TestSearchAndViews(t *testing.T) {
	items := []domain.Company{
		{BaseModel: domain.BaseModel{ID: 1}, Name: "Acme Robotics", Industry: "Tech", Location: "Paris"},
		{BaseModel: domain.BaseModel{ID: 2}, Name: "Blue Bakery", Industry: "Food", Location: "Lyon"},
		{BaseModel: domain.BaseModel{ID: 3}, Name: "Cobalt", Industry: "Tech", Location: "Berlin"},
	}
	s, _ := seedCompanies(t, items)

	if got := s.Search("  ROBO "); len(got) != 1 || got[0].ID != 1 {
		t.Errorf("Search(robo) = %+v", got)
	}
	if got := s.Search("tech"); len(got) != 2 {
		t.Errorf("Search(tech) len = %d; want 2", len(got))
	}
	if got := s.Search(""); len(got) != 3 {
		t.Errorf("Search(\"\") len = %d; want 3", len(got))
	}
	if got := s.CountByIndustry(); got["Tech"] != 2 || got["Food"] != 1 {
		t.Errorf("CountByIndustry() = %v", got)
	}
	if s.Count() != 3 {
		t.Errorf("Count() = %d", s.Count())
	}
	if got := s.Snapshot().Indexes[IndexIndustries]; !slices.Equal(got, []string{"Food", "Tech"}) {
		t.Errorf("industries = %v", got)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s, _ := seedCompanies(t, []domain.Company{{BaseModel: domain.BaseModel{ID: 1}, Name: "A"}})
	snap := s.Snapshot()
	snap.Items[0].Name = "mutated"
	snap.Indexes[IndexLocations] = append(snap.Indexes[IndexLocations], "x")
	snap.Query.Filters["k"] = "v"

	st := s.Snapshot()
	if st.Items[0].Name != "A" || len(st.Indexes[IndexLocations]) != 0 || len(st.Query.Filters) != 0 {
		t.Errorf("store state changed through snapshot: %+v", st)
	}
}

func TestUnsubscribe(t *testing.T) {
	s, _ := seedCompanies(t, nil)
	var n atomic.Int32
	unsubscribe := s.Subscribe(func(State[domain.Company]) { n.Add(1) })
	s.ClearError()
	unsubscribe()
	s.ClearError()
	if n.Load() != 1 {
		t.Errorf("notifications = %d; want 1", n.Load())
	}
}

func TestPaginationFollowsOptimisticCounts(t *testing.T) {
	now := time.Now()
	t.Run("create with failing reconcile", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				writeData(w, http.StatusCreated, company(1, "Acme", now))
				return
			}
			writeMessage(w, http.StatusInternalServerError, "list unavailable")
		})
		s := NewCompanyStore(client, nil)
		if _, err := s.Create(context.Background(), map[string]string{"name": "Acme"}); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		s.Wait()

		st := s.Snapshot()
		want := Pagination{TotalItems: 1, TotalPages: 1, CurrentPage: 0, PageSize: DefaultPageSize}
		if st.Pagination != want {
			t.Errorf("pagination = %+v; want %+v", st.Pagination, want)
		}
		if st.LastError != "" || st.Loading {
			t.Errorf("background refresh leaked into state: lastError=%q loading=%v", st.LastError, st.Loading)
		}
	})

	t.Run("remove empties the last page", func(t *testing.T) {
		var handler atomic.Value
		handler.Store(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeData(w, http.StatusOK, page([]domain.Company{company(11, "K", now)}, 11, 1, 10))
		}))
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			handler.Load().(http.HandlerFunc)(w, r)
		})
		s := NewCompanyStore(client, nil)
		if _, err := s.GoToPage(context.Background(), 1); err != nil {
			t.Fatal(err)
		}
		before := s.Snapshot().Pagination

		handler.Store(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeMessage(w, http.StatusInternalServerError, "")
		}))
		if err := s.Remove(context.Background(), 11); err == nil {
			t.Fatal("expected error")
		}
		if got := s.Snapshot().Pagination; got != before {
			t.Errorf("rollback pagination = %+v; want %+v", got, before)
		}

		handler.Store(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		if err := s.Remove(context.Background(), 11); err != nil {
			t.Fatalf("Remove() error: %v", err)
		}
		want := Pagination{TotalItems: 10, TotalPages: 1, CurrentPage: 0, PageSize: 10}
		if got := s.Snapshot().Pagination; got != want {
			t.Errorf("pagination = %+v; want %+v", got, want)
		}
	})
}

func TestFail_NetworkErrorNotWrappedTwice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusInternalServerError, "down")
	})
	s := NewCompanyStore(client, nil)
	_, err := s.FetchCollection(context.Background(), FetchParams{})
	if !domain.IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
	if n := strings.Count(err.Error(), "down"); n != 2 {
		t.Errorf("error = %q; want the backend message once plus the HTTP detail", err.Error())
	}
	if apiclient.StatusCode(err) != http.StatusInternalServerError {
		t.Errorf("status = %d", apiclient.StatusCode(err))
	}
}

func TestSnapshotCopiesNestedRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, page([]domain.Candidate{
			{BaseModel: domain.BaseModel{ID: 1}, FirstName: "Ada", Skills: []string{"Go", "SQL"}},
		}, 1, 0, 10))
	})
	s := NewCandidateStore(client, nil)
	if _, err := s.FetchCollection(context.Background(), FetchParams{}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.FetchByID(context.Background(), 1, true); err != nil {
		t.Fatal(err)
	}

	snap := s.Snapshot()
	snap.Items[0].Skills[0] = "mutated"
	snap.Selected.Skills[1] = "mutated"
	s.Items()[0].Skills[0] = "mutated"

	st := s.Snapshot()
	if !slices.Equal(st.Items[0].Skills, []string{"Go", "SQL"}) || !slices.Equal(st.Selected.Skills, []string{"Go", "SQL"}) {
		t.Errorf("store changed through a copy: items=%v selected=%v", st.Items[0].Skills, st.Selected.Skills)
	}
}
