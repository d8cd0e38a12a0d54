// Package store implements the dashboard's resource stores: per-resource,
// observable collection state fetched page by page from the REST backend,
// with optimistic create/update/remove and rollback on failure.
//
// Every store is single-flight. While one network call is outstanding any
// other fetch or mutation on the same store fails with domain.ErrBusy, so a
// fetch can never land on top of an unconfirmed optimistic mutation.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/simp-lee/hireline/internal/apiclient"
	"github.com/simp-lee/hireline/internal/domain"
)

// Config describes one resource type.
type Config[T domain.Resource] struct {
	// Path is the collection endpoint, e.g. "/companies".
	Path string
	// Singular and Plural name the resource in fallback error messages.
	Singular string
	Plural   string
	Indexes  map[string]IndexFunc[T]
	// SearchFields returns the text a record is searched by.
	SearchFields func(T) []string
	// Mirror, when set, follows every change made to Items.
	Mirror Mirror[T]
	// PublicCreate marks collections that anonymous callers may post to
	// but not list. Their reconcile refresh needs a token.
	PublicCreate bool
}

// Mirror is a secondary list kept in step with a store's Items. Its methods
// run under the store lock.
type Mirror[T any] interface {
	// Put records item, as changed or confirmed.
	Put(item T)
	// Drop forgets the record with id.
	Drop(id uint)
	// Save captures the list and returns a function restoring it.
	Save() (restore func())
}

// Engine is the resource-agnostic store. Resource stores embed it.
type Engine[T domain.Resource] struct {
	cfg    Config[T]
	client *apiclient.Client
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	state State[T]

	subMu   sync.RWMutex
	subs    map[int]func(State[T])
	nextSub int

	bg sync.WaitGroup
}

// NewEngine creates an Engine with empty state.
func NewEngine[T domain.Resource](client *apiclient.Client, cfg Config[T], logger *slog.Logger) *Engine[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine[T]{
		cfg:    cfg,
		client: client,
		logger: logger.With(slog.String("store", cfg.Plural)),
		now:    time.Now,
		state:  newState[T](),
		subs:   make(map[int]func(State[T])),
	}
}

// Snapshot returns a copy of the current state.
func (e *Engine[T]) Snapshot() State[T] {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// Subscribe registers fn to receive a snapshot after every state transition.
// The returned function removes the subscription.
func (e *Engine[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subMu.Unlock()

	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

// IsStale reports whether the last successful collection fetch is older
// than StaleAfter, or never happened.
func (e *Engine[T]) IsStale(now time.Time) bool {
	e.mu.Lock()
	last := e.state.LastFetch
	e.mu.Unlock()
	return last.IsZero() || now.Sub(last) > StaleAfter
}

// ClearError drops the current error message.
func (e *Engine[T]) ClearError() {
	e.apply(func(s *State[T]) { s.LastError = "" })
}

// Wait blocks until background reconcile refreshes have finished.
func (e *Engine[T]) Wait() {
	e.bg.Wait()
}

// Count returns the number of loaded items.
func (e *Engine[T]) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.state.Items)
}

// Items returns a copy of the loaded page.
func (e *Engine[T]) Items() []T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneItems(e.state.Items)
}

// Search returns loaded items whose text fields contain term,
// case-insensitively. An empty term matches everything.
func (e *Engine[T]) Search(term string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	items := e.Items()
	if term == "" || e.cfg.SearchFields == nil {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if matchesTerm(e.cfg.SearchFields(item), term) {
			out = append(out, item)
		}
	}
	return out
}

// FetchCollection loads one page. Filters equal to "" or "ALL" are not sent.
func (e *Engine[T]) FetchCollection(ctx context.Context, p FetchParams) (*domain.Page[T], error) {
	return e.fetch(ctx, p, true)
}

// fetch loads one page. With record unset a failure leaves LastError alone.
func (e *Engine[T]) fetch(ctx context.Context, p FetchParams, record bool) (*domain.Page[T], error) {
	if err := e.begin(); err != nil {
		return nil, err
	}

	p = p.normalize()
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("size", strconv.Itoa(p.PageSize))
	q.Set("sortBy", p.SortBy)
	q.Set("sortDirection", p.SortDirection)
	for k, v := range activeFilters(p.Filters) {
		q.Set(k, v)
	}

	var page domain.Page[T]
	if err := e.client.Get(ctx, e.cfg.Path, q, &page); err != nil {
		if !record {
			e.apply(func(s *State[T]) { s.Loading = false })
			return nil, err
		}
		return nil, e.fail(ctx, err, "Failed to fetch "+e.cfg.Plural)
	}
	if page.Content == nil {
		page.Content = []T{}
	}
	size := page.Size
	if size <= 0 {
		size = p.PageSize
	}

	indexes := buildIndexes(page.Content, e.cfg.Indexes)
	e.apply(func(s *State[T]) {
		s.Items = slices.Clone(page.Content)
		s.Pagination = Pagination{
			TotalItems:  page.TotalElements,
			TotalPages:  page.TotalPages,
			CurrentPage: page.Number,
			PageSize:    size,
		}
		s.Query = Query{Filters: p.Filters, SortBy: p.SortBy, SortDirection: p.SortDirection}
		s.Indexes = indexes
		s.LastFetch = e.now()
		s.LastError = ""
		s.Loading = false
	})

	e.logger.DebugContext(ctx, "collection fetched",
		slog.Int("page", page.Number),
		slog.Int("items", len(page.Content)),
		slog.Int64("total", page.TotalElements),
	)
	return &page, nil
}

// Refresh replays the last query on the current page.
func (e *Engine[T]) Refresh(ctx context.Context) (*domain.Page[T], error) {
	return e.FetchCollection(ctx, e.currentParams())
}

// GoToPage replays the last query on page n (zero-based).
func (e *Engine[T]) GoToPage(ctx context.Context, n int) (*domain.Page[T], error) {
	p := e.currentParams()
	p.Page = n
	return e.FetchCollection(ctx, p)
}

// SetPageSize replays the last query from the first page with a new size.
func (e *Engine[T]) SetPageSize(ctx context.Context, size int) (*domain.Page[T], error) {
	p := e.currentParams()
	p.Page = 0
	p.PageSize = size
	return e.FetchCollection(ctx, p)
}

// SortBy replays the last query from the first page with a new ordering.
func (e *Engine[T]) SortBy(ctx context.Context, field, direction string) (*domain.Page[T], error) {
	p := e.currentParams()
	p.Page = 0
	p.SortBy = field
	p.SortDirection = direction
	return e.FetchCollection(ctx, p)
}

// Filter replays the last query from the first page with new filters.
func (e *Engine[T]) Filter(ctx context.Context, filters map[string]string) (*domain.Page[T], error) {
	p := e.currentParams()
	p.Page = 0
	p.Filters = filters
	return e.FetchCollection(ctx, p)
}

// FetchByID returns one record. With preferCache the selected item and then
// the loaded page are consulted first; a page entry may lack detail fields
// that collection responses omit.
func (e *Engine[T]) FetchByID(ctx context.Context, id uint, preferCache bool) (T, error) {
	if preferCache {
		e.mu.Lock()
		if sel := e.state.Selected; sel != nil && (*sel).GetID() == id {
			item := *sel
			e.mu.Unlock()
			return item, nil
		}
		e.mu.Unlock()

		var hit *T
		e.apply(func(s *State[T]) {
			if i := indexOf(s.Items, id); i >= 0 {
				item := s.Items[i]
				s.Selected = &item
				hit = &item
			}
		})
		if hit != nil {
			return *hit, nil
		}
	}

	var zero T
	if err := e.begin(); err != nil {
		return zero, err
	}
	var item T
	if err := e.client.Get(ctx, e.itemPath(id), nil, &item); err != nil {
		return zero, e.fail(ctx, err, "Failed to fetch "+e.cfg.Singular)
	}
	e.apply(func(s *State[T]) {
		sel := item
		s.Selected = &sel
		s.LastError = ""
		s.Loading = false
	})
	return item, nil
}

// Create POSTs payload as JSON, prepends the created record and schedules a
// background refresh of the current query.
func (e *Engine[T]) Create(ctx context.Context, payload any) (T, error) {
	return e.create(ctx, func(ctx context.Context, out *T) error {
		return e.client.Post(ctx, e.cfg.Path, payload, out)
	})
}

func (e *Engine[T]) create(ctx context.Context, send func(context.Context, *T) error) (T, error) {
	var zero T
	if err := e.begin(); err != nil {
		return zero, err
	}

	var created T
	if err := send(ctx, &created); err != nil {
		return zero, e.fail(ctx, err, "Failed to create "+e.cfg.Singular)
	}

	e.apply(func(s *State[T]) {
		s.Items = slices.Insert(s.Items, 0, created)
		s.Pagination.adjust(1)
		e.mirrorPut(created)
		s.LastError = ""
		s.Loading = false
	})
	e.logger.InfoContext(ctx, "created", slog.Uint64("id", uint64(created.GetID())))

	e.reconcile(ctx)
	return created, nil
}

// reconcile refreshes the current query in the background so the page
// matches the server again. It is skipped when the store is busy, and for
// anonymous posts to a public collection. A failed refresh is only logged.
func (e *Engine[T]) reconcile(ctx context.Context) {
	if e.cfg.PublicCreate && e.client.Token() == "" {
		e.logger.DebugContext(ctx, "reconcile refresh skipped: anonymous caller")
		return
	}
	e.bg.Add(1)
	go func() {
		defer e.bg.Done()
		ctx := context.WithoutCancel(ctx)
		if _, err := e.fetch(ctx, e.currentParams(), false); err != nil {
			if domain.IsBusy(err) {
				e.logger.DebugContext(ctx, "reconcile refresh skipped: store busy")
				return
			}
			e.logger.WarnContext(ctx, "reconcile refresh failed", slog.Any("error", err))
		}
	}()
}

// Update applies payload to the loaded record and the selected record before
// the PUT resolves. On success the server's fields are merged on top; on
// failure the previous state is restored.
func (e *Engine[T]) Update(ctx context.Context, id uint, payload any) (T, error) {
	return e.mutate(ctx, id, payload, func(ctx context.Context, raw *json.RawMessage) error {
		return e.client.Put(ctx, e.itemPath(id), payload, raw)
	}, "Failed to update "+e.cfg.Singular)
}

func (e *Engine[T]) mutate(ctx context.Context, id uint, patch any, send func(context.Context, *json.RawMessage) error, fallback string) (T, error) {
	var zero T
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return zero, domain.NewAppError(domain.CodeInternal, "encode update payload", err)
	}

	var snapshot State[T]
	var optimistic T
	var restoreMirror func()
	err = e.applyErr(func(s *State[T]) error {
		if s.Loading {
			return domain.ErrBusy
		}
		i := indexOf(s.Items, id)
		if i < 0 {
			return domain.ErrNotFoundLocally
		}
		next, err := mergeJSON(s.Items[i], patchJSON)
		if err != nil {
			return domain.NewAppError(domain.CodeInternal, "apply update payload", err)
		}
		snapshot = s.clone()
		restoreMirror = e.mirrorSave()
		optimistic = next
		s.Items[i] = next
		if s.Selected != nil && (*s.Selected).GetID() == id {
			sel := next
			s.Selected = &sel
		}
		e.mirrorPut(next)
		s.Loading = true
		return nil
	})
	if err != nil {
		return zero, err
	}

	var raw json.RawMessage
	if err := send(ctx, &raw); err != nil {
		e.restore(snapshot, restoreMirror)
		return zero, e.fail(ctx, err, fallback)
	}

	final := optimistic
	if len(raw) > 0 {
		merged, err := mergeJSON(optimistic, raw)
		if err != nil {
			e.restore(snapshot, restoreMirror)
			return zero, e.fail(ctx, domain.NewAppError(domain.CodeNetwork, "decode update response", err), fallback)
		}
		final = merged
	}

	e.apply(func(s *State[T]) {
		if i := indexOf(s.Items, id); i >= 0 {
			s.Items[i] = final
		}
		if s.Selected != nil && (*s.Selected).GetID() == id {
			sel := final
			s.Selected = &sel
		}
		e.mirrorPut(final)
		s.LastError = ""
		s.Loading = false
	})
	return final, nil
}

// Remove deletes a loaded record before the DELETE resolves. On failure the
// record is reinserted ordered by creation time, newest first.
func (e *Engine[T]) Remove(ctx context.Context, id uint) error {
	var removed T
	var prevPagination Pagination
	var prevSelected *T
	var restoreMirror func()
	err := e.applyErr(func(s *State[T]) error {
		if s.Loading {
			return domain.ErrBusy
		}
		i := indexOf(s.Items, id)
		if i < 0 {
			return domain.ErrNotFoundLocally
		}
		removed = s.Items[i]
		prevPagination = s.Pagination
		prevSelected = s.Selected
		restoreMirror = e.mirrorSave()
		s.Items = slices.Delete(s.Items, i, i+1)
		s.Pagination.adjust(-1)
		if s.Selected != nil && (*s.Selected).GetID() == id {
			s.Selected = nil
		}
		if e.cfg.Mirror != nil {
			e.cfg.Mirror.Drop(id)
		}
		s.Loading = true
		return nil
	})
	if err != nil {
		return err
	}

	if err := e.client.Delete(ctx, e.itemPath(id), nil); err != nil {
		e.apply(func(s *State[T]) {
			s.Items = insertByCreated(s.Items, removed)
			s.Pagination = prevPagination
			s.Selected = prevSelected
			restoreMirror()
		})
		return e.fail(ctx, err, "Failed to delete "+e.cfg.Singular)
	}

	e.apply(func(s *State[T]) {
		s.LastError = ""
		s.Loading = false
	})
	e.logger.InfoContext(ctx, "removed", slog.Uint64("id", uint64(id)))
	return nil
}

// begin claims the store for one network call.
func (e *Engine[T]) begin() error {
	return e.applyErr(func(s *State[T]) error {
		if s.Loading {
			return domain.ErrBusy
		}
		s.Loading = true
		return nil
	})
}

// fail releases the store, records the error message and returns the error
// callers see. Session expiry, and network errors already carrying the
// recorded message, pass through unchanged.
func (e *Engine[T]) fail(ctx context.Context, err error, fallback string) error {
	msg := apiclient.BackendMessage(err)
	if msg == "" {
		msg = fallback
	}
	e.apply(func(s *State[T]) {
		s.LastError = msg
		s.Loading = false
	})
	e.logger.WarnContext(ctx, fallback, slog.Any("error", err))

	if domain.IsSessionExpired(err) {
		return err
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Code == domain.CodeNetwork && appErr.Message == msg {
		return err
	}
	return domain.NewAppError(domain.CodeNetwork, msg, err)
}

func (e *Engine[T]) restore(snapshot State[T], restoreMirror func()) {
	e.apply(func(s *State[T]) {
		s.Items = snapshot.Items
		s.Selected = snapshot.Selected
		s.Pagination = snapshot.Pagination
		restoreMirror()
	})
}

// mirrorSave and mirrorPut are no-ops without a Mirror. Callers hold e.mu.
func (e *Engine[T]) mirrorSave() func() {
	if e.cfg.Mirror == nil {
		return func() {}
	}
	return e.cfg.Mirror.Save()
}

func (e *Engine[T]) mirrorPut(item T) {
	if e.cfg.Mirror != nil {
		e.cfg.Mirror.Put(item)
	}
}

// apply runs fn under the state lock and notifies subscribers.
func (e *Engine[T]) apply(fn func(s *State[T])) {
	_ = e.applyErr(func(s *State[T]) error {
		fn(s)
		return nil
	})
}

// applyErr runs fn under the state lock and notifies subscribers unless fn
// fails, in which case the state must be left untouched.
func (e *Engine[T]) applyErr(fn func(s *State[T]) error) error {
	e.mu.Lock()
	if err := fn(&e.state); err != nil {
		e.mu.Unlock()
		return err
	}
	snap := e.state.clone()
	e.mu.Unlock()

	e.notify(snap)
	return nil
}

func (e *Engine[T]) notify(snap State[T]) {
	e.subMu.RLock()
	fns := make([]func(State[T]), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.subMu.RUnlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (e *Engine[T]) currentParams() FetchParams {
	e.mu.Lock()
	defer e.mu.Unlock()
	return FetchParams{
		Filters:       e.state.Query.Filters,
		Page:          e.state.Pagination.CurrentPage,
		PageSize:      e.state.Pagination.PageSize,
		SortBy:        e.state.Query.SortBy,
		SortDirection: e.state.Query.SortDirection,
	}
}

func (e *Engine[T]) itemPath(id uint) string {
	return fmt.Sprintf("%s/%d", e.cfg.Path, id)
}

func indexOf[T domain.Resource](items []T, id uint) int {
	return slices.IndexFunc(items, func(item T) bool { return item.GetID() == id })
}

// insertByCreated inserts item before the first element created earlier.
func insertByCreated[T domain.Resource](items []T, item T) []T {
	at := slices.IndexFunc(items, func(other T) bool {
		return other.GetCreatedAt().Before(item.GetCreatedAt())
	})
	if at < 0 {
		at = len(items)
	}
	return slices.Insert(items, at, item)
}

// mergeJSON decodes patch over a deep copy of base. Fields absent from patch
// keep base's values.
func mergeJSON[T any](base T, patch []byte) (T, error) {
	var out T
	raw, err := json.Marshal(base)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	if len(patch) == 0 || string(patch) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(patch, &out); err != nil {
		return out, err
	}
	return out, nil
}
