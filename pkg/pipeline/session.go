// Package pipeline glues the stages of a live search together: one
// Session owns a normalizer, a debounced dispatcher, a resilient fetch
// executor and the client-side refinement state for a single results
// surface.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tripsift/tripsift/pkg/core"
	"github.com/tripsift/tripsift/pkg/debounce"
	"github.com/tripsift/tripsift/pkg/fetch"
	"github.com/tripsift/tripsift/pkg/history"
	"github.com/tripsift/tripsift/pkg/log"
	"github.com/tripsift/tripsift/pkg/normalize"
	"github.com/tripsift/tripsift/pkg/refine"
)

// Results is one delivered result view.
type Results struct {
	// SessionID identifies the owning session.
	SessionID string

	// Token is the dispatch token of the fetch that produced this view.
	// Tokens are strictly increasing per session; consumers never see a
	// token lower than one already delivered.
	Token uint64

	Query      core.SearchQuery
	Items      []core.ResultItem
	Pagination refine.Pagination
}

// Options tunes a session. Zero values use the defaults noted per field.
type Options struct {
	// QuietInterval is the debounce window. Default
	// debounce.DefaultQuietInterval.
	QuietInterval time.Duration

	// Retry tunes the fetch executor.
	Retry fetch.Options

	// PerPage is the page size for client-side pagination. Default 20.
	PerPage int

	// HTTPClient is shared by all transports. Default http.DefaultClient.
	HTTPClient *http.Client

	// History, when non-nil, records dispatched query texts. The session
	// does not own the store and never closes it.
	History *history.Store
}

// Session drives live search for one provider. Raw input flows through
// normalization and debouncing into fetches; fetched items flow through
// the provider transform and the current filter, sort and page state
// into the OnResults callback.
//
// Each dispatched fetch carries a token from a per-session counter. A
// fetch completing after a newer one has already been dispatched or
// delivered is dropped, so slow responses can never overwrite fresher
// ones.
type Session struct {
	id         string
	provider   core.Provider
	normalizer *normalize.Normalizer
	executor   *fetch.Executor
	dispatcher *debounce.Dispatcher
	store      *history.Store
	logger     *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	issued    atomic.Uint64
	delivered atomic.Uint64

	mu          sync.Mutex
	filter      refine.FilterState
	sortKey     refine.SortKey
	page        int
	perPage     int
	base        []core.ResultItem
	query       core.SearchQuery
	haveResults bool
	serverPaged bool
	serverPg    fetch.Pagination

	onResults func(Results)
	onError   func(core.SearchQuery, error)
}

// NewSession wires a session for the given provider. The provider's
// endpoints decide the transport set: the primary with retries, each
// fallback once, and the suggestion endpoint feeding the normalizer.
func NewSession(provider core.Provider, opts Options) (*Session, error) {
	ep := provider.Endpoints()
	if ep.Primary == "" {
		return nil, fmt.Errorf("provider %s has no primary endpoint", provider.Name())
	}

	client := opts.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	quiet := opts.QuietInterval
	if quiet <= 0 {
		quiet = debounce.DefaultQuietInterval
	}
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = 20
	}

	primary := fetch.NewPrimaryTransport(provider.Name(), ep.Primary, ep.Method, client)
	fallbacks := make([]fetch.Transport, 0, len(ep.Fallbacks))
	for i, u := range ep.Fallbacks {
		fallbacks = append(fallbacks, fetch.NewFallbackTransport(fmt.Sprintf("%s-fallback-%d", provider.Name(), i+1), u, client))
	}

	var suggester normalize.Suggester
	if ep.Suggest != "" {
		suggester = fetch.NewSuggestClient(ep.Suggest, client)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:         uuid.NewString(),
		provider:   provider,
		normalizer: normalize.New(provider.Aliases(), suggester),
		executor:   fetch.NewExecutor(primary, fallbacks, opts.Retry),
		store:      opts.History,
		logger:     log.ForService("pipeline"),
		ctx:        ctx,
		cancel:     cancel,
		page:       1,
		perPage:    perPage,
	}
	s.dispatcher = debounce.NewDispatcher(quiet, s.launch)
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// OnResults registers the result callback. It runs on a fetch or timer
// goroutine, never on the caller's.
func (s *Session) OnResults(fn func(Results)) {
	s.mu.Lock()
	s.onResults = fn
	s.mu.Unlock()
}

// OnError registers the error callback for failed dispatches.
func (s *Session) OnError(fn func(core.SearchQuery, error)) {
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}

// Submit normalizes raw input and schedules it behind the debounce
// window. Normalization errors are returned synchronously and schedule
// nothing. A successful submission resets the page to 1.
func (s *Session) Submit(ctx context.Context, raw core.RawQuery) error {
	q, err := s.normalizer.Normalize(ctx, raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.page = 1
	q.Page = 1
	q.PerPage = s.perPage
	s.mu.Unlock()

	s.dispatcher.Submit(q)
	return nil
}

// Flush dispatches any pending query immediately, e.g. when the user
// presses enter instead of waiting out the quiet interval.
func (s *Session) Flush() {
	s.dispatcher.Flush()
}

// Cancel drops any pending query without dispatching it.
func (s *Session) Cancel() {
	s.dispatcher.Cancel()
}

// SetFilter replaces the filter state and re-emits the current results.
func (s *Session) SetFilter(f refine.FilterState) {
	s.mu.Lock()
	s.filter = f
	s.page = 1
	s.mu.Unlock()
	s.reemit()
}

// SetSort replaces the sort key and re-emits the current results.
// Unknown keys are rejected.
func (s *Session) SetSort(key refine.SortKey) error {
	if !refine.ValidSortKey(key) {
		return fmt.Errorf("unknown sort key %q", key)
	}
	s.mu.Lock()
	s.sortKey = key
	s.mu.Unlock()
	s.reemit()
	return nil
}

// SetPage moves to the given page. With client-side pagination this is
// a local re-slice of the cached results; when the upstream paginates,
// the current query is re-dispatched immediately for the new page.
func (s *Session) SetPage(page int) {
	if page < 1 {
		page = 1
	}

	s.mu.Lock()
	s.page = page
	server := s.serverPaged && s.haveResults
	q := s.query
	s.mu.Unlock()

	if server {
		q.Page = page
		s.launch(q)
		return
	}
	s.reemit()
}

// Close stops the dispatcher, cancels in-flight fetches and waits for
// them to drain.
func (s *Session) Close() {
	s.dispatcher.Close()
	s.cancel()
	s.wg.Wait()
}

// launch is the dispatch callback: it stamps the query with the next
// token and runs the fetch on its own goroutine.
func (s *Session) launch(q core.SearchQuery) {
	token := s.issued.Add(1)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(token, q)
	}()
}

func (s *Session) run(token uint64, q core.SearchQuery) {
	if s.store != nil {
		if err := s.store.Record(q.Domain, q.Text()); err != nil {
			s.logger.Warnf("recording history: %v", err)
		}
	}

	resp, err := s.executor.Execute(s.ctx, q, s.provider.EncodeQuery(q))
	if err == nil {
		var items []core.ResultItem
		items, err = s.provider.Transform(resp.Items)
		if err == nil {
			s.deliver(token, q, items, resp.Pagination)
			return
		}
	}

	if s.stale(token) {
		s.logger.Debugf("dropping stale failure for token %d: %v", token, err)
		return
	}

	// Teardown is not a failure. A fetch cut short by Close resolves as
	// a no-op instead of reaching the error callback.
	if s.ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Debugf("dropping cancelled fetch for token %d: %v", token, err)
		return
	}

	s.mu.Lock()
	fn := s.onError
	s.mu.Unlock()
	if fn != nil {
		fn(q, err)
	} else {
		s.logger.Errorf("query %q failed: %v", q.Text(), err)
	}
}

// stale reports whether a newer fetch has been dispatched or delivered
// since this token was issued.
func (s *Session) stale(token uint64) bool {
	return token < s.issued.Load() || token <= s.delivered.Load()
}

// deliver installs a fetch outcome as the current result set, unless it
// lost the race to a newer one.
func (s *Session) deliver(token uint64, q core.SearchQuery, items []core.ResultItem, pg *fetch.Pagination) {
	for {
		cur := s.delivered.Load()
		if token <= cur || token < s.issued.Load() {
			s.logger.Debugf("dropping stale results for token %d", token)
			return
		}
		if s.delivered.CompareAndSwap(cur, token) {
			break
		}
	}

	s.mu.Lock()
	s.base = items
	s.query = q
	s.haveResults = true
	s.serverPaged = pg != nil
	if pg != nil {
		s.serverPg = *pg
		s.page = pg.CurrentPage
	}
	res, fn := s.viewLocked(token)
	s.mu.Unlock()

	if fn != nil {
		fn(res)
	}
}

// reemit recomputes the view over the cached base items after a filter,
// sort or page change. No fetch happens; nothing is emitted before the
// first delivery.
func (s *Session) reemit() {
	s.mu.Lock()
	if !s.haveResults {
		s.mu.Unlock()
		return
	}
	res, fn := s.viewLocked(s.delivered.Load())
	s.mu.Unlock()

	if fn != nil {
		fn(res)
	}
}

// viewLocked applies filter, sort and pagination to the cached base
// items. Caller holds s.mu.
func (s *Session) viewLocked(token uint64) (Results, func(Results)) {
	items := refine.Sort(refine.Filter(s.base, s.filter), s.sortKey)

	var pg refine.Pagination
	if s.serverPaged {
		// The upstream already sliced this page; local state only
		// narrows it further.
		pg = refine.ServerPage(s.serverPg.CurrentPage, s.serverPg.PerPage, s.serverPg.TotalResults, s.serverPg.TotalPages)
	} else {
		items, pg = refine.Paginate(items, s.page, s.perPage)
	}

	return Results{
		SessionID:  s.id,
		Token:      token,
		Query:      s.query,
		Items:      items,
		Pagination: pg,
	}, s.onResults
}
