package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rickgao/price-feed/internal/failure"
	"github.com/rickgao/price-feed/internal/gecko"
	"github.com/rickgao/price-feed/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(id string) model.Entry {
	return model.Present(model.MarketRecord{ID: &id})
}

// scriptedFetcher serves responses keyed by call number and records the pages requested.
type scriptedFetcher struct {
	mu        sync.Mutex
	requested []int
	respond   func(call, page int) (model.Page, error)
}

func (f *scriptedFetcher) FetchPage(_ context.Context, _ string, page int) (model.Page, error) {
	f.mu.Lock()
	f.requested = append(f.requested, page)
	call := len(f.requested)
	f.mu.Unlock()
	return f.respond(call, page)
}

func (f *scriptedFetcher) pages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.requested...)
}

type fakeStore struct {
	mu     sync.Mutex
	stored []model.Page
	err    error
}

func (s *fakeStore) StorePage(ctx context.Context, page model.Page) (model.Outcome, error) {
	if ctx.Done() != nil {
		return model.Errored, errors.New("store context must not be cancellable")
	}
	if s.err != nil {
		return model.Errored, s.err
	}
	s.mu.Lock()
	s.stored = append(s.stored, page)
	s.mu.Unlock()
	if page.Empty() {
		return model.EmptyQueue, nil
	}
	return model.Completed, nil
}

// fakeClock records requested delays and cancels the run after limit sleeps.
type fakeClock struct {
	delays []time.Duration
	limit  int
	cancel context.CancelFunc
}

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	c.delays = append(c.delays, d)
	if len(c.delays) >= c.limit {
		c.cancel()
		return context.Canceled
	}
	return ctx.Err()
}

func runFor(t *testing.T, cfg Config, fetcher PageFetcher, store PageStore, iterations int) (*Poller, *fakeClock) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := &fakeClock{limit: iterations, cancel: cancel}
	p := New(cfg, fetcher, store, discardLogger(), WithSleep(clock.sleep))

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancellation")
	}
	return p, clock
}

func TestConfig_Delay(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		outcome model.Outcome
		want    time.Duration
	}{
		{model.Completed, 5 * time.Second},
		{model.EmptyQueue, 360 * time.Second},
		{model.Errored, 5 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			if got := cfg.Delay(tt.outcome); got != tt.want {
				t.Errorf("Delay(%v) = %v, want %v", tt.outcome, got, tt.want)
			}
		})
	}
}

func TestStep(t *testing.T) {
	tests := []struct {
		name        string
		page        model.Page
		fetchErr    error
		storeErr    error
		policy      EmptyPolicy
		wantOutcome model.Outcome
		wantPage    int
		wantErr     bool
	}{
		{
			name:        "completed advances cursor",
			page:        model.Page{record("bitcoin")},
			wantOutcome: model.Completed,
			wantPage:    5,
		},
		{
			name:        "page of nulls still completes",
			page:        model.Page{model.Absent()},
			wantOutcome: model.Completed,
			wantPage:    5,
		},
		{
			name:        "empty page holds cursor",
			page:        model.Page{},
			wantOutcome: model.EmptyQueue,
			wantPage:    4,
		},
		{
			name:        "empty page rewinds cursor",
			page:        model.Page{},
			policy:      RewindOnEmpty,
			wantOutcome: model.EmptyQueue,
			wantPage:    2,
		},
		{
			name:        "fetch error holds cursor",
			fetchErr:    failure.Newf(failure.Transport, "fetch", "status 502"),
			wantOutcome: model.Errored,
			wantPage:    4,
			wantErr:     true,
		},
		{
			name:        "commit error holds cursor",
			page:        model.Page{record("bitcoin")},
			storeErr:    failure.Newf(failure.Commit, "store page", "connection lost"),
			wantOutcome: model.Errored,
			wantPage:    4,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &scriptedFetcher{respond: func(int, int) (model.Page, error) {
				return tt.page, tt.fetchErr
			}}
			store := &fakeStore{err: tt.storeErr}

			cfg := DefaultConfig()
			cfg.StartPage = 2
			cfg.EmptyPolicy = tt.policy
			p := New(cfg, fetcher, store, discardLogger())

			next, outcome, err := p.Step(context.Background(), State{Page: 4, Iteration: 9})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Step() error = %v, wantErr %v", err, tt.wantErr)
			}
			if outcome != tt.wantOutcome {
				t.Errorf("outcome = %v, want %v", outcome, tt.wantOutcome)
			}
			if next.Page != tt.wantPage {
				t.Errorf("next page = %d, want %d", next.Page, tt.wantPage)
			}
			if next.Iteration != 10 {
				t.Errorf("iteration = %d, want 10", next.Iteration)
			}
			if got := fetcher.pages(); len(got) != 1 || got[0] != 4 {
				t.Errorf("requested pages = %v, want [4]", got)
			}
		})
	}
}

func TestStep_ErrorKindPreserved(t *testing.T) {
	fetcher := &scriptedFetcher{respond: func(int, int) (model.Page, error) {
		return nil, failure.Newf(failure.Schema, "fetch page", "body is not an array")
	}}
	p := New(DefaultConfig(), fetcher, &fakeStore{}, discardLogger())

	_, _, err := p.Step(context.Background(), State{Page: 1})
	if !failure.Is(err, failure.Schema) {
		t.Errorf("error = %v, want schema kind", err)
	}
}

func TestRun_CursorMonotonicity(t *testing.T) {
	fetcher := &scriptedFetcher{respond: func(_, page int) (model.Page, error) {
		return model.Page{record(fmt.Sprintf("coin-%d", page))}, nil
	}}
	store := &fakeStore{}

	p, clock := runFor(t, DefaultConfig(), fetcher, store, 6)

	pages := fetcher.pages()
	if len(pages) != 6 {
		t.Fatalf("fetches = %d, want 6", len(pages))
	}
	for k := 1; k < len(pages); k++ {
		if pages[k] != pages[k-1]+1 {
			t.Errorf("page[%d] = %d, want %d", k, pages[k], pages[k-1]+1)
		}
	}
	for i, d := range clock.delays {
		if d != 5*time.Second {
			t.Errorf("delay[%d] = %v, want 5s", i, d)
		}
	}
	if got := p.State(); got.Page != 7 || got.Iteration != 6 {
		t.Errorf("state = %+v, want page 7 after 6 iterations", got)
	}
}

func TestRun_EmptySentinelAndBackoff(t *testing.T) {
	// Pages 1-2 have data, page 3 is empty twice, then has data.
	fetcher := &scriptedFetcher{respond: func(call, page int) (model.Page, error) {
		switch {
		case call == 3:
			return nil, failure.Newf(failure.Transport, "fetch", "timeout")
		case page == 3 && call < 6:
			return model.Page{}, nil
		default:
			return model.Page{record("x")}, nil
		}
	}}

	_, clock := runFor(t, DefaultConfig(), fetcher, &fakeStore{}, 7)

	wantPages := []int{1, 2, 3, 3, 3, 3, 4}
	wantDelays := []time.Duration{
		5 * time.Second,   // completed
		5 * time.Second,   // completed
		5 * time.Second,   // transport error
		360 * time.Second, // empty
		360 * time.Second, // empty
		5 * time.Second,   // completed
		5 * time.Second,   // completed
	}

	if got := fetcher.pages(); fmt.Sprint(got) != fmt.Sprint(wantPages) {
		t.Errorf("pages = %v, want %v", got, wantPages)
	}
	if fmt.Sprint(clock.delays) != fmt.Sprint(wantDelays) {
		t.Errorf("delays = %v, want %v", clock.delays, wantDelays)
	}
}

func TestRun_BackoffIndependentOfErrorKind(t *testing.T) {
	kinds := []failure.Kind{failure.Transport, failure.Schema, failure.Validation}
	fetcher := &scriptedFetcher{respond: func(call, _ int) (model.Page, error) {
		return nil, failure.Newf(kinds[(call-1)%len(kinds)], "fetch", "boom")
	}}

	cfg := DefaultConfig()
	cfg.ErrorDelay = 7 * time.Second
	_, clock := runFor(t, cfg, fetcher, &fakeStore{}, 3)

	for i, d := range clock.delays {
		if d != 7*time.Second {
			t.Errorf("delay[%d] = %v, want 7s", i, d)
		}
	}
	if got := fetcher.pages(); fmt.Sprint(got) != "[1 1 1]" {
		t.Errorf("pages = %v, want [1 1 1]", got)
	}
}

func TestRun_CommitErrorHoldsCursor(t *testing.T) {
	fetcher := &scriptedFetcher{respond: func(int, int) (model.Page, error) {
		return model.Page{record("bitcoin")}, nil
	}}
	store := &fakeStore{err: failure.Newf(failure.Commit, "store page", "disk full")}

	_, clock := runFor(t, DefaultConfig(), fetcher, store, 3)

	if got := fetcher.pages(); fmt.Sprint(got) != "[1 1 1]" {
		t.Errorf("pages = %v, want [1 1 1]", got)
	}
	for i, d := range clock.delays {
		if d != 5*time.Second {
			t.Errorf("delay[%d] = %v, want 5s", i, d)
		}
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	fetcher := &scriptedFetcher{respond: func(int, int) (model.Page, error) {
		return model.Page{record("x")}, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(DefaultConfig(), fetcher, &fakeStore{}, discardLogger())
	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n := len(fetcher.pages()); n != 0 {
		t.Errorf("fetches = %d, want 0", n)
	}
}

func TestPoller_StartStop(t *testing.T) {
	fetched := make(chan struct{}, 1)
	fetcher := &scriptedFetcher{respond: func(int, int) (model.Page, error) {
		select {
		case fetched <- struct{}{}:
		default:
		}
		return model.Page{record("x")}, nil
	}}

	cfg := DefaultConfig()
	cfg.CompletedDelay = time.Hour

	p := New(cfg, fetcher, &fakeStore{}, discardLogger())
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	select {
	case <-fetched:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never fetched")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestRun_EndToEnd(t *testing.T) {
	// Provider has two non-empty pages; the third is empty.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		switch page {
		case 1:
			w.Write([]byte(`[{"id":"bitcoin","symbol":"btc","current_price":60000},null]`))
		case 2:
			w.Write([]byte(`[{"id":"ethereum","symbol":"eth","current_price":3000}]`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer server.Close()

	client := gecko.NewClient(server.URL, gecko.WithTimeout(5*time.Second))
	store := &fakeStore{}

	p, clock := runFor(t, DefaultConfig(), client, store, 4)

	if len(store.stored) != 2 {
		t.Fatalf("stored pages = %d, want 2", len(store.stored))
	}
	if got := store.stored[0].PresentCount(); got != 1 {
		t.Errorf("page 1 present = %d, want 1", got)
	}
	if got := p.State().Page; got != 3 {
		t.Errorf("cursor = %d, want 3", got)
	}
	want := []time.Duration{5 * time.Second, 5 * time.Second, 360 * time.Second, 360 * time.Second}
	if fmt.Sprint(clock.delays) != fmt.Sprint(want) {
		t.Errorf("delays = %v, want %v", clock.delays, want)
	}
}

func TestRun_MalformedPageHoldsCursor(t *testing.T) {
	var requests []int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		mu.Lock()
		requests = append(requests, page)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"bitcoin","current_price":"not-a-number"},{"id":"ethereum","market_cap_rank":"1"}]`))
	}))
	defer server.Close()

	client := gecko.NewClient(server.URL, gecko.WithTimeout(5*time.Second))
	store := &fakeStore{}

	p, clock := runFor(t, DefaultConfig(), client, store, 3)

	if len(store.stored) != 0 {
		t.Errorf("stored pages = %d, want 0", len(store.stored))
	}
	if got := p.State().Page; got != 1 {
		t.Errorf("cursor = %d, want 1", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if fmt.Sprint(requests) != "[1 1 1]" {
		t.Errorf("requested pages = %v, want [1 1 1]", requests)
	}
	for i, d := range clock.delays {
		if d != 5*time.Second {
			t.Errorf("delay[%d] = %v, want 5s", i, d)
		}
	}
}
