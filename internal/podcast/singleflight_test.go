package podcast

import (
	"sync"
	"sync/atomic"
	"testing"
)

type recordingSender struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSender) Send(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestCoordinatorRunInvokesFnOnce(t *testing.T) {
	c := NewCoordinator()
	var calls int32
	fn := func(s Sender) (*Record, error) {
		atomic.AddInt32(&calls, 1)
		return &Record{CacheKey: "abc"}, nil
	}

	r, err := c.Run("abc", &recordingSender{}, fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.CacheKey != "abc" {
		t.Errorf("CacheKey = %q, want abc", r.CacheKey)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestCoordinatorJoinsInFlightBuild(t *testing.T) {
	c := NewCoordinator()
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})

	fn := func(s Sender) (*Record, error) {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		s.Send(Event{Type: EventComplete})
		return &Record{CacheKey: "abc"}, nil
	}

	var wg sync.WaitGroup
	results := make([]*Record, 2)
	errs := make([]error, 2)
	senders := []*recordingSender{{}, {}}

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = c.Run("abc", senders[0], fn)
	}()

	<-started // ensure the first call has claimed the build before the second joins

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = c.Run("abc", senders[1], func(Sender) (*Record, error) {
			t.Error("joining caller's fn must not run")
			return nil, nil
		})
	}()

	close(release)
	wg.Wait()

	if calls != 1 {
		t.Errorf("fn invoked %d times, want 1 (second caller should join)", calls)
	}
	for i, r := range results {
		if errs[i] != nil {
			t.Fatalf("caller %d: unexpected error: %v", i, errs[i])
		}
		if r == nil || r.CacheKey != "abc" {
			t.Errorf("caller %d: record = %+v, want CacheKey=abc", i, r)
		}
	}
	if senders[0].count() == 0 || senders[1].count() == 0 {
		t.Error("expected both the original caller and the joiner to receive the completion event")
	}
}

func TestCoordinatorRunsFreshBuildAfterPriorOneCompletes(t *testing.T) {
	c := NewCoordinator()
	var calls int32
	fn := func(s Sender) (*Record, error) {
		atomic.AddInt32(&calls, 1)
		return &Record{CacheKey: "abc"}, nil
	}

	if _, err := c.Run("abc", &recordingSender{}, fn); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := c.Run("abc", &recordingSender{}, fn); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if calls != 2 {
		t.Errorf("fn called %d times, want 2 (builds complete sequentially, not joined)", calls)
	}
}
