package podcast

import "sync"

// fanoutSender forwards each Event to every Sender registered on it so
// far. Builders only ever see one fanoutSender; waiters that join an
// in-flight build get their events by registering on that same instance.
type fanoutSender struct {
	mu      sync.Mutex
	senders []Sender
}

func newFanoutSender(first Sender) *fanoutSender {
	return &fanoutSender{senders: []Sender{first}}
}

func (f *fanoutSender) add(s Sender) {
	f.mu.Lock()
	f.senders = append(f.senders, s)
	f.mu.Unlock()
}

func (f *fanoutSender) Send(e Event) {
	f.mu.Lock()
	senders := append([]Sender(nil), f.senders...)
	f.mu.Unlock()
	for _, s := range senders {
		s.Send(e)
	}
}

// build tracks one in-flight generation for a single cache_key.
type build struct {
	fanout *fanoutSender
	done   chan struct{}
	record *Record
	err    error
}

// Coordinator ensures at most one build runs per cache_key at a time: a
// map from cache_key to a shared future plus a waiter list. Concurrent
// requests for the same cache_key join the in-flight build instead of
// triggering a duplicate one, and all of them receive that build's
// events and final result.
type Coordinator struct {
	mu     sync.Mutex
	builds map[string]*build
}

func NewCoordinator() *Coordinator {
	return &Coordinator{builds: make(map[string]*build)}
}

// Run executes fn for cacheKey, or joins an already-running build for the
// same key. sender receives every event the build (or the build it joined)
// emits. Only the first caller for a given cacheKey actually invokes fn.
func (c *Coordinator) Run(cacheKey string, sender Sender, fn func(Sender) (*Record, error)) (*Record, error) {
	c.mu.Lock()
	if b, ok := c.builds[cacheKey]; ok {
		b.fanout.add(sender)
		c.mu.Unlock()
		<-b.done
		return b.record, b.err
	}

	b := &build{fanout: newFanoutSender(sender), done: make(chan struct{})}
	c.builds[cacheKey] = b
	c.mu.Unlock()

	record, err := fn(b.fanout)

	c.mu.Lock()
	delete(c.builds, cacheKey)
	c.mu.Unlock()

	b.record, b.err = record, err
	close(b.done)
	return record, err
}
