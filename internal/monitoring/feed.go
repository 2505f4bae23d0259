package monitoring

import "sync"

// Feed fans usage events out to live subscribers. The gateway's
// /ws/usage handler subscribes one channel per connected admin and
// Publish never blocks: a subscriber that stops draining just misses
// events.
type Feed struct {
	mu   sync.Mutex
	subs map[chan *UsageEvent]struct{}
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[chan *UsageEvent]struct{})}
}

// Subscribe registers a new subscriber. The returned cancel func must
// be called when the subscriber goes away.
func (f *Feed) Subscribe() (<-chan *UsageEvent, func()) {
	ch := make(chan *UsageEvent, 16)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers ev to every subscriber with room in its buffer.
func (f *Feed) Publish(ev *UsageEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// SubscriberCount reports how many live subscribers are attached.
func (f *Feed) SubscriberCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
