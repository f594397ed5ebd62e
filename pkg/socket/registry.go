package socket

import "sync"

// Subscription is the handle returned from every subscribe call. Its pointer
// identity is what Unsubscribe matches on, so two subscriptions created from
// logically identical callbacks are still distinct.
type Subscription struct {
	category Category
	listener *Listener

	// internal marks the facade's own reconnect hook. Internal entries
	// survive replay like any other but are invisible to the public
	// surface and can never be unsubscribed by callers.
	internal bool
}

// Category reports which logical event class the subscription belongs to.
func (s *Subscription) Category() Category {
	return s.category
}

// registry is the ordered record of every active subscription. It is the
// source of truth for the listener set: the live transport's listeners are
// always derivable from it, and it is what gets replayed onto a replacement
// transport after reconnection.
type registry struct {
	mu   sync.Mutex
	subs []*Subscription
}

// record appends a subscription. Entries are never deduplicated.
func (r *registry) record(s *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, s)
}

// removeFirst deletes the first entry matching s by identity, preserving the
// relative order of the remaining entries. It reports whether an entry was
// removed.
func (r *registry) removeFirst(s *Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, cur := range r.subs {
		if cur == s {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot returns a copy of the current entries in registration order.
// Replay iterates the snapshot, so registry mutations made while a replay is
// in progress only affect the next cycle.
func (r *registry) snapshot() []*Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Subscription, len(r.subs))
	copy(out, r.subs)
	return out
}

// size reports the number of recorded entries, internal hook included.
func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
