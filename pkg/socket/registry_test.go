package socket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSub(c Category) *Subscription {
	return &Subscription{category: c, listener: NewListener(func(Event) {})}
}

func TestRegistryRecordPreservesOrder(t *testing.T) {
	var r registry

	subs := []*Subscription{newSub(Message), newSub(Connect), newSub(Message), newSub(Error)}
	for _, s := range subs {
		r.record(s)
	}

	got := r.snapshot()
	require.Len(t, got, len(subs))
	for i, s := range subs {
		assert.Same(t, s, got[i])
	}
}

func TestRegistryRemoveFirst(t *testing.T) {
	var r registry

	a := newSub(Message)
	b := newSub(Message)
	c := newSub(Disconnect)
	r.record(a)
	r.record(b)
	r.record(c)

	t.Run("removes by identity and preserves order", func(t *testing.T) {
		assert.True(t, r.removeFirst(b))
		got := r.snapshot()
		require.Len(t, got, 2)
		assert.Same(t, a, got[0])
		assert.Same(t, c, got[1])
	})

	t.Run("first entry is removable", func(t *testing.T) {
		// The entry at index zero must be found like any other.
		assert.True(t, r.removeFirst(a))
		got := r.snapshot()
		require.Len(t, got, 1)
		assert.Same(t, c, got[0])
	})

	t.Run("unknown entry is a no-op", func(t *testing.T) {
		assert.False(t, r.removeFirst(a))
		assert.Equal(t, 1, r.size())
	})
}

func TestRegistryNeverDeduplicates(t *testing.T) {
	var r registry

	// Two subscriptions wrapping logically identical callbacks are
	// distinct entries with distinct identities.
	fn := func(Event) {}
	a := &Subscription{category: Message, listener: NewListener(fn)}
	b := &Subscription{category: Message, listener: NewListener(fn)}
	r.record(a)
	r.record(b)
	require.Equal(t, 2, r.size())

	assert.True(t, r.removeFirst(a))
	got := r.snapshot()
	require.Len(t, got, 1)
	assert.Same(t, b, got[0])
}

func TestRegistryFidelity(t *testing.T) {
	// For any interleaving of record and remove calls, the snapshot holds
	// exactly the entries not yet removed.
	var r registry

	live := make(map[*Subscription]bool)
	var order []*Subscription

	add := func(c Category) *Subscription {
		s := newSub(c)
		r.record(s)
		live[s] = true
		order = append(order, s)
		return s
	}
	remove := func(s *Subscription) {
		r.removeFirst(s)
		delete(live, s)
	}

	a := add(Message)
	b := add(Disconnect)
	remove(a)
	c := add(Error)
	d := add(Message)
	remove(d)
	remove(b)
	add(Connect)
	remove(c)

	got := r.snapshot()
	assert.Len(t, got, len(live))
	for _, s := range got {
		assert.True(t, live[s])
	}

	// Survivors keep their relative registration order.
	idx := func(s *Subscription) int {
		for i, cur := range order {
			if cur == s {
				return i
			}
		}
		return -1
	}
	for i := 1; i < len(got); i++ {
		assert.Less(t, idx(got[i-1]), idx(got[i]))
	}
}

func TestRegistrySnapshotIsolation(t *testing.T) {
	var r registry

	a := newSub(Message)
	r.record(a)

	snap := r.snapshot()
	r.record(newSub(Error))
	r.removeFirst(a)

	// Mutations after the snapshot do not leak into it.
	require.Len(t, snap, 1)
	assert.Same(t, a, snap[0])
}
