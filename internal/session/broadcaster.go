// Package session holds the per-session login flag and fans its changes out
// to the stores that depend on it.
package session

// Observer receives the login flag. It is called synchronously.
type Observer func(loggedIn bool)

type subscription struct {
	id int
	fn Observer
}

// Broadcaster is a replay-one boolean: a new subscriber is called with the
// current value right away, then with every value passed to Set until it
// unsubscribes. It is not safe for concurrent use; callers serialise access
// per session.
type Broadcaster struct {
	loggedIn bool
	nextID   int
	subs     []subscription
}

// NewBroadcaster returns a Broadcaster holding initial.
func NewBroadcaster(initial bool) *Broadcaster {
	return &Broadcaster{loggedIn: initial}
}

// Get returns the current value.
func (b *Broadcaster) Get() bool {
	return b.loggedIn
}

// Set stores v and notifies every subscriber in subscription order, even when
// v equals the previous value.
func (b *Broadcaster) Set(v bool) {
	b.loggedIn = v
	// Observers may unsubscribe while being notified.
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	for _, s := range subs {
		s.fn(v)
	}
}

// Subscribe registers fn, calls it with the current value and returns a
// function removing it again. The returned function may be called any number
// of times.
func (b *Broadcaster) Subscribe(fn Observer) (unsubscribe func()) {
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})
	fn(b.loggedIn)

	return func() {
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	return len(b.subs)
}
