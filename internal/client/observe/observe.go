// Package observe provides a minimal replayable publish/subscribe cell.
// A Value holds the last published item; late subscribers receive it first
// and then every future update. The stream never completes; a subscription
// ends only when its cancel function is called.
package observe

import "sync"

// Value is a broadcast cell for values of type T.
//
// Publishing never blocks: every subscriber channel has a buffer of one and
// keeps only the most recent value, so a slow consumer observes the latest
// state rather than stalling the publisher.
type Value[T any] struct {
	mu   sync.Mutex
	has  bool
	last T
	subs map[int]chan T
	next int
}

func NewValue[T any]() *Value[T] {
	return &Value[T]{subs: make(map[int]chan T)}
}

// Set publishes v to all subscribers and stores it for late subscribers.
func (o *Value[T]) Set(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.last = v
	o.has = true
	for _, ch := range o.subs {
		// Drop the stale value, if any, then deliver the fresh one.
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

// Get returns the last published value, if there is one.
func (o *Value[T]) Get() (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last, o.has
}

// Subscribe registers a new consumer. If a value was ever published, the
// returned channel yields it immediately. The cancel function removes the
// subscription and closes the channel; it is safe to call more than once.
func (o *Value[T]) Subscribe() (<-chan T, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ch := make(chan T, 1)
	if o.has {
		ch <- o.last
	}
	id := o.next
	o.next++
	o.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}
