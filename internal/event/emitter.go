// Package event provides a small synchronous event emitter used to wire the
// terminal surface, the clipboard coordinator and the find widget together.
package event

import "sync"

// Emitter delivers values to its subscribers in subscription order.
// Handlers run synchronously on the goroutine that calls Emit.
type Emitter[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscription[T]
}

type subscription[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it again.
// The returned function is safe to call more than once.
func (e *Emitter[T]) Subscribe(fn func(T)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	id := e.nextID
	e.subs = append(e.subs, subscription[T]{id: id, fn: fn})

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, s := range e.subs {
			if s.id == id {
				e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
				return
			}
		}
	}
}

// Once registers fn for the next emitted value only.
func (e *Emitter[T]) Once(fn func(T)) func() {
	var (
		once  sync.Once
		unsub func()
	)
	unsub = e.Subscribe(func(v T) {
		once.Do(func() {
			unsub()
			fn(v)
		})
	})
	return unsub
}

// Emit calls every current subscriber with v. Subscribers added or removed
// by a handler take effect from the next Emit.
func (e *Emitter[T]) Emit(v T) {
	e.mu.Lock()
	subs := make([]subscription[T], len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of active subscribers.
func (e *Emitter[T]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
