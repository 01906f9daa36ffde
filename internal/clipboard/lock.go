package clipboard

import (
	"errors"
	"fmt"
	"sync"
)

// ErrIllegalState is returned when the copy-on-selection override is
// acquired while another caller still holds it.
var ErrIllegalState = errors.New("illegal state")

// Release gives up a held copy-on-selection override. Calling it more than
// once has no further effect.
type Release func()

// overrideLock is the single-slot copy-on-selection override. When held, it
// carries the value the holder asked for.
type overrideLock struct {
	mu    sync.Mutex
	held  bool
	value bool
	epoch uint64
}

func (l *overrideLock) acquire(value bool) (Release, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return nil, fmt.Errorf("%w: copy on selection override already held (value=%t)", ErrIllegalState, l.value)
	}
	l.held = true
	l.value = value
	l.epoch++
	epoch := l.epoch

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if l.held && l.epoch == epoch {
				l.held = false
				l.value = false
			}
		})
	}, nil
}

// get returns the override value and whether the lock is held.
func (l *overrideLock) get() (value, held bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.held
}
