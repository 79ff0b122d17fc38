package usecase

import (
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// InFlight is a keyed try-lock. At most one request per key may be outstanding;
// a second Acquire for a held key fails immediately with ErrInFlight instead of
// waiting.
type InFlight struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{
		held: make(map[string]struct{}),
	}
}

// Acquire marks key as in flight and returns the function that releases it.
// The release function is safe to call more than once.
func (f *InFlight) Acquire(key string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.held[key]; ok {
		return nil, goerr.Wrap(ErrInFlight, "request already outstanding", goerr.V(KeyKey, key))
	}
	f.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.held, key)
		})
	}, nil
}
