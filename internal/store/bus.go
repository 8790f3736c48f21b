// Package store provides the single dispatch channel shared by all state
// containers. Every state transition in the application goes through one Bus:
// the mutation runs under one lock, so a transition is always applied whole or
// not at all, and completions of overlapping fetches are serialized in arrival
// order.
package store

import (
	"sync"

	"github.com/rs/zerolog"
)

// Bus serializes state transitions and notifies subscribers after each one.
type Bus struct {
	mu      sync.RWMutex
	log     zerolog.Logger
	version uint64

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		log:  log,
		subs: make(map[int]func()),
	}
}

// Dispatch applies one state transition atomically. The action name is only
// used for logging, in the slice/event form the containers agreed on
// (e.g. "catalog/load/rejected").
func (b *Bus) Dispatch(action string, apply func()) {
	b.mu.Lock()
	apply()
	b.version++
	version := b.version
	b.mu.Unlock()

	b.log.Debug().Str("action", action).Uint64("version", version).Msg("store: transition applied")
	b.notify()
}

// View runs read under the read lock. Containers use it for snapshots.
func (b *Bus) View(read func()) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	read()
}

// Version returns the number of transitions applied so far.
func (b *Bus) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// Subscribe registers fn to run after every transition. The returned function
// removes the subscription. fn runs outside the state lock, so it may read
// snapshots freely.
func (b *Bus) Subscribe(fn func()) func() {
	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.subMu.Unlock()

	return func() {
		b.subMu.Lock()
		delete(b.subs, id)
		b.subMu.Unlock()
	}
}

func (b *Bus) notify() {
	b.subMu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
