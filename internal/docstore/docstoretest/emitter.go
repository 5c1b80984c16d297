// Package docstoretest provides test doubles for docstore: a manually driven
// subscription emitter and a Store wrapper with overridable methods.
package docstoretest

import (
	"sync"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
)

// Emitter is a fake push source. Tests call Emit and Fail to drive every
// open subscription synchronously.
type Emitter struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*emitterSub
	opened int
}

type emitterSub struct {
	onData  docstore.DataFunc
	onError docstore.ErrorFunc
}

// Subscribe registers callbacks and returns a Subscription that unregisters them.
func (e *Emitter) Subscribe(onData docstore.DataFunc, onError docstore.ErrorFunc) docstore.Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subs == nil {
		e.subs = make(map[int]*emitterSub)
	}
	id := e.nextID
	e.nextID++
	e.opened++
	e.subs[id] = &emitterSub{onData: onData, onError: onError}

	return docstore.SubscriptionFunc(func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	})
}

// Emit delivers docs to every open subscription.
func (e *Emitter) Emit(docs []docstore.Document) {
	for _, s := range e.snapshot() {
		s.onData(docs)
	}
}

// Fail delivers err to every open subscription and closes them all.
func (e *Emitter) Fail(err error) {
	subs := e.snapshot()
	e.mu.Lock()
	clear(e.subs)
	e.mu.Unlock()
	for _, s := range subs {
		if s.onError != nil {
			s.onError(err)
		}
	}
}

// Open returns the number of subscriptions not yet closed.
func (e *Emitter) Open() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// Opened returns how many subscriptions were ever created.
func (e *Emitter) Opened() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opened
}

func (e *Emitter) snapshot() []*emitterSub {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*emitterSub, 0, len(e.subs))
	for _, s := range e.subs {
		out = append(out, s)
	}
	return out
}
