package docstore

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"
)

// Broadcaster drives live queries for backends without native push: each
// watch re-runs its query after a change to its collection and delivers the
// result when it differs from the previous one.
//
// Every watch has its own goroutine, so callbacks are serialized per
// subscription and never run while a store lock is held. Bursts of
// notifications are coalesced into a single re-run.
type Broadcaster struct {
	log *slog.Logger

	mu      sync.Mutex
	nextID  uint64
	watches map[uint64]*watch
	closed  bool
}

type watch struct {
	collection string
	run        func(ctx context.Context) ([]Document, error)
	onData     DataFunc
	onError    ErrorFunc

	kick   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster(log *slog.Logger) *Broadcaster {
	if log == nil {
		log = slog.Default()
	}
	return &Broadcaster{
		log:     log,
		watches: make(map[uint64]*watch),
	}
}

// Watch registers a live query over collection. run is executed right away
// and again after every Notify for that collection. The watch ends when the
// returned Subscription is closed, when ctx is done, or after the first
// error from run, which is passed to onError.
func (b *Broadcaster) Watch(
	ctx context.Context,
	collection string,
	run func(ctx context.Context) ([]Document, error),
	onData DataFunc,
	onError ErrorFunc,
) Subscription {
	wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w := &watch{
		collection: collection,
		run:        run,
		onData:     onData,
		onError:    onError,
		kick:       make(chan struct{}, 1),
		ctx:        wctx,
		cancel:     cancel,
	}
	w.kick <- struct{}{}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		return SubscriptionFunc(func() {})
	}
	id := b.nextID
	b.nextID++
	b.watches[id] = w
	b.mu.Unlock()

	// Parent cancellation ends the watch, but the run context stays detached
	// so an in-flight query sees only Close.
	stop := context.AfterFunc(ctx, cancel)

	go func() {
		defer stop()
		defer b.remove(id)
		w.loop(b.log)
	}()

	return SubscriptionFunc(cancel)
}

// WatchDoc is Watch for a single document. get must return ErrNotFound for
// a missing document.
func (b *Broadcaster) WatchDoc(
	ctx context.Context,
	collection, id string,
	get func(ctx context.Context) (Document, error),
	onData DocFunc,
	onError ErrorFunc,
) Subscription {
	run := func(ctx context.Context) ([]Document, error) {
		doc, err := get(ctx)
		if errors.Is(err, ErrNotFound) {
			return []Document{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []Document{doc}, nil
	}
	deliver := func(docs []Document) {
		if len(docs) == 0 {
			onData(Document{ID: id, Data: map[string]any{}}, false)
			return
		}
		onData(docs[0], true)
	}
	return b.Watch(ctx, collection, run, deliver, onError)
}

// Notify schedules a re-run of every watch over collection.
func (b *Broadcaster) Notify(collection string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range b.watches {
		if w.collection != collection {
			continue
		}
		select {
		case w.kick <- struct{}{}:
		default:
		}
	}
}

// NotifyAll schedules a re-run of every watch.
func (b *Broadcaster) NotifyAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range b.watches {
		select {
		case w.kick <- struct{}{}:
		default:
		}
	}
}

// Len returns the number of active watches.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.watches)
}

// Close ends every watch. Later calls to Watch return inert subscriptions.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, w := range b.watches {
		w.cancel()
		delete(b.watches, id)
	}
}

func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	delete(b.watches, id)
	b.mu.Unlock()
}

func (w *watch) loop(log *slog.Logger) {
	var (
		last    []Document
		hasLast bool
	)
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.kick:
		}

		docs, err := w.run(w.ctx)
		if w.ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Debug("live query failed",
				slog.String("collection", w.collection),
				slog.String("error", err.Error()),
			)
			if w.onError != nil {
				w.onError(err)
			}
			w.cancel()
			return
		}
		if hasLast && reflect.DeepEqual(last, docs) {
			continue
		}
		last, hasLast = docs, true

		out := make([]Document, len(docs))
		for i, d := range docs {
			out[i] = Document{ID: d.ID, Data: CloneData(d.Data)}
		}
		w.onData(out)
	}
}
