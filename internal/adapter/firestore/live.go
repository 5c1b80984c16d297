package firestore

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
)

// subscription is a snapshot listener running in its own goroutine.
type subscription struct {
	cancel context.CancelFunc
}

func (s *subscription) Close() { s.cancel() }

func (s *Store) Subscribe(ctx context.Context, q docstore.Query, onData docstore.DataFunc, onError docstore.ErrorFunc) (docstore.Subscription, error) {
	fq, ok, err := s.compile(q)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", q.Collection, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel}

	if !ok {
		go func() {
			if ctx.Err() == nil {
				onData([]docstore.Document{})
			}
		}()
		return sub, nil
	}

	it := fq.Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				s.terminate(ctx, q.Collection, "", err, onError)
				return
			}
			snaps, err := snap.Documents.GetAll()
			if err != nil {
				s.terminate(ctx, q.Collection, "", err, onError)
				return
			}
			onData(fromSnapshots(snaps))
		}
	}()
	return sub, nil
}

func (s *Store) SubscribeDoc(ctx context.Context, collection, id string, onData docstore.DocFunc, onError docstore.ErrorFunc) (docstore.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	it := s.doc(collection, id).Snapshots(ctx)

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if ctx.Err() != nil {
				return
			}
			switch {
			case status.Code(err) == codes.NotFound:
				onData(docstore.Document{ID: id}, false)
			case err != nil:
				s.terminate(ctx, collection, id, err, onError)
				return
			case !snap.Exists():
				onData(docstore.Document{ID: id}, false)
			default:
				onData(fromSnapshot(snap), true)
			}
		}
	}()
	return &subscription{cancel: cancel}, nil
}

func (s *Store) terminate(ctx context.Context, collection, id string, err error, onError docstore.ErrorFunc) {
	err = mapError(err, collection, id)
	s.log.WarnContext(ctx, "snapshot listener failed",
		slog.String("collection", collection),
		slog.String("error", err.Error()),
	)
	onError(err)
}
