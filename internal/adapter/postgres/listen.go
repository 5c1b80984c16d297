package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// notifyChannel is the channel the documents trigger notifies on. The
// payload is the collection name.
const notifyChannel = "documents"

// Listen relays change notifications from the database to live queries
// until ctx is done. Lost connections are re-established after a delay;
// every reconnect re-runs all live queries to catch up on missed changes.
func (s *Store) Listen(ctx context.Context) error {
	if s.pool == nil {
		<-ctx.Done()
		return nil
	}

	for {
		err := s.listenOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		s.log.WarnContext(ctx, "change listener stopped, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("retry_in", s.listenRetry),
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.listenRetry):
		}
	}
}

func (s *Store) listenOnce(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return fmt.Errorf("listen %s: %w", notifyChannel, err)
	}
	s.log.DebugContext(ctx, "listening for document changes")
	s.live.NotifyAll()

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		s.live.Notify(n.Payload)
	}
}
