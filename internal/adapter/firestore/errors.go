package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

// mapError converts gRPC status errors from Firestore to store and domain
// errors. Context errors pass through.
func mapError(err error, collection, id string) error {
	if err == nil {
		return nil
	}

	ref := collection
	if id != "" {
		ref = collection + "/" + id
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", ref, err)
	}

	switch status.Code(err) {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", ref, docstore.ErrNotFound)
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w", ref, domain.ErrAlreadyExists)
	case codes.FailedPrecondition:
		// Firestore reports a missing composite index this way; the message
		// carries the link to create it.
		return fmt.Errorf("%s: %w: %s", ref, docstore.ErrMissingIndex, status.Convert(err).Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w: %s", ref, domain.ErrValidation, status.Convert(err).Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%s: %w", ref, domain.ErrForbidden)
	case codes.Unauthenticated:
		return fmt.Errorf("%s: %w", ref, domain.ErrUnauthorized)
	case codes.Canceled:
		return fmt.Errorf("%s: %w", ref, context.Canceled)
	case codes.DeadlineExceeded:
		return fmt.Errorf("%s: %w", ref, context.DeadlineExceeded)
	}

	return fmt.Errorf("%s: %w", ref, err)
}
