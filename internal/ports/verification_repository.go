package ports

import (
	"context"
	"errors"
	"time"

	"workpassport/internal/domain/verification"
)

var ErrVerificationNotFound = errors.New("verification request not found")

// VerificationRepository is the verifier agent's view of company
// verification submissions.
type VerificationRepository interface {
	// Create stores a new pending submission and returns it with the
	// store-assigned id.
	Create(ctx context.Context, req verification.Request) (verification.Request, error)

	// Get returns one request by id.
	Get(ctx context.Context, id uint64) (verification.Request, error)

	// ListPending returns all pending requests in created_at order.
	ListPending(ctx context.Context) ([]verification.Request, error)

	// MarkVerified transitions a pending request to verified. A
	// non-pending request is left untouched and reported via
	// verification.ErrTerminalStatus.
	MarkVerified(ctx context.Context, id uint64, at time.Time) error

	// MarkRejected transitions a pending request to rejected with a
	// reason, under the same terminal-state rule.
	MarkRejected(ctx context.Context, id uint64, reason string) error
}
