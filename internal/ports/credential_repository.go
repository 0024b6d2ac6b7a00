package ports

import (
	"context"
	"errors"
	"time"

	"workpassport/internal/domain/credential"
)

var ErrCredentialNotFound = errors.New("credential not found")

// CredentialRepository is the monitor's view of the credential store.
// The issuance flow (an external collaborator) writes rows through
// Create; the monitor reads incrementally and mutates flag fields only.
type CredentialRepository interface {
	// Create stores a new attestation and returns it with the
	// store-assigned id.
	Create(ctx context.Context, rec credential.Record) (credential.Record, error)

	// Get returns one credential by id.
	Get(ctx context.Context, id uint64) (credential.Record, error)

	// ListAfterID returns credentials with id strictly greater than
	// afterID, ascending, at most limit rows (0 = no limit).
	ListAfterID(ctx context.Context, afterID uint64, limit int) ([]credential.Record, error)

	// MaxID returns the highest assigned credential id, 0 when empty.
	MaxID(ctx context.Context) (uint64, error)

	// CountByIssuerSince counts credentials created after the cutoff
	// whose issuer address matches case-insensitively.
	CountByIssuerSince(ctx context.Context, issuerAddress string, cutoff time.Time) (int64, error)

	// MarkFlagged sets the flag fields on an unflagged credential.
	// Already-flagged rows are left untouched; there is no unflag.
	MarkFlagged(ctx context.Context, id uint64, reason string, level credential.RiskLevel, flaggedAt time.Time) error
}

// ReputationRepository accumulates the per-issuer running score.
type ReputationRepository interface {
	// Accumulate applies one credential's contribution on top of the
	// issuer's existing row, creating it on first sight. Counters are
	// incremented, the score delta is added, never overwritten.
	Accumulate(ctx context.Context, employerAddress string, scoreDelta int, oracleSuspicious bool, at time.Time) error

	// Get returns the issuer's current reputation row.
	Get(ctx context.Context, employerAddress string) (credential.EmployerReputation, error)
}

var ErrReputationNotFound = errors.New("employer reputation not found")
