package ports

import (
	"context"
	"time"
)

// Audit action kinds recorded by the agents.
const (
	ActionFlagCredential = "flag_credential"
	ActionApproveCompany = "approve_company"
	ActionRejectCompany  = "reject_company"
)

// ActionEntry is one append-only audit record.
type ActionEntry struct {
	Action    string
	SubjectID uint64
	Details   string
	Timestamp time.Time
}

// ActionLog is the append-only audit sink. Entries are never mutated
// or deleted.
type ActionLog interface {
	Append(ctx context.Context, entry ActionEntry) error
	ListBySubject(ctx context.Context, subjectID uint64) ([]ActionEntry, error)
}
