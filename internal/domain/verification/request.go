package verification

import "time"

// Status is the lifecycle state of a company verification request.
// pending is the only non-terminal state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Request is one company legitimacy submission from an employer.
type Request struct {
	ID                   uint64
	EmployerAddress      string
	CompanyName          string
	Website              string
	LinkedinURL          *string
	BusinessRegistration *string
	Status               Status
	VerifiedAt           *time.Time
	RejectionReason      *string
	CreatedAt            time.Time
}

// Verdict is the structured output of the legitimacy classifier.
type Verdict struct {
	Verified    bool
	Confidence  int
	Reason      string
	RiskFactors []string
}
