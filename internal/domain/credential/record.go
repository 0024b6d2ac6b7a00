package credential

import "time"

// RiskLevel is the oracle's severity classification for a credential.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "low"
	RiskLevelMedium RiskLevel = "medium"
	RiskLevelHigh   RiskLevel = "high"
)

func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh:
		return true
	}
	return false
}

// Record is one employment attestation as stored by the issuance flow.
// The monitor only ever mutates the flag fields.
type Record struct {
	ID            uint64
	WorkerAddress string
	IssuerAddress string
	Position      string
	Company       string
	StartDate     string
	EndDate       *string
	Skills        []string
	CreatedAt     time.Time
	Hash          string
	Signature     string
	SignedMessage string
	Flagged       bool
	FlagReason    *string
	FlaggedAt     *time.Time
	RiskLevel     *RiskLevel
}

// RiskVerdict is the structured output of the fraud classifier.
type RiskVerdict struct {
	Suspicious bool
	Confidence int
	Reason     string
	RiskLevel  RiskLevel
}

// EmployerReputation is the per-issuer running score, keyed by
// lowercased issuer address.
type EmployerReputation struct {
	EmployerAddress string
	Score           int64
	TotalIssued     int64
	FlaggedCount    int64
	UpdatedAt       time.Time
}
