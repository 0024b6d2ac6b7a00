package ports

import (
	"context"

	"workpassport/internal/domain/credential"
	"workpassport/internal/domain/verification"
)

// CredentialAnalysis is the deterministic field projection sent to the
// fraud classifier for one credential.
type CredentialAnalysis struct {
	Company        string
	Position       string
	Skills         []string
	DurationMonths int
}

// CredentialOracle scores one credential for fraud risk. Adapters
// return an error on any transport or schema failure; the fail-open
// default verdict is the caller's policy, not the adapter's.
type CredentialOracle interface {
	AnalyzeCredential(ctx context.Context, in CredentialAnalysis) (credential.RiskVerdict, error)
}

// CompanyOracle scores one company verification submission for
// legitimacy under the same error contract.
type CompanyOracle interface {
	AnalyzeCompany(ctx context.Context, req verification.Request) (verification.Verdict, error)
}
