package oracle

import (
	"fmt"
	"strings"

	"workpassport/internal/domain/verification"
	"workpassport/internal/ports"
)

// Company prompt policy values accepted in configuration.
const (
	CompanyPolicyStrict  = "strict"
	CompanyPolicyLenient = "lenient"
)

const credentialSystemPrompt = `You are a fraud detection specialist for employment credentials. Judge whether a claimed employment record is internally consistent and plausible.`

const companyStrictSystemPrompt = `You are a company verification specialist. Be strict - only approve legitimate businesses. Reject anything suspicious.`

const companyLenientSystemPrompt = `You are a company verification specialist. Approve submissions unless they are obviously fake or placeholder data; give new employers the benefit of the doubt.`

func companySystemPrompt(policy string) string {
	if policy == CompanyPolicyLenient {
		return companyLenientSystemPrompt
	}
	return companyStrictSystemPrompt
}

// credentialPrompt is the deterministic projection of a credential into
// the classifier input: company, position, comma-joined skills, and the
// whole-month duration.
func credentialPrompt(in ports.CredentialAnalysis) string {
	return fmt.Sprintf(`Analyze this employment credential for fraud indicators:

Company: %s
Position: %s
Skills: %s
Duration: %d months

Consider:
1. Is the position plausible for the company?
2. Do the skills match the position?
3. Is the duration consistent with the claimed role?
4. Does the company name look like a placeholder (test, fake, example)?

Respond with JSON:
{
  "suspicious": boolean,
  "confidence": number (0-100),
  "reason": "brief explanation",
  "riskLevel": "low" | "medium" | "high"
}`, in.Company, in.Position, strings.Join(in.Skills, ", "), in.DurationMonths)
}

func companyPrompt(req verification.Request) string {
	return fmt.Sprintf(`Analyze this company verification request:

Company Name: %s
Website: %s
LinkedIn: %s
Business Registration: %s

Verify if this is a LEGITIMATE company:

1. Does the company name sound realistic and professional?
2. Is the website URL format valid and professional (.com, .co.ke, etc.)?
3. Does the domain match the company name?
4. Are there obvious red flags (test, fake, example, etc.)?
5. Does the LinkedIn URL format look legitimate?

RED FLAGS:
- Generic names like "Test Company", "My Company", "ABC Corp"
- Suspicious domains (localhost, example.com, test.com)
- Mismatched company name and domain
- Obviously fake or placeholder information

APPROVE only if this looks like a REAL, LEGITIMATE business.
REJECT if there are any red flags or suspicious patterns.

Respond with JSON:
{
  "verified": boolean,
  "confidence": number (0-100),
  "reason": "brief explanation",
  "riskFactors": ["factor1", "factor2"]
}`, req.CompanyName, req.Website, orNotProvided(req.LinkedinURL), orNotProvided(req.BusinessRegistration))
}

func orNotProvided(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "Not provided"
	}
	return *s
}
