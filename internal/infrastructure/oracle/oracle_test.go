package oracle

import (
	"strings"
	"testing"

	"workpassport/internal/domain/verification"
	"workpassport/internal/ports"
)

func TestCredentialPromptProjection(t *testing.T) {
	in := ports.CredentialAnalysis{
		Company:        "Acme Robotics",
		Position:       "Firmware Engineer",
		Skills:         []string{"C", "Rust", "RTOS"},
		DurationMonths: 18,
	}

	prompt := credentialPrompt(in)

	for _, want := range []string{
		"Company: Acme Robotics",
		"Position: Firmware Engineer",
		"Skills: C, Rust, RTOS",
		"Duration: 18 months",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}

	// Same input, same prompt.
	if prompt != credentialPrompt(in) {
		t.Fatal("credential prompt is not deterministic")
	}
}

func TestCompanyPromptOptionalFields(t *testing.T) {
	linkedin := "https://linkedin.com/company/acme"
	req := verification.Request{
		CompanyName: "Acme Robotics",
		Website:     "https://acme-robotics.com",
		LinkedinURL: &linkedin,
	}

	prompt := companyPrompt(req)
	if !strings.Contains(prompt, "LinkedIn: https://linkedin.com/company/acme") {
		t.Fatalf("prompt missing linkedin url:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Business Registration: Not provided") {
		t.Fatalf("prompt missing registration placeholder:\n%s", prompt)
	}
}

func TestCompanySystemPromptPolicyToggle(t *testing.T) {
	strict := companySystemPrompt(CompanyPolicyStrict)
	lenient := companySystemPrompt(CompanyPolicyLenient)

	if strict == lenient {
		t.Fatal("policy toggle produced identical system prompts")
	}
	if !strings.Contains(strict, "strict") {
		t.Fatalf("strict prompt lost its stance: %q", strict)
	}
	if !strings.Contains(lenient, "benefit of the doubt") {
		t.Fatalf("lenient prompt lost its stance: %q", lenient)
	}
	// Unknown values keep the strict stance.
	if companySystemPrompt("") != strict {
		t.Fatal("empty policy should default to strict")
	}
}

func TestParseRiskVerdict(t *testing.T) {
	verdict, err := parseRiskVerdict(`{"suspicious": true, "confidence": 87, "reason": "company is a known placeholder", "riskLevel": "high"}`)
	if err != nil {
		t.Fatalf("parse valid verdict: %v", err)
	}
	if !verdict.Suspicious || verdict.Confidence != 87 || verdict.RiskLevel != "high" {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}

	cases := []struct {
		name    string
		content string
	}{
		{"not json", "the credential looks fine to me"},
		{"missing suspicious", `{"confidence": 10, "reason": "x", "riskLevel": "low"}`},
		{"missing confidence", `{"suspicious": false, "reason": "x", "riskLevel": "low"}`},
		{"confidence out of range", `{"suspicious": false, "confidence": 180, "reason": "x", "riskLevel": "low"}`},
		{"invalid risk level", `{"suspicious": false, "confidence": 10, "reason": "x", "riskLevel": "critical"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseRiskVerdict(tc.content); err == nil {
				t.Fatalf("expected error for %q", tc.content)
			}
		})
	}
}

func TestParseCompanyVerdict(t *testing.T) {
	verdict, err := parseCompanyVerdict(`{"verified": false, "confidence": 95, "reason": "test domain", "riskFactors": ["example.com website"]}`)
	if err != nil {
		t.Fatalf("parse valid verdict: %v", err)
	}
	if verdict.Verified || verdict.Confidence != 95 || len(verdict.RiskFactors) != 1 {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}

	if _, err := parseCompanyVerdict(`{"confidence": 95, "reason": "x"}`); err == nil {
		t.Fatal("expected error when verified is missing")
	}
}
