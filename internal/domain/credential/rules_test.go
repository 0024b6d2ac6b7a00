package credential

import (
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestDurationMonths(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		start string
		end   *string
		want  int
	}{
		{"six months", "2023-01-15", strPtr("2023-07-15"), 6},
		{"same month", "2023-01-15", strPtr("2023-01-20"), 0},
		{"year boundary", "2022-11-01", strPtr("2023-02-01"), 3},
		{"open ended uses now", "2023-01-15", nil, 14},
		{"open ended empty string", "2023-01-15", strPtr(""), 14},
		{"future start floors at zero", "2025-06-01", nil, 0},
		{"end before start floors at zero", "2023-07-15", strPtr("2023-01-15"), 0},
		{"malformed start", "not-a-date", strPtr("2023-07-15"), 0},
		{"malformed end", "2023-01-15", strPtr("garbage"), 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DurationMonths(tc.start, tc.end, now)
			if got != tc.want {
				t.Fatalf("DurationMonths(%q, %v) = %d, want %d", tc.start, tc.end, got, tc.want)
			}
		})
	}
}

func TestVelocitySuspiciousStrictThreshold(t *testing.T) {
	if VelocitySuspicious(10, 10) {
		t.Fatal("exactly 10 in window must not be suspicious")
	}
	if !VelocitySuspicious(11, 10) {
		t.Fatal("11 in window must be suspicious")
	}
	if VelocitySuspicious(0, 10) {
		t.Fatal("zero volume must not be suspicious")
	}
}

func TestShouldFlagIsPureOR(t *testing.T) {
	clean := RiskVerdict{Suspicious: false, Confidence: 90, Reason: "looks normal", RiskLevel: RiskLevelLow}
	bad := RiskVerdict{Suspicious: true, Confidence: 90, Reason: "fabricated role", RiskLevel: RiskLevelHigh}

	cases := []struct {
		name          string
		verdict       RiskVerdict
		velocity      bool
		chainVerified bool
		want          bool
	}{
		{"all clean", clean, false, true, false},
		{"oracle alone", bad, false, true, true},
		{"velocity alone", clean, true, true, true},
		{"chain alone", clean, false, false, true},
		{"everything bad", bad, true, false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ShouldFlag(tc.verdict, tc.velocity, tc.chainVerified)
			if got != tc.want {
				t.Fatalf("ShouldFlag = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestReputationDeltaFollowsOracleOnly(t *testing.T) {
	// Oracle clean but the credential will be flagged for another
	// reason; the delta must still be the clean one.
	if got := ReputationDelta(false, 5, -10); got != 5 {
		t.Fatalf("clean delta = %d, want 5", got)
	}
	if got := ReputationDelta(true, 5, -10); got != -10 {
		t.Fatalf("flagged delta = %d, want -10", got)
	}
}

func TestComposeFlagReason(t *testing.T) {
	verdict := RiskVerdict{Reason: "duration inconsistent with role"}

	got := ComposeFlagReason(verdict, "", true)
	if got != "AI: duration inconsistent with role." {
		t.Fatalf("unexpected reason: %q", got)
	}

	got = ComposeFlagReason(verdict, VelocityReason(12), false)
	want := "AI: duration inconsistent with role. Issued 12 credentials in 24h Credential hash not found on-chain"
	if got != want {
		t.Fatalf("reason = %q, want %q", got, want)
	}
}

func TestNormalizeAddress(t *testing.T) {
	if got := NormalizeAddress("  0xAbCdEF0123 "); got != "0xabcdef0123" {
		t.Fatalf("NormalizeAddress = %q", got)
	}
}

func TestParseHash(t *testing.T) {
	valid := "0x" + "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	if _, err := ParseHash(valid); err != nil {
		t.Fatalf("valid hash rejected: %v", err)
	}

	if _, err := ParseHash("0x1234"); err == nil {
		t.Fatal("short hash accepted")
	}
	if _, err := ParseHash("not hex at all"); err == nil {
		t.Fatal("non-hex hash accepted")
	}
}
