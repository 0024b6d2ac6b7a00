package credential

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var ErrInvalidHash = errors.New("credential hash is not 32-byte hex")

// NormalizeAddress lowercases a chain account address so issuers compare
// and key consistently regardless of checksum casing.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// DurationMonths returns the employment duration in whole calendar
// months, floored at zero. A nil end date means "present" and is
// evaluated against now. Malformed dates count as zero months.
func DurationMonths(startDate string, endDate *string, now time.Time) int {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return 0
	}

	end := now
	if endDate != nil && *endDate != "" {
		parsed, err := time.Parse(dateLayout, *endDate)
		if err != nil {
			return 0
		}
		end = parsed
	}

	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if months < 0 {
		return 0
	}
	return months
}

// VelocitySuspicious reports whether an issuer's trailing-window volume
// crosses the threshold. The comparison is strictly greater-than:
// exactly threshold credentials is still normal activity.
func VelocitySuspicious(recentCount int64, threshold int) bool {
	return recentCount > int64(threshold)
}

// VelocityReason renders the volume finding for flag reasons and logs.
func VelocityReason(recentCount int64) string {
	return fmt.Sprintf("Issued %d credentials in 24h", recentCount)
}

// ShouldFlag combines the three independent signals. Any single red
// flag is sufficient; there is no weighting between them.
func ShouldFlag(verdict RiskVerdict, velocitySuspicious bool, chainVerified bool) bool {
	return verdict.Suspicious || velocitySuspicious || !chainVerified
}

// ComposeFlagReason builds the human-readable reason persisted with a
// flag, naming every signal that fired.
func ComposeFlagReason(verdict RiskVerdict, velocityReason string, chainVerified bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "AI: %s.", verdict.Reason)
	if velocityReason != "" {
		b.WriteString(" ")
		b.WriteString(velocityReason)
	}
	if !chainVerified {
		b.WriteString(" Credential hash not found on-chain")
	}
	return b.String()
}

// ReputationDelta returns the score adjustment for one processed
// credential. The delta follows the oracle's own suspicion verdict
// only, not the combined flag decision.
func ReputationDelta(oracleSuspicious bool, cleanDelta, flaggedDelta int) int {
	if oracleSuspicious {
		return flaggedDelta
	}
	return cleanDelta
}

// ParseHash decodes a 0x-prefixed hex credential hash into its
// canonical 32-byte form for exact on-chain comparison.
func ParseHash(s string) ([32]byte, error) {
	var out [32]byte

	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != 32 {
		return out, ErrInvalidHash
	}

	copy(out[:], raw)
	return out, nil
}
