package verification

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		current Status
		target  Status
		want    bool
	}{
		{"pending to verified", StatusPending, StatusVerified, true},
		{"pending to rejected", StatusPending, StatusRejected, true},
		{"pending to pending", StatusPending, StatusPending, false},
		{"verified is terminal", StatusVerified, StatusRejected, false},
		{"rejected is terminal", StatusRejected, StatusVerified, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanTransition(tc.current, tc.target); got != tc.want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.current, tc.target, got, tc.want)
			}
		})
	}
}
