package verification

import "errors"

// ErrTerminalStatus is returned when a transition is attempted on a
// request that already left the pending state. Non-pending states are
// terminal; a re-submission creates a new request instead.
var ErrTerminalStatus = errors.New("verification request is not pending")

// CanTransition reports whether a request may move to the target
// status. The only legal transitions are pending→verified and
// pending→rejected.
func CanTransition(current, target Status) bool {
	if current != StatusPending {
		return false
	}
	return target == StatusVerified || target == StatusRejected
}
