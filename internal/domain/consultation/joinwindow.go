package consultation

import (
	"fmt"
	"time"
)

// Join window relative to the scheduled time. The window opens 15 minutes
// before the appointment and closes 2 hours after it, both ends inclusive.
const (
	JoinOpensBefore = 15 * time.Minute
	JoinClosesAfter = 120 * time.Minute
)

// JoinState describes whether the video session can be joined right now.
type JoinState string

const (
	JoinNotYetOpen  JoinState = "not_yet_open"
	JoinOpen        JoinState = "open"
	JoinEnded       JoinState = "ended"
	JoinUnavailable JoinState = "unavailable"
)

// EvaluateJoin returns the join state for a consultation scheduled at the
// given time, evaluated at now. A nil scheduled time yields JoinUnavailable.
func EvaluateJoin(scheduled *time.Time, now time.Time) JoinState {
	if scheduled == nil {
		return JoinUnavailable
	}
	opens := scheduled.Add(-JoinOpensBefore)
	closes := scheduled.Add(JoinClosesAfter)
	switch {
	case now.Before(opens):
		return JoinNotYetOpen
	case now.After(closes):
		return JoinEnded
	default:
		return JoinOpen
	}
}

// JoinStatusMessage returns the human-readable string clients render next to
// the join control. It is derived from the same boundaries as EvaluateJoin.
func JoinStatusMessage(scheduled *time.Time, now time.Time) string {
	switch EvaluateJoin(scheduled, now) {
	case JoinNotYetOpen:
		opens := scheduled.Add(-JoinOpensBefore)
		return fmt.Sprintf("Join available from %s", opens.Format("3:04 PM"))
	case JoinOpen:
		return "Ready to join"
	case JoinEnded:
		return "Session ended"
	default:
		return "Not scheduled"
	}
}
