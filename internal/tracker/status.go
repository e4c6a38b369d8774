package tracker

import "time"

const (
	DefaultProcessingAfter = 3 * time.Second
	DefaultTimeout         = 90 * time.Second
)

// Rules are the time thresholds driving a pending job through its lifecycle.
type Rules struct {
	ProcessingAfter time.Duration `json:"processing-after" validate:"positive_duration"`
	Timeout         time.Duration `json:"timeout" validate:"positive_duration,gtfield=ProcessingAfter"`
}

func DefaultRules() Rules {
	return Rules{
		ProcessingAfter: DefaultProcessingAfter,
		Timeout:         DefaultTimeout,
	}
}

// NextStatus computes the status of an unmatched job given the time elapsed
// since its submission:
//
//	queued     --(elapsed >= ProcessingAfter)--> processing
//	queued|processing --(elapsed > Timeout)--> timed-out
//
// Terminal statuses are returned unchanged and processing never goes back to queued.
func NextStatus(current Status, elapsed time.Duration, r Rules) Status {
	switch current {
	case StatusQueued, StatusProcessing:
	default:
		return current
	}

	if elapsed > r.Timeout {
		return StatusTimedOut
	}
	if current == StatusQueued && elapsed >= r.ProcessingAfter {
		return StatusProcessing
	}
	return current
}
