package run

import "speedruntimer/timespan"

// Attempt is one row of attempt_history: the index, the attempt's final
// Time, when it started/ended (if known), and how much of it was paused.
type Attempt struct {
	Index      int32
	Time       timespan.Time
	Started    *timespan.AtomicDateTime
	Ended      *timespan.AtomicDateTime
	PauseTime  *timespan.Span
}
