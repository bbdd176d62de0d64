package timer

import (
	"speedruntimer/run"
	"speedruntimer/timespan"
)

// activeAttempt holds everything that only exists while a run is being
// timed. Exactly one of notEnded/ended is set, mirroring
// the original's two-variant ActiveAttempt::State.
type activeAttempt struct {
	attemptStarted timespan.AtomicDateTime
	startTime      timespan.TimeStamp
	originalOffset timespan.Span
	adjustedOffset timespan.Span

	gameTimePausedAt *timespan.Span
	loadingTimes     *timespan.Span

	notEnded *notEndedState
	ended    *endedState
}

type notEndedState struct {
	currentSplitIndex int
	timePausedAt      *timespan.Span
}

type endedState struct {
	attemptEnded timespan.AtomicDateTime
}

// Phase is the externally observable derived state.
type Phase int

const (
	NotRunning Phase = iota
	Running
	PhasePaused
	Ended
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "Running"
	case PhasePaused:
		return "Paused"
	case Ended:
		return "Ended"
	default:
		return "NotRunning"
	}
}

func (a *activeAttempt) phase() Phase {
	if a == nil {
		return NotRunning
	}
	if a.ended != nil {
		return Ended
	}
	if a.notEnded.timePausedAt != nil {
		return PhasePaused
	}
	return Running
}

// currentSplitIndexOverflowing returns the split index even when it has
// advanced past the last segment (Ended state behaves as len(segments)).
func (a *activeAttempt) currentSplitIndexOverflowing(r *run.Run) int {
	if a.notEnded != nil {
		return a.notEnded.currentSplitIndex
	}
	return len(r.Segments)
}

// currentSplitIndex returns nil once the attempt has ended.
func (a *activeAttempt) currentSplitIndex() *int {
	if a.notEnded == nil {
		return nil
	}
	return &a.notEnded.currentSplitIndex
}

// currentTime computes the current (real_time, game_time) pair.
func (a *activeAttempt) currentTime(r *run.Run) timespan.Time {
	var real timespan.Span
	switch {
	case a.ended != nil:
		last := r.Segments[len(r.Segments)-1]
		if v, ok := last.SplitTime.Get(timespan.RealTime); ok {
			real = v
		}
	case a.notEnded.timePausedAt != nil:
		real = *a.notEnded.timePausedAt
	default:
		real = timespan.Now().Sub(a.startTime).Add(a.adjustedOffset)
	}

	if a.ended != nil || a.notEnded == nil {
		last := r.Segments[len(r.Segments)-1]
		if v, ok := last.SplitTime.Get(timespan.GameTime); ok {
			return timespan.NewTime(real, v)
		}
		return timespan.RealTimeOnly(real)
	}
	if a.gameTimePausedAt != nil {
		return timespan.NewTime(real, *a.gameTimePausedAt)
	}
	if a.loadingTimes != nil {
		return timespan.NewTime(real, real.Sub(*a.loadingTimes))
	}
	return timespan.RealTimeOnly(real)
}

// getPauseTime returns the cumulative time the attempt has spent paused so
// far. originalOffset - adjustedOffset tracks every completed pause/resume
// cycle; while currently paused, the ongoing pause duration (how long the
// real-time clock has been frozen at timePausedAt) is added on top.
func (a *activeAttempt) getPauseTime() timespan.Span {
	completed := a.originalOffset.Sub(a.adjustedOffset)
	if a.notEnded == nil || a.notEnded.timePausedAt == nil {
		return completed
	}
	wouldBeRunning := timespan.Now().Sub(a.startTime).Add(a.adjustedOffset)
	ongoing := wouldBeRunning.Sub(*a.notEnded.timePausedAt)
	return completed.Add(ongoing)
}

func (a *activeAttempt) setLoadingTimes(t timespan.Span, r *run.Run) {
	current, _ := a.currentTime(r).Get(timespan.RealTime)
	diff := current.Sub(t)
	a.loadingTimes = &diff
}
