// Package timer implements the active-attempt state machine// §4.1): it owns a run.Run, enforces the legality of every timing command,
// and emits a typed Event on success or a typed Error on failure.
package timer // import "speedruntimer/timer"

import "fmt"

// Event is the stable-encoded outcome of a successful Timer command. The
// integer values are part of the external interface and must not be
// reordered.
type Event int

const (
	Started Event = iota
	Splitted
	Finished
	Reset
	SplitUndone
	SplitSkipped
	Paused
	Resumed
	PausesUndone
	PausesUndoneAndResumed
	ComparisonChanged
	TimingMethodChanged
	GameTimeInitialized
	GameTimeSet
	GameTimePaused
	GameTimeResumed
	LoadingTimesSet
	CustomVariableSet
)

var eventNames = [...]string{
	"Started", "Splitted", "Finished", "Reset", "SplitUndone", "SplitSkipped",
	"Paused", "Resumed", "PausesUndone", "PausesUndoneAndResumed",
	"ComparisonChanged", "TimingMethodChanged", "GameTimeInitialized",
	"GameTimeSet", "GameTimePaused", "GameTimeResumed", "LoadingTimesSet",
	"CustomVariableSet",
}

func (e Event) String() string {
	if int(e) < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("Event(%d)", int(e))
	}
	return eventNames[e]
}

// Error is the stable-encoded failure reason for a Timer command. Values
// implement the error interface directly, the same way the original
// represents its total, enumerated failure set.
type Error int

const (
	ErrUnsupported Error = iota
	ErrBusy
	ErrRunAlreadyInProgress
	ErrNoRunInProgress
	ErrRunFinished
	ErrNegativeTime
	ErrCantSkipLastSplit
	ErrCantUndoFirstSplit
	ErrAlreadyPaused
	ErrNotPaused
	ErrComparisonDoesntExist
	ErrGameTimeAlreadyInitialized
	ErrGameTimeAlreadyPaused
	ErrGameTimeNotPaused
	ErrCouldNotParseTime
	ErrTimerPaused
	ErrRunnerDecidedAgainstReset
	ErrUnknown = 255
)

var errorMessages = map[Error]string{
	ErrUnsupported:                "operation not supported",
	ErrBusy:                       "timer is busy",
	ErrRunAlreadyInProgress:       "a run is already in progress",
	ErrNoRunInProgress:            "no run in progress",
	ErrRunFinished:                "the run has already finished",
	ErrNegativeTime:               "negative time is not allowed",
	ErrCantSkipLastSplit:          "can't skip the last split",
	ErrCantUndoFirstSplit:         "can't undo the first split",
	ErrAlreadyPaused:              "already paused",
	ErrNotPaused:                  "not paused",
	ErrComparisonDoesntExist:      "comparison doesn't exist",
	ErrGameTimeAlreadyInitialized: "game time already initialized",
	ErrGameTimeAlreadyPaused:      "game time already paused",
	ErrGameTimeNotPaused:          "game time not paused",
	ErrCouldNotParseTime:          "could not parse time",
	ErrTimerPaused:                "timer is paused",
	ErrRunnerDecidedAgainstReset:  "runner decided against reset",
	ErrUnknown:                    "unknown error",
}

func (e Error) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}
	return errorMessages[ErrUnknown]
}
