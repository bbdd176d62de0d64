package timer

import "speedruntimer/timespan"

// CommandSink is the abstraction every timing command is issued through:
// the auto-splitter runtime, a network-backed remote control surface, and
// direct callers all dispatch through the same interface// "Concurrency"). Every method resolves synchronously for an in-process
// Timer; the interface exists so a future-based or network-backed sink can
// implement the same shape without the in-process caller needing to
// change.
type CommandSink interface {
	Start() (Event, error)
	Split() (Event, error)
	SplitOrStart() (Event, error)
	SkipSplit() (Event, error)
	UndoSplit() (Event, error)
	Pause() (Event, error)
	Resume() (Event, error)
	TogglePause() (Event, error)
	TogglePauseOrStart() (Event, error)
	UndoAllPauses() (Event, error)
	Reset(save bool) (Event, error)
	ResetAndSetAttemptAsPB() (Event, error)
	SwitchToPreviousComparison() (Event, error)
	SwitchToNextComparison() (Event, error)
	SetCurrentComparison(name string) (Event, error)
	SetCurrentTimingMethod(m timespan.Method) (Event, error)
	ToggleTimingMethod() (Event, error)
	InitializeGameTime() (Event, error)
	SetGameTime(gameTime timespan.Span) (Event, error)
	PauseGameTime() (Event, error)
	ResumeGameTime() (Event, error)
	SetLoadingTimes(loading timespan.Span) (Event, error)
	SetCustomVariable(name, value string) (Event, error)
}

var _ CommandSink = (*Timer)(nil)
