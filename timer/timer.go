package timer

import (
	"fmt"
	"sync"

	"fortio.org/log"

	"speedruntimer/comparison"
	"speedruntimer/run"
	"speedruntimer/timespan"
)

// Timer owns the active-attempt state machine for a single Run. Every
// exported method is safe to call from multiple goroutines: an internal
// RWMutex serializes writers and lets observers take cheap read locks for
// snapshots.
type Timer struct {
	mu sync.RWMutex

	run                 *run.Run
	currentComparison   string
	currentTimingMethod timespan.Method
	active              *activeAttempt

	log *EventLog
}

// New creates a Timer for r. r must have at least one segment; New fixes
// up splits and regenerates comparisons before returning, matching the
// original constructor's eager normalization.
func New(r *run.Run) (*Timer, error) {
	if r == nil || len(r.Segments) == 0 {
		return nil, fmt.Errorf("timer: run must have at least one segment")
	}
	r.FixSplits()
	comparison.Regenerate(r)
	return &Timer{
		run:                 r,
		currentComparison:   run.PersonalBestComparisonName,
		currentTimingMethod: timespan.RealTime,
		log:                 NewEventLog(256),
	}, nil
}

// Run returns the Run currently in use. Callers must hold (at least) a
// read lock obtained via RLock/RUnlock if they intend to read it
// concurrently with Timer mutations; in practice the caller usually holds
// the Timer's own lock already (see Snapshot).
func (t *Timer) Run() *run.Run { return t.run }

// CurrentPhase returns the externally observable phase.
func (t *Timer) CurrentPhase() Phase {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active.phase()
}

// Snapshot is a frozen view of the timer's current time, taken under a
// read lock so it can't be torn by a concurrent write.
type Snapshot struct {
	Time timespan.Time
}

// TakeSnapshot captures the current time under a read lock.
func (t *Timer) TakeSnapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.active == nil {
		return Snapshot{Time: timespan.NewTime(t.run.Offset, t.run.Offset)}
	}
	return Snapshot{Time: t.active.currentTime(t.run)}
}

// CurrentComparison returns the comparison currently selected.
func (t *Timer) CurrentComparison() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentComparison
}

// CurrentTimingMethod returns the timing method currently selected.
func (t *Timer) CurrentTimingMethod() timespan.Method {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentTimingMethod
}

// CurrentSplitIndex returns the index of the segment the attempt is
// currently on, or -1 if there is no attempt in progress.
func (t *Timer) CurrentSplitIndex() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.active == nil {
		return -1
	}
	return t.active.currentSplitIndexOverflowing(t.run)
}

// CurrentSplit returns the segment the attempt is currently on, or nil.
func (t *Timer) CurrentSplit() *run.Segment {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.active == nil {
		return nil
	}
	idx := t.active.currentSplitIndex()
	if idx == nil || *idx >= len(t.run.Segments) {
		return nil
	}
	return t.run.Segments[*idx]
}

func (t *Timer) emit(e Event) (Event, error) {
	t.log.Record(e)
	log.LogVf("timer: %v", e)
	return e, nil
}

// Start begins a new attempt if none is in progress.
func (t *Timer) Start() (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != nil {
		return 0, ErrRunAlreadyInProgress
	}
	t.active = &activeAttempt{
		attemptStarted: timespan.NowWall(false),
		startTime:      timespan.Now(),
		originalOffset: t.run.Offset,
		adjustedOffset: t.run.Offset,
		notEnded:       &notEndedState{currentSplitIndex: 0},
	}
	t.run.AttemptCount++
	t.run.ModifiedSinceSave = true
	return t.emit(Started)
}

// Split stores the current time as the current split's time. The attempt
// ends if this was the last split.
func (t *Timer) Split() (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0, ErrNoRunInProgress
	}
	idx := t.active.currentSplitIndex()
	if idx == nil {
		return 0, ErrRunFinished
	}
	if t.active.notEnded.timePausedAt != nil {
		return 0, ErrTimerPaused
	}
	current := t.active.currentTime(t.run)
	if real, ok := current.Get(timespan.RealTime); ok && real.IsNegative() {
		return 0, ErrNegativeTime
	}

	segment := t.run.Segments[*idx]
	segment.SplitTime = current
	segment.Variables = t.run.Metadata.PermanentVariables()

	*idx++
	t.run.ModifiedSinceSave = true

	if *idx == len(t.run.Segments) {
		t.active.ended = &endedState{attemptEnded: timespan.NowWall(false)}
		t.active.notEnded = nil
		return t.emit(Finished)
	}
	return t.emit(Splitted)
}

// SplitOrStart starts a new attempt if none is in progress, otherwise
// splits.
func (t *Timer) SplitOrStart() (Event, error) {
	t.mu.RLock()
	inProgress := t.active != nil
	t.mu.RUnlock()
	if inProgress {
		return t.Split()
	}
	return t.Start()
}

// SkipSplit clears the current split's recorded time and advances to the
// next one, unless it is the last split.
func (t *Timer) SkipSplit() (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0, ErrNoRunInProgress
	}
	idx := t.active.currentSplitIndex()
	if idx == nil {
		return 0, ErrRunFinished
	}
	if *idx+1 >= len(t.run.Segments) {
		return 0, ErrCantSkipLastSplit
	}
	t.run.Segments[*idx].ClearSplit()
	*idx++
	t.run.ModifiedSinceSave = true
	return t.emit(SplitSkipped)
}

// UndoSplit steps back to the previous split, clearing its recorded time.
// It also reverts an Ended attempt back to Running.
func (t *Timer) UndoSplit() (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0, ErrNoRunInProgress
	}
	overflowing := t.active.currentSplitIndexOverflowing(t.run)
	if overflowing == 0 {
		return 0, ErrCantUndoFirstSplit
	}
	prev := overflowing - 1

	var pausedAt *timespan.Span
	if t.active.notEnded != nil {
		pausedAt = t.active.notEnded.timePausedAt
	}
	t.active.notEnded = &notEndedState{currentSplitIndex: prev, timePausedAt: pausedAt}
	t.active.ended = nil

	t.run.Segments[prev].ClearSplit()
	t.run.ModifiedSinceSave = true
	return t.emit(SplitUndone)
}

// Pause pauses a running (not already paused) attempt.
func (t *Timer) Pause() (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0, ErrNoRunInProgress
	}
	if t.active.notEnded == nil {
		return 0, ErrRunFinished
	}
	if t.active.notEnded.timePausedAt != nil {
		return 0, ErrAlreadyPaused
	}
	frozen := timespan.Now().Sub(t.active.startTime).Add(t.active.adjustedOffset)
	t.active.notEnded.timePausedAt = &frozen
	return t.emit(Paused)
}

// Resume resumes a paused attempt.
func (t *Timer) Resume() (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0, ErrNoRunInProgress
	}
	if t.active.notEnded == nil {
		return 0, ErrRunFinished
	}
	if t.active.notEnded.timePausedAt == nil {
		return 0, ErrNotPaused
	}
	pauseTime := *t.active.notEnded.timePausedAt
	t.active.adjustedOffset = pauseTime.Sub(timespan.Now().Sub(t.active.startTime))
	t.active.notEnded.timePausedAt = nil
	return t.emit(Resumed)
}

// TogglePause pauses a running attempt or resumes a paused one.
func (t *Timer) TogglePause() (Event, error) {
	switch t.CurrentPhase() {
	case Running:
		return t.Pause()
	case PhasePaused:
		return t.Resume()
	case Ended:
		return 0, ErrRunFinished
	default:
		return 0, ErrNoRunInProgress
	}
}

// TogglePauseOrStart behaves like TogglePause, but starts a new attempt if
// none is in progress.
func (t *Timer) TogglePauseOrStart() (Event, error) {
	switch t.CurrentPhase() {
	case Running:
		return t.Pause()
	case PhasePaused:
		return t.Resume()
	case Ended:
		return 0, ErrRunFinished
	default:
		return t.Start()
	}
}

// UndoAllPauses removes every pause from the current attempt's elapsed
// time. If paused, it also resumes. If ended, it adjusts the final split's
// time so it no longer includes time spent paused// only the final split time is modified").
func (t *Timer) UndoAllPauses() (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0, ErrNoRunInProgress
	}

	var event Event
	switch t.active.phase() {
	case PhasePaused:
		pauseTime := *t.active.notEnded.timePausedAt
		t.active.adjustedOffset = pauseTime.Sub(timespan.Now().Sub(t.active.startTime))
		t.active.notEnded.timePausedAt = nil
		event = PausesUndoneAndResumed
	case Ended:
		pauseTime := t.active.getPauseTime()
		last := t.run.Segments[len(t.run.Segments)-1]
		extra := timespan.NewTime(pauseTime, pauseTime)
		last.SplitTime = timespan.Add(last.SplitTime, extra)
		event = PausesUndone
	default:
		event = PausesUndone
	}
	t.active.adjustedOffset = t.active.originalOffset
	return t.emit(event)
}

// Reset ends the current attempt. If save is true, the attempt's times are
// folded into attempt_history, segment_history and best_segment_time, and
// PB is overwritten when beaten.
func (t *Timer) Reset(save bool) (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0, ErrNoRunInProgress
	}
	t.resetState(save)
	t.resetSplits()
	return t.emit(Reset)
}

// ResetAndSetAttemptAsPB resets the current attempt and forces it to
// become the new Personal Best regardless of whether it beat the previous
// one.
func (t *Timer) ResetAndSetAttemptAsPB() (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0, ErrNoRunInProgress
	}
	t.resetState(true)
	setRunAsPB(t.run)
	t.resetSplits()
	return t.emit(Reset)
}

func (t *Timer) resetState(updateTimes bool) {
	active := t.active
	t.active = nil
	if active == nil {
		return
	}
	if updateTimes {
		t.updateTimes(active)
	}
}

func (t *Timer) resetSplits() {
	for _, s := range t.run.Segments {
		s.ClearSplit()
	}
	t.run.Metadata.ClearNonPermanentVariables()
	t.run.FixSplits()
	comparison.Regenerate(t.run)
}

// updateTimes folds a just-finished attempt into history// "Reset detail").
func (t *Timer) updateTimes(active *activeAttempt) {
	finalTime := active.currentTime(t.run)
	pauseTime := active.getPauseTime()
	idx := t.run.NextAttemptIndex()

	var started, ended *timespan.AtomicDateTime
	a := active.attemptStarted
	started = &a
	if active.ended != nil {
		e := active.ended.attemptEnded
		ended = &e
	} else {
		e := timespan.NowWall(false)
		ended = &e
	}

	var runningDeltaPrev timespan.Time
	havePrev := false
	for _, s := range t.run.Segments {
		var delta timespan.Time
		if v, ok := s.SplitTime.Get(timespan.RealTime); ok {
			if havePrev {
				if pv, pok := runningDeltaPrev.Get(timespan.RealTime); pok {
					delta = delta.With(timespan.RealTime, v.Sub(pv))
				}
			} else {
				delta = delta.With(timespan.RealTime, v)
			}
		}
		if v, ok := s.SplitTime.Get(timespan.GameTime); ok {
			if havePrev {
				if pv, pok := runningDeltaPrev.Get(timespan.GameTime); pok {
					delta = delta.With(timespan.GameTime, v.Sub(pv))
				}
			} else {
				delta = delta.With(timespan.GameTime, v)
			}
		}
		runningDeltaPrev = s.SplitTime
		havePrev = true

		s.History.Insert(idx, delta)
		for _, m := range []timespan.Method{timespan.RealTime, timespan.GameTime} {
			d, ok := delta.Get(m)
			if !ok {
				continue
			}
			if best, bok := s.BestSegmentTime.Get(m); !bok || d.Cmp(best) < 0 {
				s.BestSegmentTime = s.BestSegmentTime.With(m, d)
			}
		}
	}

	t.run.AttemptHistory = append(t.run.AttemptHistory, run.Attempt{
		Index:     idx,
		Time:      finalTime,
		Started:   started,
		Ended:     ended,
		PauseTime: &pauseTime,
	})

	last := t.run.Segments[len(t.run.Segments)-1]
	beatAny := false
	if v, ok := last.SplitTime.Get(t.currentTimingMethod); ok {
		if pb, pok := last.PersonalBestSplitTime.Get(t.currentTimingMethod); !pok || v.Cmp(pb) < 0 {
			last.PersonalBestSplitTime = last.PersonalBestSplitTime.With(t.currentTimingMethod, v)
			beatAny = true
		}
	}
	if beatAny {
		t.run.Metadata.ClearRunID()
		for _, s := range t.run.Segments {
			s.PersonalBestSplitTime = s.SplitTime
		}
	}
}

func setRunAsPB(r *run.Run) {
	r.ImportPBIntoSegmentHistory()
	r.FixSplits()
	for _, s := range r.Segments {
		s.PersonalBestSplitTime = s.SplitTime
	}
	r.Metadata.ClearRunID()
}

// SwitchToNextComparison cycles to the next comparison in the Run's list.
func (t *Timer) SwitchToNextComparison() (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := t.run.AllComparisonNames()
	t.currentComparison = cycle(names, t.currentComparison, 1)
	return t.emit(ComparisonChanged)
}

// SwitchToPreviousComparison cycles to the previous comparison.
func (t *Timer) SwitchToPreviousComparison() (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := t.run.AllComparisonNames()
	t.currentComparison = cycle(names, t.currentComparison, -1)
	return t.emit(ComparisonChanged)
}

func cycle(names []string, current string, delta int) string {
	if len(names) == 0 {
		return current
	}
	idx := 0
	for i, n := range names {
		if n == current {
			idx = i
			break
		}
	}
	idx = ((idx+delta)%len(names) + len(names)) % len(names)
	return names[idx]
}

// SetCurrentComparison switches the active comparison by name.
func (t *Timer) SetCurrentComparison(name string) (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.run.HasComparison(name) {
		return 0, ErrComparisonDoesntExist
	}
	t.currentComparison = name
	return t.emit(ComparisonChanged)
}

// SetCurrentTimingMethod sets the active timing method.
func (t *Timer) SetCurrentTimingMethod(m timespan.Method) (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentTimingMethod = m
	return t.emit(TimingMethodChanged)
}

// ToggleTimingMethod switches between RealTime and GameTime.
func (t *Timer) ToggleTimingMethod() (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.currentTimingMethod == timespan.RealTime {
		t.currentTimingMethod = timespan.GameTime
	} else {
		t.currentTimingMethod = timespan.RealTime
	}
	return t.emit(TimingMethodChanged)
}

// InitializeGameTime starts tracking game time for the current attempt.
func (t *Timer) InitializeGameTime() (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0, ErrNoRunInProgress
	}
	if t.active.loadingTimes != nil {
		return 0, ErrGameTimeAlreadyInitialized
	}
	var zero timespan.Span
	t.active.loadingTimes = &zero
	return t.emit(GameTimeInitialized)
}

// DeinitializeGameTime stops tracking game time for the current attempt.
func (t *Timer) DeinitializeGameTime() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != nil {
		t.active.loadingTimes = nil
	}
}

// IsGameTimeInitialized reports whether game time is being tracked.
func (t *Timer) IsGameTimeInitialized() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active != nil && t.active.loadingTimes != nil
}

// IsGameTimePaused reports whether the game timer is currently paused.
func (t *Timer) IsGameTimePaused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active != nil && t.active.gameTimePausedAt != nil
}

// PauseGameTime freezes the game timer at its current value.
func (t *Timer) PauseGameTime() (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0, ErrNoRunInProgress
	}
	if t.active.gameTimePausedAt != nil {
		return 0, ErrGameTimeAlreadyPaused
	}
	current := t.active.currentTime(t.run)
	v, ok := current.Get(timespan.GameTime)
	if !ok {
		v, _ = current.Get(timespan.RealTime)
	}
	t.active.gameTimePausedAt = &v
	return t.emit(GameTimePaused)
}

// ResumeGameTime lets the game timer resume automatic incrementing.
func (t *Timer) ResumeGameTime() (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0, ErrNoRunInProgress
	}
	if t.active.gameTimePausedAt == nil {
		return 0, ErrGameTimeNotPaused
	}
	current := t.active.currentTime(t.run)
	real, rok := current.Get(timespan.RealTime)
	game, gok := current.Get(timespan.GameTime)
	var diff timespan.Span
	if rok && gok {
		diff = real.Sub(game)
	}
	t.active.setLoadingTimes(real.Sub(diff), t.run)
	t.active.gameTimePausedAt = nil
	return t.emit(GameTimeResumed)
}

// SetGameTime sets the game timer to an explicit value, also updating the
// pause marker if currently paused.
func (t *Timer) SetGameTime(gameTime timespan.Span) (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0, ErrNoRunInProgress
	}
	if t.active.gameTimePausedAt != nil {
		t.active.gameTimePausedAt = &gameTime
	}
	t.active.setLoadingTimes(gameTime, t.run)
	return t.emit(GameTimeSet)
}

// LoadingTimes returns the currently tracked loading times (game time
// deficit versus real time).
func (t *Timer) LoadingTimes() timespan.Span {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.active == nil || t.active.loadingTimes == nil {
		return 0
	}
	return *t.active.loadingTimes
}

// SetLoadingTimes sets the loading-times value directly.
func (t *Timer) SetLoadingTimes(loading timespan.Span) (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return 0, ErrNoRunInProgress
	}
	t.active.setLoadingTimes(loading, t.run)
	return t.emit(LoadingTimesSet)
}

// SetCustomVariable writes a custom variable's value, creating it
// transiently if it does not already exist.
func (t *Timer) SetCustomVariable(name, value string) (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	existing, known := t.run.Metadata.CustomVariables[name]
	permanent := known && existing.IsPermanent
	t.run.Metadata.SetCustomVariable(name, value, permanent)
	if permanent {
		t.run.ModifiedSinceSave = true
	}
	return t.emit(CustomVariableSet)
}

// CurrentAttemptDuration returns how long the current attempt has been
// going since Start, time spent Paused included, independent of run.Offset.
func (t *Timer) CurrentAttemptDuration() timespan.Span {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.active == nil {
		return 0
	}
	if t.active.ended != nil {
		d := t.active.ended.attemptEnded.Instant.Sub(t.active.attemptStarted.Instant)
		return timespan.FromDuration(d)
	}
	return timespan.Now().Sub(t.active.startTime)
}

// GetPauseTime returns the total time the current attempt has spent
// paused, or zero if there is no attempt in progress.
func (t *Timer) GetPauseTime() timespan.Span {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.active == nil {
		return 0
	}
	return t.active.getPauseTime()
}

// CurrentAttemptHasNewPersonalBest reports whether the just-finished
// attempt beat the stored PB for the given timing method.
func (t *Timer) CurrentAttemptHasNewPersonalBest(m timespan.Method) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.active.phase() != Ended {
		return false
	}
	last := t.run.Segments[len(t.run.Segments)-1]
	final, ok := last.SplitTime.Get(m)
	if !ok {
		return false
	}
	pb, pok := last.PersonalBestSplitTime.Get(m)
	return !pok || final.Cmp(pb) < 0
}

// CurrentAttemptHasNewBestSegments reports whether any segment in the
// current (in-progress) attempt has beaten its stored best-segment time.
func (t *Timer) CurrentAttemptHasNewBestSegments(m timespan.Method) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.active == nil {
		return false
	}
	for i := range t.run.Segments {
		if checkBestSegmentLocked(t, i, m) {
			return true
		}
	}
	return false
}

// CurrentAttemptHasNewBestTimes reports either kind of new-best for either
// timing method, used to decide whether to prompt before a destructive
// reset.
func (t *Timer) CurrentAttemptHasNewBestTimes() bool {
	return t.CurrentAttemptHasNewBestSegments(timespan.RealTime) ||
		t.CurrentAttemptHasNewBestSegments(timespan.GameTime) ||
		t.CurrentAttemptHasNewPersonalBest(t.CurrentTimingMethod())
}

// Events returns a copy of the recorded event log (supplemented feature,
// SPEC_FULL.md §C).
func (t *Timer) Events() []Event {
	return t.log.All()
}
