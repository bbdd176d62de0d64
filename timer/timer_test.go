package timer

import (
	"testing"

	"speedruntimer/run"
	"speedruntimer/timespan"
)

func newTestTimer(t *testing.T, segments int) *Timer {
	t.Helper()
	r := run.New()
	r.Segments = r.Segments[:0]
	for i := 0; i < segments; i++ {
		r.PushSegment("seg")
	}
	tm, err := New(r)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tm
}

func TestStartSplitFinishes(t *testing.T) {
	tm := newTestTimer(t, 2)
	if _, err := tm.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if tm.CurrentPhase() != Running {
		t.Fatalf("phase = %v want Running", tm.CurrentPhase())
	}
	if _, err := tm.Start(); err != ErrRunAlreadyInProgress {
		t.Errorf("double start error = %v want ErrRunAlreadyInProgress", err)
	}
	ev, err := tm.Split()
	if err != nil || ev != Splitted {
		t.Fatalf("Split 1 = %v, %v want Splitted", ev, err)
	}
	ev, err = tm.Split()
	if err != nil || ev != Finished {
		t.Fatalf("Split 2 = %v, %v want Finished", ev, err)
	}
	if tm.CurrentPhase() != Ended {
		t.Fatalf("phase = %v want Ended", tm.CurrentPhase())
	}
	if _, err := tm.Split(); err != ErrRunFinished {
		t.Errorf("split after finish error = %v want ErrRunFinished", err)
	}
}

func TestSkipAndUndoSplit(t *testing.T) {
	tm := newTestTimer(t, 3)
	tm.Start()
	if _, err := tm.SkipSplit(); err != nil {
		t.Fatalf("SkipSplit: %v", err)
	}
	if tm.CurrentSplitIndex() != 1 {
		t.Fatalf("index after skip = %d want 1", tm.CurrentSplitIndex())
	}
	if _, err := tm.UndoSplit(); err != nil {
		t.Fatalf("UndoSplit: %v", err)
	}
	if tm.CurrentSplitIndex() != 0 {
		t.Fatalf("index after undo = %d want 0", tm.CurrentSplitIndex())
	}
	if _, err := tm.UndoSplit(); err != ErrCantUndoFirstSplit {
		t.Errorf("undo first split error = %v want ErrCantUndoFirstSplit", err)
	}
}

func TestSkipLastSplitRefused(t *testing.T) {
	tm := newTestTimer(t, 2)
	tm.Start()
	tm.SkipSplit()
	if _, err := tm.SkipSplit(); err != ErrCantSkipLastSplit {
		t.Errorf("skip last split error = %v want ErrCantSkipLastSplit", err)
	}
}

func TestPauseResumeToggle(t *testing.T) {
	tm := newTestTimer(t, 2)
	tm.Start()
	if _, err := tm.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if tm.CurrentPhase() != PhasePaused {
		t.Fatalf("phase = %v want Paused", tm.CurrentPhase())
	}
	if _, err := tm.Pause(); err != ErrAlreadyPaused {
		t.Errorf("double pause error = %v want ErrAlreadyPaused", err)
	}
	if _, err := tm.Split(); err != ErrTimerPaused {
		t.Errorf("split while paused error = %v want ErrTimerPaused", err)
	}
	if _, err := tm.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if tm.CurrentPhase() != Running {
		t.Fatalf("phase after resume = %v want Running", tm.CurrentPhase())
	}
	if _, err := tm.TogglePause(); err != nil {
		t.Fatalf("TogglePause: %v", err)
	}
	if tm.CurrentPhase() != PhasePaused {
		t.Fatalf("phase after toggle = %v want Paused", tm.CurrentPhase())
	}
}

func TestTogglePauseOrStartFromNotRunning(t *testing.T) {
	tm := newTestTimer(t, 1)
	ev, err := tm.TogglePauseOrStart()
	if err != nil || ev != Started {
		t.Fatalf("TogglePauseOrStart from NotRunning = %v, %v want Started", ev, err)
	}
}

func TestResetWithoutSaveDiscardsHistory(t *testing.T) {
	tm := newTestTimer(t, 1)
	tm.Start()
	if _, err := tm.Reset(false); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if tm.CurrentPhase() != NotRunning {
		t.Fatalf("phase after reset = %v want NotRunning", tm.CurrentPhase())
	}
	if len(tm.run.AttemptHistory) != 0 {
		t.Errorf("expected no attempt history recorded, got %d", len(tm.run.AttemptHistory))
	}
}

func TestResetWithSaveRecordsHistoryAndBestSegment(t *testing.T) {
	tm := newTestTimer(t, 1)
	tm.Start()
	tm.Split()
	if _, err := tm.Reset(true); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if len(tm.run.AttemptHistory) != 1 {
		t.Fatalf("expected one attempt recorded, got %d", len(tm.run.AttemptHistory))
	}
	if _, ok := tm.run.Segments[0].BestSegmentTime.Get(timespan.RealTime); !ok {
		t.Errorf("expected a best segment time to have been recorded")
	}
}

func TestResetAndSetAttemptAsPBAlwaysOverwrites(t *testing.T) {
	tm := newTestTimer(t, 1)
	tm.run.Segments[0].PersonalBestSplitTime = timespan.RealTimeOnly(timespan.FromSeconds(1))
	tm.Start()
	tm.Split()
	if _, err := tm.ResetAndSetAttemptAsPB(); err != nil {
		t.Fatalf("ResetAndSetAttemptAsPB: %v", err)
	}
	if tm.run.Metadata.RunID != "" {
		t.Errorf("expected run_id cleared after forcing a new PB")
	}
}

func TestComparisonCycling(t *testing.T) {
	tm := newTestTimer(t, 1)
	tm.run.AddCustomComparison("My Comparison")
	start := tm.CurrentComparison()
	tm.SwitchToNextComparison()
	if tm.CurrentComparison() == start {
		t.Errorf("expected comparison to change after switching to next")
	}
	tm.SwitchToPreviousComparison()
	if tm.CurrentComparison() != start {
		t.Errorf("expected switching back to previous to restore %q, got %q", start, tm.CurrentComparison())
	}
	if _, err := tm.SetCurrentComparison("does not exist"); err != ErrComparisonDoesntExist {
		t.Errorf("expected ErrComparisonDoesntExist, got %v", err)
	}
}

func TestTimingMethodToggle(t *testing.T) {
	tm := newTestTimer(t, 1)
	if tm.CurrentTimingMethod() != timespan.RealTime {
		t.Fatalf("default timing method = %v want RealTime", tm.CurrentTimingMethod())
	}
	tm.ToggleTimingMethod()
	if tm.CurrentTimingMethod() != timespan.GameTime {
		t.Fatalf("after toggle = %v want GameTime", tm.CurrentTimingMethod())
	}
}

func TestGameTimeLifecycle(t *testing.T) {
	tm := newTestTimer(t, 1)
	tm.Start()
	if _, err := tm.InitializeGameTime(); err != nil {
		t.Fatalf("InitializeGameTime: %v", err)
	}
	if !tm.IsGameTimeInitialized() {
		t.Errorf("expected game time initialized")
	}
	if _, err := tm.InitializeGameTime(); err != ErrGameTimeAlreadyInitialized {
		t.Errorf("double init error = %v want ErrGameTimeAlreadyInitialized", err)
	}
	if _, err := tm.SetGameTime(timespan.FromSeconds(5)); err != nil {
		t.Fatalf("SetGameTime: %v", err)
	}
	if _, err := tm.PauseGameTime(); err != nil {
		t.Fatalf("PauseGameTime: %v", err)
	}
	if !tm.IsGameTimePaused() {
		t.Errorf("expected game time paused")
	}
	if _, err := tm.ResumeGameTime(); err != nil {
		t.Fatalf("ResumeGameTime: %v", err)
	}
	if tm.IsGameTimePaused() {
		t.Errorf("expected game time resumed")
	}
}

func TestCustomVariablePermanenceControlsModifiedFlag(t *testing.T) {
	tm := newTestTimer(t, 1)
	tm.run.ModifiedSinceSave = false
	tm.SetCustomVariable("transient", "v1")
	if tm.run.ModifiedSinceSave {
		t.Errorf("transient variable should not mark run modified")
	}
	tm.run.Metadata.SetCustomVariable("permanent", "", true)
	tm.run.ModifiedSinceSave = false
	tm.SetCustomVariable("permanent", "v2")
	if !tm.run.ModifiedSinceSave {
		t.Errorf("permanent variable write should mark run modified")
	}
}

func TestUndoAllPausesOnEndedAttempt(t *testing.T) {
	tm := newTestTimer(t, 1)
	tm.Start()
	tm.Pause()
	tm.Resume()
	tm.Split() // finishes the only segment
	if tm.CurrentPhase() != Ended {
		t.Fatalf("phase = %v want Ended", tm.CurrentPhase())
	}
	if _, err := tm.UndoAllPauses(); err != nil {
		t.Fatalf("UndoAllPauses: %v", err)
	}
}

func TestEventLogRecordsEmittedEvents(t *testing.T) {
	tm := newTestTimer(t, 1)
	tm.Start()
	tm.Split()
	events := tm.Events()
	if len(events) != 2 || events[0] != Started || events[1] != Finished {
		t.Errorf("event log = %v want [Started Finished]", events)
	}
}
