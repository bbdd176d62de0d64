package analysis

import (
	"testing"

	"speedruntimer/run"
	"speedruntimer/timer"
	"speedruntimer/timespan"
)

func newTestTimer(t *testing.T, segments int) *timer.Timer {
	t.Helper()
	r := run.New()
	r.Segments = r.Segments[:0]
	for i := 0; i < segments; i++ {
		r.PushSegment("seg")
	}
	tm, err := timer.New(r)
	if err != nil {
		t.Fatalf("timer.New: %v", err)
	}
	return tm
}

func TestCheckBestSegmentNoDataFalse(t *testing.T) {
	tm := newTestTimer(t, 1)
	if CheckBestSegment(tm, 0, timespan.RealTime) {
		t.Errorf("expected false with no attempt in progress")
	}
}

func TestPossibleTimeSave(t *testing.T) {
	r := run.New()
	r.Segments = r.Segments[:0]
	r.PushSegment("a")
	r.PushSegment("b")
	r.Segments[0].SetComparison(run.PersonalBestComparisonName, timespan.RealTimeOnly(timespan.FromSeconds(10)))
	r.Segments[1].SetComparison(run.PersonalBestComparisonName, timespan.RealTimeOnly(timespan.FromSeconds(25)))
	r.Segments[1].BestSegmentTime = timespan.RealTimeOnly(timespan.FromSeconds(10))
	save := PossibleTimeSave(r, run.PersonalBestComparisonName, 1, timespan.RealTime)
	if save.Seconds() != 5 {
		t.Errorf("possible time save = %v want 5s (15 delta - 10 best)", save.Seconds())
	}
}

func TestPossibleTimeSaveNeverNegative(t *testing.T) {
	r := run.New()
	r.Segments = r.Segments[:0]
	r.PushSegment("a")
	r.Segments[0].SetComparison(run.PersonalBestComparisonName, timespan.RealTimeOnly(timespan.FromSeconds(5)))
	r.Segments[0].BestSegmentTime = timespan.RealTimeOnly(timespan.FromSeconds(10))
	save := PossibleTimeSave(r, run.PersonalBestComparisonName, 0, timespan.RealTime)
	if save.Seconds() != 0 {
		t.Errorf("possible time save = %v want 0 (clamped)", save.Seconds())
	}
}

func TestTotalPlaytime(t *testing.T) {
	r := run.New()
	p1 := timespan.FromSeconds(2)
	p2 := timespan.FromSeconds(3)
	r.AttemptHistory = []run.Attempt{
		{Index: 1, Time: timespan.RealTimeOnly(timespan.FromSeconds(60)), PauseTime: &p1},
		{Index: 2, Time: timespan.RealTimeOnly(timespan.FromSeconds(90)), PauseTime: &p2},
	}
	total := TotalPlaytime(r)
	if total.Seconds() != 155 {
		t.Errorf("total playtime = %v want 155s", total.Seconds())
	}
}

func TestPBChanceZeroWithoutHistory(t *testing.T) {
	tm := newTestTimer(t, 1)
	if c := PBChance(tm); c != 0 {
		t.Errorf("PBChance with no history = %v want 0", c)
	}
}

func TestPBChanceWithinRange(t *testing.T) {
	tm := newTestTimer(t, 1)
	tm.Start()
	tm.Split()
	tm.Reset(true)
	c := PBChance(tm)
	if c < 0 || c > 1 {
		t.Errorf("PBChance = %v not in [0,1]", c)
	}
}
