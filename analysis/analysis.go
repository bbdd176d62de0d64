// Package analysis implements the derived, read-only analytics layer:
// check_best_segment, current_pace, possible_time_save, pb_chance and
// total_playtime. Every function takes a *timer.Timer or *run.Run
// snapshot and returns a value with no side effects.
package analysis // import "speedruntimer/analysis"

import (
	"fmt"
	"math"

	"speedruntimer/run"
	"speedruntimer/stats"
	"speedruntimer/timer"
	"speedruntimer/timespan"
)

// errComparisonHasNoData is returned by CurrentPace when the named
// comparison has no value at the final segment for the active timing
// method.
var errComparisonHasNoData = fmt.Errorf("analysis: comparison has no data for the current timing method")

// CheckBestSegment reports whether the currently-realized delta at segment
// i beats the stored best-segment time for method m. The state-machine-
// facing logic lives in the timer package itself, since Go's import graph
// can't have timer depend on analysis; this is a thin re-export so callers
// reach it from the analysis package.
func CheckBestSegment(t *timer.Timer, i int, m timespan.Method) bool {
	return timer.CheckBestSegment(t, i, m)
}

// CurrentPace predicts the final time for comparison name, given the
// live attempt in progress: the comparison's own final cumulative time,
// adjusted by how far ahead or behind the live attempt currently is
// relative to that comparison at the split in progress. If there is no
// attempt in progress, it simply returns the comparison's final time.
func CurrentPace(t *timer.Timer, comparisonName string) (timespan.Span, error) {
	r := t.Run()
	m := t.CurrentTimingMethod()
	last := r.Segments[len(r.Segments)-1]
	final, ok := last.Comparison(comparisonName).Get(m)
	if !ok {
		return 0, errComparisonHasNoData
	}

	idx := t.CurrentSplitIndex()
	if idx < 0 || idx >= len(r.Segments) {
		return final, nil
	}
	live, lok := t.TakeSnapshot().Time.Get(m)
	if !lok {
		return final, nil
	}

	var reference timespan.Span
	if v, ok := r.Segments[idx].Comparison(comparisonName).Get(m); ok {
		reference = v
	}
	delta := live.Sub(reference)
	return final.Add(delta), nil
}

// PossibleTimeSave returns max(0, comparisonDelta(i) - bestSegmentTime(i))
// for the named comparison.
func PossibleTimeSave(r *run.Run, comparisonName string, i int, m timespan.Method) timespan.Span {
	cur, ok := r.Segments[i].Comparison(comparisonName).Get(m)
	if !ok {
		return 0
	}
	var prev timespan.Span
	if i > 0 {
		if v, ok := r.Segments[i-1].Comparison(comparisonName).Get(m); ok {
			prev = v
		}
	}
	delta := cur.Sub(prev)
	best, bok := r.Segments[i].BestSegmentTime.Get(m)
	if !bok {
		best = 0
	}
	save := delta.Sub(best)
	if save.IsNegative() {
		return 0
	}
	return save
}

// PBChance estimates, in [0,1], how likely the in-progress attempt is to
// become a new Personal Best. Resolved as completionRate * paceFactor
// (DESIGN.md open question 1): completionRate is the historical fraction
// of attempts that reached the final segment, and paceFactor is a logistic
// squashing of how far ahead of PB pace the live attempt currently is,
// scaled by the historical spread of final-segment PB-deltas. Deterministic
// given the same Run state.
func PBChance(t *timer.Timer) float64 {
	r := t.Run()
	if len(r.AttemptHistory) == 0 {
		return 0
	}
	m := t.CurrentTimingMethod()
	n := len(r.Segments)

	var completed stats.Counter
	var finalDeltas stats.Counter
	lastIdx := n - 1
	for _, a := range r.AttemptHistory {
		if v, ok := r.Segments[lastIdx].History.Get(a.Index); ok {
			if _, ok := v.Get(m); ok {
				completed.Record(1)
			} else {
				completed.Record(0)
			}
		} else {
			completed.Record(0)
		}
	}
	for _, e := range r.Segments[lastIdx].History.All() {
		if v, ok := e.Time.Get(m); ok {
			finalDeltas.Record(v.Seconds())
		}
	}
	completionRate := completed.Avg()

	pace, err := CurrentPace(t, run.PersonalBestComparisonName)
	if err != nil {
		return completionRate
	}
	pb, ok := r.Segments[lastIdx].PersonalBestSplitTime.Get(m)
	if !ok {
		return completionRate
	}
	spread := finalDeltas.StdDev()
	if spread <= 0 {
		spread = 1
	}
	aheadBy := pb.Sub(pace).Seconds() // positive means pace is faster than PB
	paceFactor := 1 / (1 + math.Exp(-aheadBy/spread))

	chance := completionRate * paceFactor
	if chance < 0 {
		return 0
	}
	if chance > 1 {
		return 1
	}
	return chance
}

// TotalPlaytime sums, over every recorded attempt, the time spent actually
// timing plus the time spent paused.
func TotalPlaytime(r *run.Run) timespan.Span {
	var total timespan.Span
	for _, a := range r.AttemptHistory {
		if v, ok := a.Time.Get(timespan.RealTime); ok && !v.IsNegative() {
			total = total.Add(v)
		}
		if a.PauseTime != nil {
			total = total.Add(*a.PauseTime)
		}
	}
	return total
}
