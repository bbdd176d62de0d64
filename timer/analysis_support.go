package timer

import "speedruntimer/timespan"

// realizedDelta returns the currently-realized segment delta for segment i
// of the in-progress attempt: the difference between its split time (if
// already recorded) or the live current time (if it's the segment in
// progress) and the previous segment's split time. Returns false if
// neither is available yet.
func (t *Timer) realizedDelta(i int, m timespan.Method) (timespan.Span, bool) {
	if t.active == nil {
		return 0, false
	}
	seg := t.run.Segments[i]
	var upper timespan.Span
	var ok bool
	if v, sok := seg.SplitTime.Get(m); sok {
		upper, ok = v, true
	} else if idx := t.active.currentSplitIndex(); idx != nil && *idx == i {
		upper, ok = t.active.currentTime(t.run).Get(m)
	}
	if !ok {
		return 0, false
	}
	if i == 0 {
		return upper, true
	}
	prev, pok := t.run.Segments[i-1].SplitTime.Get(m)
	if !pok {
		return 0, false
	}
	return upper.Sub(prev), true
}

// checkBestSegmentLocked implements check_best_segment.
// Caller must already hold at least a read lock.
func checkBestSegmentLocked(t *Timer, i int, m timespan.Method) bool {
	delta, ok := t.realizedDelta(i, m)
	if !ok {
		return false
	}
	best, bok := t.run.Segments[i].BestSegmentTime.Get(m)
	if !bok {
		return true
	}
	return delta.Cmp(best) < 0
}

// CheckBestSegment reports whether the currently-realized segment delta at
// segment i is strictly better than the stored best-segment time for
// method m, or the stored value is absent and the delta is defined
//. Exported for the analysis package.
func CheckBestSegment(t *Timer, i int, m timespan.Method) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return checkBestSegmentLocked(t, i, m)
}
