package run

import "speedruntimer/timespan"

// FixSplits repairs the invariants that a raw mutation (import, editor
// edit, PB promotion) can break. Order matters and is fixed: negative-
// best-segment removal -> monotonicity repair -> best-segment lowering ->
// history ceiling -> null-history pruning -> duplicate-index pruning.
func (r *Run) FixSplits() {
	for _, m := range []timespan.Method{timespan.RealTime, timespan.GameTime} {
		r.removeNegativeBestSegments(m)
		r.repairMonotonicity(m)
		r.lowerBestSegmentsFromPB(m)
		r.raiseHistoryToBestSegmentFloor(m)
	}
	r.pruneNullHistory()
	r.pruneDuplicateImports()
}

// removeNegativeBestSegments enforces that a stored best_segment_time can
// never be negative.
func (r *Run) removeNegativeBestSegments(m timespan.Method) {
	for _, s := range r.Segments {
		if v, ok := s.BestSegmentTime.Get(m); ok && v.IsNegative() {
			s.BestSegmentTime = s.BestSegmentTime.Cleared(m)
		}
	}
}

// repairMonotonicity enforces that every comparison column is
// non-decreasing across segments, per timing method.
func (r *Run) repairMonotonicity(m timespan.Method) {
	for _, cname := range r.AllComparisonNames() {
		var prev timespan.Span
		havePrev := false
		for _, s := range r.Segments {
			v, ok := s.Comparison(cname).Get(m)
			if !ok {
				continue
			}
			if havePrev && v.Cmp(prev) < 0 {
				v = prev
				s.SetComparison(cname, s.Comparison(cname).With(m, v))
			}
			prev = v
			havePrev = true
		}
	}
}

// lowerBestSegmentsFromPB walks the PB comparison's per-segment deltas and
// lowers the stored best segment whenever the PB delta itself is smaller.
func (r *Run) lowerBestSegmentsFromPB(m timespan.Method) {
	var prevPB timespan.Span
	havePrevPB := false
	for _, s := range r.Segments {
		pb, ok := s.PersonalBestSplitTime.Get(m)
		if !ok {
			havePrevPB = false
			continue
		}
		if havePrevPB {
			delta := pb.Sub(prevPB)
			if best, bok := s.BestSegmentTime.Get(m); !bok || delta.Cmp(best) < 0 {
				s.BestSegmentTime = s.BestSegmentTime.With(m, delta)
			}
		}
		prevPB = pb
		havePrevPB = true
	}
}

// raiseHistoryToBestSegmentFloor raises every history entry strictly
// below best_segment_time up to it.
func (r *Run) raiseHistoryToBestSegmentFloor(m timespan.Method) {
	for _, s := range r.Segments {
		floor, ok := s.BestSegmentTime.Get(m)
		if !ok {
			continue
		}
		entries := s.History.entries
		for i := range entries {
			v, vok := entries[i].Time.Get(m)
			if !vok {
				continue
			}
			if v.Cmp(floor) < 0 {
				entries[i].Time = entries[i].Time.With(m, floor)
			}
		}
	}
}

// pruneNullHistory removes history entries that are (None, None) for a
// segment when no later segment has a non-null entry at the same attempt
// index (meaning the runner reset before ever recording anything from
// this segment onward for that attempt).
func (r *Run) pruneNullHistory() {
	n := len(r.Segments)
	for i := 0; i < n; i++ {
		s := r.Segments[i]
		var toRemove []int32
		for _, e := range s.History.entries {
			if !e.Time.IsEmpty() {
				continue
			}
			followedByData := false
			for j := i + 1; j < n; j++ {
				if v, ok := r.Segments[j].History.Get(e.Index); ok && !v.IsEmpty() {
					followedByData = true
					break
				}
			}
			if !followedByData {
				toRemove = append(toRemove, e.Index)
			}
		}
		for _, idx := range toRemove {
			s.History.Remove(idx)
		}
	}
}

// pruneDuplicateImports removes an imported (index <= 0) history entry
// that duplicates a value already present among real (index > 0) entries
// for the same segment.
func (r *Run) pruneDuplicateImports() {
	for _, s := range r.Segments {
		realValues := make(map[timespan.Time]bool)
		for _, e := range s.History.entries {
			if e.Index > 0 {
				realValues[e.Time] = true
			}
		}
		var toRemove []int32
		for _, e := range s.History.entries {
			if e.Index <= 0 && realValues[e.Time] {
				toRemove = append(toRemove, e.Index)
			}
		}
		for _, idx := range toRemove {
			s.History.Remove(idx)
		}
	}
}
