package run

import "speedruntimer/timespan"

// ImportPBIntoSegmentHistory appends a new synthetic (non-positive) index
// and writes, for every segment, the per-segment delta of the PB split
// times into that segment's history.
func (r *Run) ImportPBIntoSegmentHistory() {
	index := r.lowestImportIndex() - 1
	var prevPB timespan.Time
	havePrev := false
	for _, s := range r.Segments {
		pb := s.PersonalBestSplitTime
		var delta timespan.Time
		if havePrev {
			delta = timespan.Sub(pb, prevPB)
		} else {
			delta = pb
		}
		s.History.Insert(index, delta)
		prevPB = pb
		havePrev = true
	}
	r.FixSplits()
}

// ImportBestSegment inserts segment i's best_segment_time under a fresh
// synthetic index.
func (r *Run) ImportBestSegment(i int) {
	if i < 0 || i >= len(r.Segments) {
		return
	}
	index := r.lowestImportIndex() - 1
	r.Segments[i].History.Insert(index, r.Segments[i].BestSegmentTime)
	r.FixSplits()
}

func (r *Run) lowestImportIndex() int32 {
	var min int32
	for _, s := range r.Segments {
		if v := s.History.MinNegativeIndex(); v < min {
			min = v
		}
	}
	return min
}

// RemoveSegment deletes segment i, redistributing its segment history into
// the following segment so cumulative-time semantics are preserved. It is
// an error to remove the last remaining segment (invariant 1).
func (r *Run) RemoveSegment(i int) error {
	if len(r.Segments) <= 1 {
		return errOnlySegment
	}
	if i < 0 || i >= len(r.Segments) {
		return errBadIndex
	}
	removed := r.Segments[i]
	if i+1 < len(r.Segments) {
		next := r.Segments[i+1]
		for _, e := range removed.History.entries {
			mergeInto(next, e.Index, e.Time)
		}
		// New best segment for the merged segment is the minimum of (a)
		// the sum of the two prior best segments and (b) every summed
		// history entry actually observed.
		summed := timespan.Add(removed.BestSegmentTime, next.BestSegmentTime)
		best := summed
		for _, e := range removed.History.entries {
			if mergedVal, ok := next.History.Get(e.Index); ok {
				best = timespan.Min(best, mergedVal)
			}
		}
		next.BestSegmentTime = best
	}
	r.Segments = append(r.Segments[:i], r.Segments[i+1:]...)
	r.ModifiedSinceSave = true
	r.FixSplits()
	return nil
}

// mergeInto adds value into the next non-null entry at index in seg's
// history (searching forward isn't needed here: seg is already the
// immediately following segment; if that entry is itself null the value
// becomes the entry).
func mergeInto(seg *Segment, index int32, value timespan.Time) {
	existing, ok := seg.History.Get(index)
	if !ok || existing.IsEmpty() {
		seg.History.Insert(index, value)
		return
	}
	seg.History.Insert(index, timespan.Add(existing, value))
}

type editorError string

func (e editorError) Error() string { return string(e) }

const (
	errOnlySegment = editorError("run: cannot remove the only remaining segment")
	errBadIndex    = editorError("run: segment index out of range")
)
