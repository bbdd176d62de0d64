package run

import (
	"fmt"
	"strings"

	"speedruntimer/timespan"
)

// RaceComparisonPrefix marks comparison names reserved for race mode.
const RaceComparisonPrefix = "[Race]"

// Run is the full data model for one speedrun category: its segments,
// attempt history, per-segment split history, comparisons and metadata.
// Constructed empty then populated by a parser or editor.
type Run struct {
	GameName    string
	CategoryName string
	GameIcon    []byte

	Offset       timespan.Span
	AttemptCount uint32

	AttemptHistory []Attempt
	Segments       []*Segment

	CustomComparisons   []string
	ComparisonGenerators []GeneratorSpec

	Metadata Metadata

	LinkedLayoutPath            string
	ParsedAutoSplitterSettings  map[string]string

	ModifiedSinceSave bool
}

// New returns an empty Run with the invariants already satisfied: one
// placeholder segment, "Personal Best" as the sole comparison, and the
// default generator registry.
func New() *Run {
	r := &Run{
		Segments:             []*Segment{NewSegment("")},
		CustomComparisons:    []string{PersonalBestComparisonName},
		ComparisonGenerators: DefaultGenerators(),
		Metadata:             NewMetadata(),
	}
	return r
}

// PushSegment appends a new, empty segment.
func (r *Run) PushSegment(name string) *Segment {
	s := NewSegment(name)
	r.Segments = append(r.Segments, s)
	r.ModifiedSinceSave = true
	return s
}

// AddCustomComparison inserts a new named comparison, rejecting duplicates,
// the reserved "[Race]" prefix, and the reserved "Personal Best" name.
func (r *Run) AddCustomComparison(name string) error {
	if strings.HasPrefix(name, RaceComparisonPrefix) {
		return fmt.Errorf("run: comparison name %q uses reserved prefix %q", name, RaceComparisonPrefix)
	}
	for _, c := range r.CustomComparisons {
		if c == name {
			return fmt.Errorf("run: comparison %q already exists", name)
		}
	}
	r.CustomComparisons = append(r.CustomComparisons, name)
	r.ModifiedSinceSave = true
	return nil
}

// HasComparison reports whether name is a known comparison (custom or
// generated).
func (r *Run) HasComparison(name string) bool {
	for _, c := range r.CustomComparisons {
		if c == name {
			return true
		}
	}
	for _, g := range r.ComparisonGenerators {
		if g.Name() == name {
			return true
		}
	}
	return false
}

// AllComparisonNames returns custom comparisons followed by generated
// comparison names, the order switch_to_next_comparison cycles through.
func (r *Run) AllComparisonNames() []string {
	out := make([]string, 0, len(r.CustomComparisons)+len(r.ComparisonGenerators))
	out = append(out, r.CustomComparisons...)
	for _, g := range r.ComparisonGenerators {
		name := g.Name()
		found := false
		for _, c := range r.CustomComparisons {
			if c == name {
				found = true
				break
			}
		}
		if !found {
			out = append(out, name)
		}
	}
	return out
}

// NextAttemptIndex returns the next positive attempt index to assign to a
// new attempt_history entry (1-based, monotonic).
func (r *Run) NextAttemptIndex() int32 {
	var max int32
	for _, a := range r.AttemptHistory {
		if a.Index > max {
			max = a.Index
		}
	}
	return max + 1
}

// PruneAttemptHistory trims attempt_history to at most keep most-recent
// entries, preserving invariant 7 (attempt_count never decreases). This is
// a supplemented feature (SPEC_FULL.md §C.3) for embedders running very
// long seasons; it does not touch segment_history, which stays the source
// comparison generators read from.
func (r *Run) PruneAttemptHistory(keep int) {
	if keep < 0 || len(r.AttemptHistory) <= keep {
		return
	}
	r.AttemptHistory = append([]Attempt(nil), r.AttemptHistory[len(r.AttemptHistory)-keep:]...)
	r.ModifiedSinceSave = true
}

// ClearHistory wipes every segment's recorded times, history, and
// comparisons plus attempt_history, while keeping segment names/icons
// (recovered from original_source/src/run/editor/mod.rs's Disconnect /
// full-history-clear operation). The CLI does not expose it.
func (r *Run) ClearHistory() {
	r.AttemptHistory = nil
	r.AttemptCount = 0
	for _, s := range r.Segments {
		s.SplitTime = timespan.Empty
		s.PersonalBestSplitTime = timespan.Empty
		s.BestSegmentTime = timespan.Empty
		s.History = SegmentHistory{}
		s.Comparisons = make(map[string]timespan.Time)
	}
	r.Metadata.ClearRunID()
	r.ModifiedSinceSave = true
}

// CheckInvariants validates the universal structural invariants a Run
// must hold at rest. Returns the first violation found, or nil.
func (r *Run) CheckInvariants() error {
	if len(r.Segments) < 1 {
		return fmt.Errorf("run: invariant 1 violated: no segments")
	}
	if len(r.CustomComparisons) == 0 || r.CustomComparisons[0] != PersonalBestComparisonName {
		return fmt.Errorf("run: invariant 2 violated: custom_comparisons[0] must be %q", PersonalBestComparisonName)
	}
	seen := make(map[string]bool, len(r.CustomComparisons))
	for _, c := range r.CustomComparisons {
		if seen[c] {
			return fmt.Errorf("run: invariant 2 violated: duplicate comparison %q", c)
		}
		seen[c] = true
		if strings.HasPrefix(c, RaceComparisonPrefix) {
			return fmt.Errorf("run: invariant 2 violated: comparison %q uses reserved prefix", c)
		}
	}
	if uint32(len(r.AttemptHistory)) > r.AttemptCount {
		return fmt.Errorf("run: invariant 7 violated: attempt_history longer than attempt_count")
	}
	for _, m := range []timespan.Method{timespan.RealTime, timespan.GameTime} {
		for _, cname := range r.AllComparisonNames() {
			var prev timespan.Span
			havePrev := false
			for _, s := range r.Segments {
				v, ok := s.Comparison(cname).Get(m)
				if !ok {
					continue
				}
				if havePrev && v.Cmp(prev) < 0 {
					return fmt.Errorf("run: invariant 3 violated: comparison %q method %v not monotonic", cname, m)
				}
				prev = v
				havePrev = true
			}
		}
	}
	return nil
}
