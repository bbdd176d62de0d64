package run

import "speedruntimer/timespan"

// Segment is one row of a Run: a name, an optional icon, the current
// attempt's recorded split time, the personal-best split time, the best
// (fastest ever) segment delta, the full per-attempt segment history, the
// derived comparison times, and any custom variables captured at split
// time.
type Segment struct {
	Name                  string
	Icon                  []byte
	SplitTime             timespan.Time
	PersonalBestSplitTime timespan.Time
	BestSegmentTime       timespan.Time
	History               SegmentHistory
	Comparisons           map[string]timespan.Time
	Variables             map[string]string
}

// NewSegment creates a named segment with empty comparisons/variables maps.
func NewSegment(name string) *Segment {
	return &Segment{
		Name:        name,
		Comparisons: make(map[string]timespan.Time),
		Variables:   make(map[string]string),
	}
}

// Comparison returns the Time stored for the named comparison, or an empty
// Time if the comparison hasn't been generated yet.
func (s *Segment) Comparison(name string) timespan.Time {
	if t, ok := s.Comparisons[name]; ok {
		return t
	}
	return timespan.Empty
}

// SetComparison writes the Time for the named comparison.
func (s *Segment) SetComparison(name string, t timespan.Time) {
	if s.Comparisons == nil {
		s.Comparisons = make(map[string]timespan.Time)
	}
	s.Comparisons[name] = t
}

// ClearSplit clears the current attempt's recorded split time (used by
// skip_split and reset).
func (s *Segment) ClearSplit() {
	s.SplitTime = timespan.Empty
	s.Variables = make(map[string]string)
}
