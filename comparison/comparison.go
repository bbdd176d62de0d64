// Copyright 2024 Fortio Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package comparison implements the derived per-segment comparison
// generators: None, Best Segments, Best Split Times,
// Average/Median/Worst Segments, Latest Run, Balanced PB and Percentile.
// Each generator is a pure function of (segments, attempt_history),
// dispatched on the closed run.GeneratorKind tag.
package comparison // import "speedruntimer/comparison"

import (
	"speedruntimer/run"
	"speedruntimer/timespan"
)

// Regenerate runs every configured generator, in registration order,
// writing into each segment's Comparisons map// regenerate_comparisons). Every generator is deterministic and tolerates
// empty history by emitting all-None.
func Regenerate(r *run.Run) {
	for _, spec := range r.ComparisonGenerators {
		generate(r, spec)
	}
}

func generate(r *run.Run, spec run.GeneratorSpec) {
	name := spec.Name()
	switch spec.Kind {
	case run.GenNone:
		genNone(r, name)
	case run.GenBestSegments:
		genBestSegments(r, name)
	case run.GenBestSplitTimes:
		genBestSplitTimes(r, name)
	case run.GenAverageSegments:
		genFoldedHistory(r, name, averageOf)
	case run.GenMedianSegments:
		genFoldedHistory(r, name, medianOf)
	case run.GenWorstSegments:
		genFoldedHistory(r, name, worstOf)
	case run.GenLatestRun:
		genLatestRun(r, name)
	case run.GenBalancedPB:
		genBalancedPB(r, name)
	case run.GenPercentile:
		genFoldedHistory(r, name, percentileOf(spec.Percentile))
	}
}

func genNone(r *run.Run, name string) {
	for _, s := range r.Segments {
		s.SetComparison(name, timespan.Empty)
	}
}

// cumulativeFold is the shared pattern behind Best Segments and the
// statistical generators: given, per segment, a per-method value (or
// "absent"), accumulate a running total per method and write it as the
// comparison; an absent per-segment value writes an absent comparison for
// that segment without resetting the running total// "skipping None by emitting None for the cumulative and resuming on the
// next known segment").
func cumulativeFold(r *run.Run, name string, perSegment func(s *run.Segment, m timespan.Method) (timespan.Span, bool)) {
	for _, m := range []timespan.Method{timespan.RealTime, timespan.GameTime} {
		var running timespan.Span
		haveRunning := false
		for _, s := range r.Segments {
			v, ok := perSegment(s, m)
			if !ok {
				s.SetComparison(name, s.Comparison(name).Cleared(m))
				continue
			}
			if haveRunning {
				running = running.Add(v)
			} else {
				running = v
				haveRunning = true
			}
			s.SetComparison(name, s.Comparison(name).With(m, running))
		}
	}
}

func genBestSegments(r *run.Run, name string) {
	cumulativeFold(r, name, func(s *run.Segment, m timespan.Method) (timespan.Span, bool) {
		return s.BestSegmentTime.Get(m)
	})
}

// genFoldedHistory computes, per segment and method, a representative
// value from the segment's history deltas (treating every key, positive
// or synthetic, uniformly), then cumulative-folds those representative
// values the same way Best Segments does.
func genFoldedHistory(r *run.Run, name string, fold func(deltas []timespan.Span) (timespan.Span, bool)) {
	cumulativeFold(r, name, func(s *run.Segment, m timespan.Method) (timespan.Span, bool) {
		var deltas []timespan.Span
		for _, e := range s.History.All() {
			if v, ok := e.Time.Get(m); ok {
				deltas = append(deltas, v)
			}
		}
		return fold(deltas)
	})
}

// genBestSplitTimes computes, for each segment and method, the minimum
// across real attempt_history entries of that
// attempt's cumulative split time at this segment (not a per-segment
// delta fold, hence its own cumulative-tracking pass).
func genBestSplitTimes(r *run.Run, name string) {
	for _, m := range []timespan.Method{timespan.RealTime, timespan.GameTime} {
		running := make(map[int32]timespan.Span)
		broken := make(map[int32]bool)
		for _, s := range r.Segments {
			var best timespan.Span
			haveBest := false
			for _, e := range s.History.All() {
				if e.Index <= 0 || broken[e.Index] {
					continue
				}
				v, ok := e.Time.Get(m)
				if !ok {
					broken[e.Index] = true
					continue
				}
				cum := v
				if prev, seen := running[e.Index]; seen {
					cum = prev.Add(v)
				}
				running[e.Index] = cum
				if !haveBest || cum.Cmp(best) < 0 {
					best = cum
					haveBest = true
				}
			}
			if haveBest {
				s.SetComparison(name, s.Comparison(name).With(m, best))
			} else {
				s.SetComparison(name, s.Comparison(name).Cleared(m))
			}
		}
	}
}

// genLatestRun copies the most recently recorded real attempt's cumulative
// split times into every segment.
func genLatestRun(r *run.Run, name string) {
	var latest int32 = -1
	for _, a := range r.AttemptHistory {
		if a.Index > latest {
			latest = a.Index
		}
	}
	for _, m := range []timespan.Method{timespan.RealTime, timespan.GameTime} {
		var cum timespan.Span
		have := true
		for _, s := range r.Segments {
			if !have || latest < 0 {
				s.SetComparison(name, s.Comparison(name).Cleared(m))
				continue
			}
			v, ok := s.History.Get(latest)
			delta, dok := v.Get(m)
			if !ok || !dok {
				have = false
				s.SetComparison(name, s.Comparison(name).Cleared(m))
				continue
			}
			cum = cum.Add(delta)
			s.SetComparison(name, s.Comparison(name).With(m, cum))
		}
	}
}
