package comparison

import (
	"speedruntimer/run"
	"speedruntimer/timespan"
)

// genBalancedPB (see DESIGN.md open question 2) uses PB split times as
// the baseline total and best_segment_time as a
// floor, distribute PB's total slack across segments proportionally to
// each segment's room for improvement (pbDelta - bestSegment), clamped at
// zero. Falls back to an even split if every segment is already at its
// best segment (no slack to distribute). Produces a monotonically
// increasing cumulative comparison with every per-segment target >=
// best_segment_time, as required.
func genBalancedPB(r *run.Run, name string) {
	for _, m := range []timespan.Method{timespan.RealTime, timespan.GameTime} {
		n := len(r.Segments)
		pbDeltas := make([]timespan.Span, n)
		bestSegs := make([]timespan.Span, n)
		ok := make([]bool, n)
		var prevPB timespan.Span
		havePrevPB := false
		allOK := true
		for i, s := range r.Segments {
			pb, pok := s.PersonalBestSplitTime.Get(m)
			if !pok {
				allOK = false
				continue
			}
			delta := pb
			if havePrevPB {
				delta = pb.Sub(prevPB)
			}
			prevPB = pb
			havePrevPB = true
			best, bok := s.BestSegmentTime.Get(m)
			if !bok {
				best = 0
			}
			pbDeltas[i] = delta
			bestSegs[i] = best
			ok[i] = true
		}
		if !allOK {
			for _, s := range r.Segments {
				s.SetComparison(name, s.Comparison(name).Cleared(m))
			}
			continue
		}
		var totalBest, totalPB timespan.Span
		for i := 0; i < n; i++ {
			totalBest = totalBest.Add(bestSegs[i])
			totalPB = totalPB.Add(pbDeltas[i])
		}
		slack := totalPB.Sub(totalBest)
		weights := make([]float64, n)
		var totalWeight float64
		for i := 0; i < n; i++ {
			w := pbDeltas[i].Sub(bestSegs[i]).Seconds()
			if w < 0 {
				w = 0
			}
			weights[i] = w
			totalWeight += w
		}
		if totalWeight == 0 {
			for i := range weights {
				weights[i] = 1.0 / float64(n)
			}
			totalWeight = 1.0
		}
		var running timespan.Span
		for i, s := range r.Segments {
			share := timespan.FromSeconds(slack.Seconds() * weights[i] / totalWeight)
			if slack.IsNegative() {
				share = 0
			}
			target := bestSegs[i].Add(share)
			if target.Cmp(bestSegs[i]) < 0 {
				target = bestSegs[i]
			}
			running = running.Add(target)
			s.SetComparison(name, s.Comparison(name).With(m, running))
		}
	}
}
