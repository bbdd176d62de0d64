package comparison

import (
	"sort"

	"speedruntimer/stats"
	"speedruntimer/timespan"
)

// averageOf returns the arithmetic mean of deltas,
// grounded on fortio's stats.Counter which already folds Sum/Count.
func averageOf(deltas []timespan.Span) (timespan.Span, bool) {
	if len(deltas) == 0 {
		return 0, false
	}
	var c stats.Counter
	for _, d := range deltas {
		c.Record(d.Seconds())
	}
	return timespan.FromSeconds(c.Avg()), true
}

// worstOf returns the maximum of deltas; stats.Counter
// tracks Max as it records, so this is a direct fold over it.
func worstOf(deltas []timespan.Span) (timespan.Span, bool) {
	if len(deltas) == 0 {
		return 0, false
	}
	var c stats.Counter
	for _, d := range deltas {
		c.Record(d.Seconds())
	}
	return timespan.FromSeconds(c.Max), true
}

// medianOf returns the exact median of deltas. Like Average/Worst (and
// unlike Percentile), the value is exact: this sorts directly rather than
// going through stats.Histogram's bucket estimate.
func medianOf(deltas []timespan.Span) (timespan.Span, bool) {
	if len(deltas) == 0 {
		return 0, false
	}
	secs := make([]float64, len(deltas))
	for i, d := range deltas {
		secs[i] = d.Seconds()
	}
	sort.Float64s(secs)
	n := len(secs)
	var median float64
	if n%2 == 1 {
		median = secs[n/2]
	} else {
		median = (secs[n/2-1] + secs[n/2]) / 2
	}
	return timespan.FromSeconds(median), true
}

// percentileOf returns a fold function computing the p-th percentile of
// deltas, using the same histogram-based estimator as latency percentile
// reporting.
func percentileOf(p float64) func([]timespan.Span) (timespan.Span, bool) {
	return func(deltas []timespan.Span) (timespan.Span, bool) {
		if len(deltas) == 0 {
			return 0, false
		}
		h := stats.NewHistogram(0, 0.001) // 1ms resolution, values recorded in seconds
		for _, d := range deltas {
			h.Record(d.Seconds())
		}
		return timespan.FromSeconds(h.CalcPercentile(p)), true
	}
}
