package comparison

import (
	"testing"

	"speedruntimer/run"
	"speedruntimer/timespan"
)

func buildRun(n int) *run.Run {
	r := run.New()
	r.Segments = r.Segments[:0]
	for i := 0; i < n; i++ {
		r.PushSegment("seg")
	}
	return r
}

func TestNoneGeneratorAllEmpty(t *testing.T) {
	r := buildRun(3)
	Regenerate(r)
	for _, s := range r.Segments {
		if !s.Comparison("None").IsEmpty() {
			t.Errorf("None comparison should always be empty, got %v", s.Comparison("None"))
		}
	}
}

func TestBestSegmentsCumulative(t *testing.T) {
	r := buildRun(3)
	r.Segments[0].BestSegmentTime = timespan.RealTimeOnly(timespan.FromSeconds(5))
	r.Segments[1].BestSegmentTime = timespan.RealTimeOnly(timespan.FromSeconds(7))
	r.Segments[2].BestSegmentTime = timespan.RealTimeOnly(timespan.FromSeconds(3))
	Regenerate(r)
	want := []float64{5, 12, 15}
	for i, s := range r.Segments {
		v, ok := s.Comparison("Best Segments").Get(timespan.RealTime)
		if !ok {
			t.Fatalf("segment %d: expected value", i)
		}
		if v.Seconds() != want[i] {
			t.Errorf("segment %d = %v want %vs", i, v.Seconds(), want[i])
		}
	}
}

func TestBestSegmentsSkipsGapsButResumes(t *testing.T) {
	r := buildRun(3)
	r.Segments[0].BestSegmentTime = timespan.RealTimeOnly(timespan.FromSeconds(5))
	// segment 1 has no best segment time (absent)
	r.Segments[2].BestSegmentTime = timespan.RealTimeOnly(timespan.FromSeconds(3))
	Regenerate(r)
	if !r.Segments[1].Comparison("Best Segments").IsEmpty() {
		t.Errorf("segment with no best-segment data should emit empty comparison")
	}
	v2, ok := r.Segments[2].Comparison("Best Segments").Get(timespan.RealTime)
	if !ok || v2.Seconds() != 8 {
		t.Errorf("segment 2 cumulative = %v, %v want 8s (resumed from segment 0's running total)", v2, ok)
	}
}

func TestAverageMedianWorstSegments(t *testing.T) {
	r := buildRun(1)
	s := r.Segments[0]
	s.History.Insert(1, timespan.RealTimeOnly(timespan.FromSeconds(10)))
	s.History.Insert(2, timespan.RealTimeOnly(timespan.FromSeconds(20)))
	s.History.Insert(3, timespan.RealTimeOnly(timespan.FromSeconds(30)))
	Regenerate(r)
	avg, _ := s.Comparison("Average Segments").Get(timespan.RealTime)
	if avg.Seconds() != 20 {
		t.Errorf("average = %v want 20s", avg.Seconds())
	}
	median, _ := s.Comparison("Median Segments").Get(timespan.RealTime)
	if median.Seconds() != 20 {
		t.Errorf("median = %v want 20s", median.Seconds())
	}
	worst, _ := s.Comparison("Worst Segments").Get(timespan.RealTime)
	if worst.Seconds() != 30 {
		t.Errorf("worst = %v want 30s", worst.Seconds())
	}
}

func TestBestSplitTimesUsesOnlyRealAttempts(t *testing.T) {
	r := buildRun(2)
	r.Segments[0].History.Insert(1, timespan.RealTimeOnly(timespan.FromSeconds(10)))
	r.Segments[1].History.Insert(1, timespan.RealTimeOnly(timespan.FromSeconds(15)))
	// synthetic import should be ignored by Best Split Times.
	r.Segments[0].History.Insert(-1, timespan.RealTimeOnly(timespan.FromSeconds(1)))
	r.Segments[1].History.Insert(-1, timespan.RealTimeOnly(timespan.FromSeconds(1)))
	Regenerate(r)
	v0, _ := r.Segments[0].Comparison("Best Split Times").Get(timespan.RealTime)
	v1, _ := r.Segments[1].Comparison("Best Split Times").Get(timespan.RealTime)
	if v0.Seconds() != 10 {
		t.Errorf("segment 0 best split = %v want 10s", v0.Seconds())
	}
	if v1.Seconds() != 25 {
		t.Errorf("segment 1 best split = %v want 25s (cumulative 10+15)", v1.Seconds())
	}
}

func TestLatestRun(t *testing.T) {
	r := buildRun(2)
	r.Segments[0].History.Insert(1, timespan.RealTimeOnly(timespan.FromSeconds(5)))
	r.Segments[1].History.Insert(1, timespan.RealTimeOnly(timespan.FromSeconds(6)))
	r.Segments[0].History.Insert(2, timespan.RealTimeOnly(timespan.FromSeconds(4)))
	r.Segments[1].History.Insert(2, timespan.RealTimeOnly(timespan.FromSeconds(7)))
	r.AttemptHistory = []run.Attempt{{Index: 1}, {Index: 2}}
	Regenerate(r)
	v0, _ := r.Segments[0].Comparison("Latest Run").Get(timespan.RealTime)
	v1, _ := r.Segments[1].Comparison("Latest Run").Get(timespan.RealTime)
	if v0.Seconds() != 4 || v1.Seconds() != 11 {
		t.Errorf("latest run = %v, %v want 4s, 11s (attempt 2)", v0.Seconds(), v1.Seconds())
	}
}

func TestBalancedPBMonotonicAndFloored(t *testing.T) {
	r := buildRun(3)
	r.Segments[0].PersonalBestSplitTime = timespan.RealTimeOnly(timespan.FromSeconds(10))
	r.Segments[1].PersonalBestSplitTime = timespan.RealTimeOnly(timespan.FromSeconds(25))
	r.Segments[2].PersonalBestSplitTime = timespan.RealTimeOnly(timespan.FromSeconds(45))
	r.Segments[0].BestSegmentTime = timespan.RealTimeOnly(timespan.FromSeconds(8))
	r.Segments[1].BestSegmentTime = timespan.RealTimeOnly(timespan.FromSeconds(12))
	r.Segments[2].BestSegmentTime = timespan.RealTimeOnly(timespan.FromSeconds(15))
	Regenerate(r)
	var prev timespan.Span
	for i, s := range r.Segments {
		v, ok := s.Comparison("Balanced PB").Get(timespan.RealTime)
		if !ok {
			t.Fatalf("segment %d missing Balanced PB", i)
		}
		if i > 0 && v.Cmp(prev) < 0 {
			t.Errorf("Balanced PB not monotonic at segment %d: %v < %v", i, v, prev)
		}
		prev = v
	}
	last, _ := r.Segments[2].Comparison("Balanced PB").Get(timespan.RealTime)
	if last.Seconds() != 45 {
		t.Errorf("Balanced PB total = %v want to equal PB total 45s", last.Seconds())
	}
}

func TestPercentileGeneratorDeterministic(t *testing.T) {
	r := buildRun(1)
	s := r.Segments[0]
	for i, v := range []float64{10, 12, 14, 16, 18, 20} {
		s.History.Insert(int32(i+1), timespan.RealTimeOnly(timespan.FromSeconds(v)))
	}
	Regenerate(r)
	r2 := buildRun(1)
	s2 := r2.Segments[0]
	for i, v := range []float64{10, 12, 14, 16, 18, 20} {
		s2.History.Insert(int32(i+1), timespan.RealTimeOnly(timespan.FromSeconds(v)))
	}
	Regenerate(r2)
	v1, _ := s.Comparison("75% Percentile").Get(timespan.RealTime)
	v2, _ := s2.Comparison("75% Percentile").Get(timespan.RealTime)
	if v1 != v2 {
		t.Errorf("percentile generator not deterministic: %v vs %v", v1, v2)
	}
}
