package timespan

import (
	"testing"
	"time"
)

func TestParseAndString(t *testing.T) {
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"00:00:10.000", 10 * time.Second},
		{"10", 10 * time.Second},
		{"1:30", 90 * time.Second},
		{"1:00:00", time.Hour},
		{"-5.000", -5 * time.Second},
		{"2.01:00:00.000", 49 * time.Hour},
		{"-1:00:00.500", -(time.Hour + 500*time.Millisecond)},
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.input, err)
		}
		if got.Duration() != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.input, got.Duration(), tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, bad := range []string{"", "a:b:c", "1:2:3:4"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q) expected error", bad)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	s := FromSeconds(3725.125)
	str := s.String()
	got, err := Parse(str)
	if err != nil {
		t.Fatalf("Parse(%q): %v", str, err)
	}
	if diff := got.Sub(s); diff.Duration() > time.Millisecond || diff.Duration() < -time.Millisecond {
		t.Errorf("round trip %v -> %q -> %v not close enough", s, str, got)
	}
}

func TestTimeAddSubAbsence(t *testing.T) {
	a := NewTime(FromSeconds(10), FromSeconds(8))
	b := RealTimeOnly(FromSeconds(3))
	sum := Add(a, b)
	if _, ok := sum.Get(GameTime); ok {
		t.Errorf("expected game time absent when one operand lacks it")
	}
	if real, ok := sum.Get(RealTime); !ok || real != FromSeconds(13) {
		t.Errorf("real time = %v, %v want 13s, true", real, ok)
	}
}

func TestTimeMin(t *testing.T) {
	a := NewTime(FromSeconds(10), FromSeconds(8))
	b := NewTime(FromSeconds(5), FromSeconds(12))
	m := Min(a, b)
	if real, _ := m.Get(RealTime); real != FromSeconds(5) {
		t.Errorf("min real = %v want 5s", real)
	}
	if game, _ := m.Get(GameTime); game != FromSeconds(8) {
		t.Errorf("min game = %v want 8s", game)
	}
}

func TestSpanCmp(t *testing.T) {
	if FromSeconds(1).Cmp(FromSeconds(2)) != -1 {
		t.Error("expected -1")
	}
	if FromSeconds(2).Cmp(FromSeconds(1)) != 1 {
		t.Error("expected 1")
	}
	if FromSeconds(1).Cmp(FromSeconds(1)) != 0 {
		t.Error("expected 0")
	}
}
