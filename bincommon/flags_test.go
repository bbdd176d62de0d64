package bincommon

import "testing"

func TestParseTimingMethod(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"real", false},
		{"Real-Time", false},
		{"", false},
		{"game", false},
		{"GameTime", false},
		{"bogus", true},
	}
	for _, c := range cases {
		_, err := ParseTimingMethod(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseTimingMethod(%q) err = %v, wantErr %v", c.in, err, c.wantErr)
		}
	}
}

func TestBuildRunWithSegments(t *testing.T) {
	*SegmentsFlag = "Intro, Level 1,Boss"
	defer func() { *SegmentsFlag = "" }()
	r := BuildRun()
	if len(r.Segments) != 3 {
		t.Fatalf("got %d segments, want 3", len(r.Segments))
	}
	if r.Segments[0].Name != "Intro" || r.Segments[2].Name != "Boss" {
		t.Errorf("unexpected segment names: %+v", r.Segments)
	}
}

func TestBuildRunWithoutSegmentsKeepsPlaceholder(t *testing.T) {
	r := BuildRun()
	if len(r.Segments) != 1 {
		t.Fatalf("got %d segments, want 1 placeholder", len(r.Segments))
	}
}
