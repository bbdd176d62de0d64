package autosplit

import (
	"testing"
	"time"

	"speedruntimer/settings"
)

func TestSharedDataTickRateDefault(t *testing.T) {
	s := newSharedData(settings.NewMap())
	want := time.Duration(float64(time.Second) / settings.DefaultTickRateHz)
	if got := s.getTickRate(); got != want {
		t.Errorf("default tick rate = %v want %v", got, want)
	}
}

func TestSharedDataSetTickRate(t *testing.T) {
	s := newSharedData(settings.NewMap())
	s.setTickRate(10 * time.Millisecond)
	if got := s.getTickRate(); got != 10*time.Millisecond {
		t.Errorf("tick rate after set = %v want 10ms", got)
	}
}

func TestSharedDataSettingsCompareAndSwap(t *testing.T) {
	m := settings.NewMap()
	m.Set("k", settings.IntValue(1))
	s := newSharedData(m)

	snap := s.snapshotSettings()
	entries := map[string]settings.Value{"k": settings.IntValue(2)}
	if !s.setSettingsIfUnchanged(snap.Generation, entries) {
		t.Fatal("expected CAS to succeed against the just-loaded generation")
	}

	// Stale generation should now fail.
	if s.setSettingsIfUnchanged(snap.Generation, entries) {
		t.Fatal("expected CAS to fail against a now-stale generation")
	}
}

func TestPermFlags(t *testing.T) {
	cases := []struct {
		perms string
		want  uint64
	}{
		{"r--p", 1},
		{"-w-p", 2},
		{"--xp", 4},
		{"rwxp", 7},
		{"---p", 0},
	}
	for _, c := range cases {
		if got := permFlags(c.perms); got != c.want {
			t.Errorf("permFlags(%q) = %d want %d", c.perms, got, c.want)
		}
	}
}

func TestHandleRoundTrip(t *testing.T) {
	h := newHandle(3, 7)
	if h.slot() != 3 {
		t.Errorf("slot = %d want 3", h.slot())
	}
	if h.generation() != 7 {
		t.Errorf("generation = %d want 7", h.generation())
	}
}
