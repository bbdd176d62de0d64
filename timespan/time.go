package timespan

import "time"

// Method identifies one of the two timing methods a Time/segment carries.
type Method int

const (
	RealTime Method = iota
	GameTime
)

func (m Method) String() string {
	if m == GameTime {
		return "Game Time"
	}
	return "Real Time"
}

// Time is a pair of optional spans, one per Method. Either may be absent
// ("skipped" timing); absence propagates through Add/Sub component-wise.
type Time struct {
	real     Span
	realSet  bool
	game     Span
	gameSet  bool
}

// Empty is the zero Time: both components absent.
var Empty = Time{}

// NewTime builds a Time with both components present.
func NewTime(real, game Span) Time {
	return Time{real: real, realSet: true, game: game, gameSet: true}
}

// RealTimeOnly builds a Time with only the real-time component present.
func RealTimeOnly(real Span) Time {
	return Time{real: real, realSet: true}
}

// GameTimeOnly builds a Time with only the game-time component present.
func GameTimeOnly(game Span) Time {
	return Time{game: game, gameSet: true}
}

// Get returns the span for the given method and whether it is present.
func (t Time) Get(m Method) (Span, bool) {
	if m == GameTime {
		return t.game, t.gameSet
	}
	return t.real, t.realSet
}

// With returns a copy of t with the given method's component set.
func (t Time) With(m Method, s Span) Time {
	if m == GameTime {
		t.game = s
		t.gameSet = true
		return t
	}
	t.real = s
	t.realSet = true
	return t
}

// Cleared returns a copy of t with the given method's component removed.
func (t Time) Cleared(m Method) Time {
	if m == GameTime {
		t.game = 0
		t.gameSet = false
		return t
	}
	t.real = 0
	t.realSet = false
	return t
}

// IsEmpty returns true when neither component is present.
func (t Time) IsEmpty() bool {
	return !t.realSet && !t.gameSet
}

// Add adds two Times component-wise; a component is present in the result
// only if present in both operands (absence propagates).
func Add(a, b Time) Time {
	var out Time
	if a.realSet && b.realSet {
		out.real = a.real + b.real
		out.realSet = true
	}
	if a.gameSet && b.gameSet {
		out.game = a.game + b.game
		out.gameSet = true
	}
	return out
}

// Sub subtracts b from a component-wise; absence propagates.
func Sub(a, b Time) Time {
	var out Time
	if a.realSet && b.realSet {
		out.real = a.real - b.real
		out.realSet = true
	}
	if a.gameSet && b.gameSet {
		out.game = a.game - b.game
		out.gameSet = true
	}
	return out
}

// Min returns, component-wise, the minimum of two Times; a component
// missing from either operand is missing from the result.
func Min(a, b Time) Time {
	var out Time
	if a.realSet && b.realSet {
		out.real = Span(minInt64(int64(a.real), int64(b.real)))
		out.realSet = true
	}
	if a.gameSet && b.gameSet {
		out.game = Span(minInt64(int64(a.game), int64(b.game)))
		out.gameSet = true
	}
	return out
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// TimeStamp is a monotonic instant, independent of the wall clock, used to
// compute elapsed durations within an attempt via Sub.
type TimeStamp struct {
	mono time.Time
}

// Now captures the current monotonic instant.
func Now() TimeStamp {
	return TimeStamp{mono: time.Now()}
}

// Sub returns the Span elapsed from o to t (t - o).
func (t TimeStamp) Sub(o TimeStamp) Span {
	return FromDuration(t.mono.Sub(o.mono))
}

// Add returns a new TimeStamp offset by s.
func (t TimeStamp) Add(s Span) TimeStamp {
	return TimeStamp{mono: t.mono.Add(s.Duration())}
}

// AtomicDateTime records a wall-clock instant and whether that clock was
// known to be synchronized (e.g. via NTP) when the instant was recorded.
type AtomicDateTime struct {
	Instant time.Time
	Synced  bool
}

// NowWall returns an AtomicDateTime for the current wall-clock time.
func NowWall(synced bool) AtomicDateTime {
	return AtomicDateTime{Instant: time.Now(), Synced: synced}
}
