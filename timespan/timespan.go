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

// Package timespan holds the leaf time primitives of the timing engine:
// a signed sub-millisecond duration, a real/game time pair, a monotonic
// instant, and a wall clock timestamp with a synced flag.
package timespan // import "speedruntimer/timespan"

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Span is a signed duration with sub-millisecond precision, stored as
// nanoseconds the way stdlib time.Duration is, but with its own type so
// Time/TimingMethod arithmetic can't be confused with wall-clock math.
type Span time.Duration

// Zero is the zero-value span, exported for readability at call sites.
const Zero Span = 0

// FromDuration wraps a stdlib duration.
func FromDuration(d time.Duration) Span {
	return Span(d)
}

// Duration unwraps back to a stdlib duration.
func (s Span) Duration() time.Duration {
	return time.Duration(s)
}

// Seconds returns the span as a floating point number of seconds.
func (s Span) Seconds() float64 {
	return time.Duration(s).Seconds()
}

// FromSeconds builds a Span from a floating point number of seconds.
func FromSeconds(secs float64) Span {
	return Span(secs * float64(time.Second))
}

func (s Span) Add(o Span) Span      { return s + o }
func (s Span) Sub(o Span) Span      { return s - o }
func (s Span) Negate() Span         { return -s }
func (s Span) IsNegative() bool     { return s < 0 }
func (s Span) IsZero() bool         { return s == 0 }
func (s Span) Cmp(o Span) int {
	switch {
	case s < o:
		return -1
	case s > o:
		return 1
	default:
		return 0
	}
}

// MinSpan returns the smaller of the two spans.
func MinSpan(a, b Span) Span {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of the two spans.
func Max(a, b Span) Span {
	if a > b {
		return a
	}
	return b
}

// String formats as [-][DD.]HH:MM:SS.mmm, matching the parser's Parse below
// (day prefix only when the magnitude is >= 24h).
func (s Span) String() string {
	neg := s < 0
	d := time.Duration(s)
	if neg {
		d = -d
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	millis := d / time.Millisecond

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if days > 0 {
		fmt.Fprintf(&b, "%d.", days)
	}
	fmt.Fprintf(&b, "%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
	return b.String()
}

// Parse parses "[-][DD.]HH:MM:SS[.mmm]" (the same shape the splits-file
// parsers and the UI time-entry boxes use upstream). Hours may be more
// than two digits (no day component needed for runs under 100h).
func Parse(input string) (Span, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return 0, fmt.Errorf("timespan: empty input")
	}
	neg := false
	if strings.HasPrefix(raw, "-") {
		neg = true
		raw = raw[1:]
	}
	var days int64
	if idx := strings.Index(raw, "."); idx >= 0 {
		if colonIdx := strings.Index(raw, ":"); colonIdx >= 0 && idx < colonIdx {
			dayPart := raw[:idx]
			rest := raw[idx+1:]
			d, err := strconv.ParseInt(dayPart, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("timespan: bad day prefix %q: %w", dayPart, err)
			}
			days = d
			raw = rest
		}
	}
	parts := strings.Split(raw, ":")
	var hours, minutes int64
	var secondsStr string
	switch len(parts) {
	case 1:
		secondsStr = parts[0]
	case 2:
		m, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("timespan: bad minutes %q: %w", parts[0], err)
		}
		minutes = m
		secondsStr = parts[1]
	case 3:
		h, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("timespan: bad hours %q: %w", parts[0], err)
		}
		m, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("timespan: bad minutes %q: %w", parts[1], err)
		}
		hours = h
		minutes = m
		secondsStr = parts[2]
	default:
		return 0, fmt.Errorf("timespan: too many ':' separated fields in %q", input)
	}
	seconds, err := strconv.ParseFloat(secondsStr, 64)
	if err != nil {
		return 0, fmt.Errorf("timespan: bad seconds %q: %w", secondsStr, err)
	}
	total := float64(days)*24*3600 + float64(hours)*3600 + float64(minutes)*60 + seconds
	if neg {
		total = -total
	}
	return FromSeconds(total), nil
}
