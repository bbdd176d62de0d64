// Copyright 2018 Fortio Authors
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

// Package bincommon is the flag handling shared by the splittimer command
// line entrypoints (today just cmd/splittimer).
package bincommon

import (
	"flag"
	"strings"

	"speedruntimer/run"
	"speedruntimer/settings"
	"speedruntimer/timespan"
)

var (
	GameFlag     = flag.String("game", "", "Game name for the run")
	CategoryFlag = flag.String("category", "", "Category name for the run")
	SegmentsFlag = flag.String("segments", "",
		"Comma separated `list` of segment names the run starts with, e.g. \"Level 1,Level 2,Boss\"")
	ComparisonFlag = flag.String("comparison", run.PersonalBestComparisonName,
		"Initial comparison to race against")
	TimingMethodFlag = flag.String("timing-method", "real",
		"Initial timing `method`, one of \"real\" or \"game\"")
	AutoSplitterFlag = flag.String("autosplitter", "",
		"`Path` to a compiled auto-splitter WASM module to load and attach at startup")
	BindFlag = flag.String("bind", "0.0.0.0:8081",
		"`host:port` to listen on for the serve command's netsink + metrics endpoints")
	HistoryLimitFlag = flag.Int("history-limit", 0,
		"If positive, prune the attempt history down to this many entries after every reset")
	PercentilesFlag = flag.String("percentiles", "50,90,99",
		"Comma separated `list` of percentiles to report for the attempt history's finish times")

	// TickRateFlag is a runtime-adjustable (admin-surface-ready) flag
	// backing the hint published into an auto-splitter's initial settings
	// map: a cooperative script reads it at startup and may choose to
	// honor it via its own runtime_set_tick_rate host call.
	TickRateFlag = settings.RegisterTickRateFlag(flag.CommandLine, settings.DefaultTickRateHz)
)

// ParseTimingMethod maps the -timing-method flag value to a timespan.Method.
func ParseTimingMethod(value string) (timespan.Method, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "real", "realtime", "real-time", "":
		return timespan.RealTime, nil
	case "game", "gametime", "game-time":
		return timespan.GameTime, nil
	default:
		return timespan.RealTime, errUnknownTimingMethod(value)
	}
}

type errUnknownTimingMethod string

func (e errUnknownTimingMethod) Error() string {
	return "unknown timing method " + string(e) + ", want \"real\" or \"game\""
}

// BuildRun constructs a Run from -game/-category/-segments, the way a
// splits file parser would populate one if this module parsed splits
// files.
func BuildRun() *run.Run {
	r := run.New()
	r.GameName = *GameFlag
	r.CategoryName = *CategoryFlag
	names := splitNonEmpty(*SegmentsFlag)
	if len(names) == 0 {
		return r
	}
	// New() seeds a single placeholder segment; replace it instead of
	// leaving an unnamed segment in front of the real ones.
	r.Segments = r.Segments[:0]
	for _, name := range names {
		r.PushSegment(name)
	}
	return r
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
