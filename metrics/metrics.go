// Copyright 2023 Fortio Authors
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

// Package metrics provides a minimal Prometheus style metrics export for the
// timer and, when one is attached, the auto-splitter runtime.
package metrics // import "speedruntimer/metrics"

import (
	"io"
	"net/http"
	"runtime"
	"strconv"

	"fortio.org/log"
	"fortio.org/scli"
	"speedruntimer/autosplit"
	"speedruntimer/timer"
)

// Source is the set of live objects metrics are pulled from. Runtime is nil
// when no auto-splitter script is loaded.
type Source struct {
	Timer   *timer.Timer
	Runtime *autosplit.Runtime
}

// Exporter returns an http.HandlerFunc that writes the metrics for src.
func Exporter(src Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.LogRequest(r, "metrics")
		w.Header().Set("Content-Type", "text/plain")
		writeGauge(w, "splittimer_num_fd", "Number of open file descriptors", strconv.Itoa(scli.NumFD()))
		writeGauge(w, "splittimer_goroutines", "Current number of goroutines",
			strconv.Itoa(runtime.NumGoroutine()))
		if src.Timer != nil {
			writeGauge(w, "splittimer_phase", "Current timer phase (0=NotRunning,1=Running,2=Paused,3=Ended)",
				strconv.Itoa(int(src.Timer.CurrentPhase())))
			writeGauge(w, "splittimer_current_split_index", "Current split index, -1 if not running",
				strconv.Itoa(src.Timer.CurrentSplitIndex()))
			writeGauge(w, "splittimer_events_total", "Number of events recorded so far",
				strconv.Itoa(len(src.Timer.Events())))
		}
		if src.Runtime != nil {
			writeGauge(w, "splittimer_autosplit_handles", "Number of live auto-splitter host handles",
				strconv.Itoa(src.Runtime.Handles()))
			writeGauge(w, "splittimer_autosplit_trapped", "1 if the auto-splitter script has trapped, 0 otherwise",
				boolToStr(src.Runtime.Trapped()))
			writeGauge(w, "splittimer_autosplit_tick_rate_hz", "Current auto-splitter polling frequency in Hz",
				strconv.FormatFloat(1/src.Runtime.TickRate().Seconds(), 'g', -1, 64))
		}
	}
}

func boolToStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func writeGauge(w io.Writer, name, help, value string) {
	_, _ = io.WriteString(w, "# HELP "+name+" "+help+"\n# TYPE "+name+" gauge\n"+name+" "+value+"\n")
}
