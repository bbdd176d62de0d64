// Copyright 2017 Istio Authors
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

// Package cli is the splittimer command line entrypoint: argument/flag
// handling lives here the way fortio kept it out of main.go so it could be
// reused by variant binaries.
package cli // import "speedruntimer/cli"

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	fortiocli "fortio.org/cli"
	"fortio.org/log"
	"fortio.org/scli"

	"speedruntimer/analysis"
	"speedruntimer/autosplit"
	"speedruntimer/bincommon"
	"speedruntimer/metrics"
	"speedruntimer/netsink"
	"speedruntimer/run"
	"speedruntimer/settings"
	"speedruntimer/stats"
	"speedruntimer/timer"
	"speedruntimer/timespan"
	"speedruntimer/version"
)

func helpArgsString() string {
	return "command\n" +
		"where command is one of: run (interactive line-oriented timer), serve (same" +
		" as run, plus a network CommandSink and metrics endpoint), or version."
}

// Main is the splittimer entrypoint, called from cmd/splittimer/main.go.
func Main() {
	fortiocli.ProgramName = "splittimer"
	fortiocli.ArgsHelp = helpArgsString()
	fortiocli.CommandBeforeFlags = true
	fortiocli.MinArgs = 0
	fortiocli.MaxArgs = 0
	scli.ServerMain() // exits the process on flag/argument errors

	switch fortiocli.Command {
	case "", "run":
		runSession(false)
	case "serve":
		runSession(true)
	case "version":
		fmt.Println(version.Full())
	default:
		fortiocli.ErrUsage("Error: unknown command %q", fortiocli.Command)
	}
}

// session is the live state one interactive run operates over.
type session struct {
	tm   *timer.Timer
	rt   *autosplit.Runtime
	loop *autosplit.Loop
	out  io.Writer
}

func runSession(serve bool) {
	r := bincommon.BuildRun()
	tm, err := timer.New(r)
	if err != nil {
		log.Fatalf("unable to construct timer: %v", err)
	}
	if m, err := bincommon.ParseTimingMethod(*bincommon.TimingMethodFlag); err == nil {
		_, _ = tm.SetCurrentTimingMethod(m)
	}
	if *bincommon.ComparisonFlag != "" {
		_, _ = tm.SetCurrentComparison(*bincommon.ComparisonFlag)
	}

	s := &session{tm: tm, out: os.Stdout}

	if *bincommon.AutoSplitterFlag != "" {
		s.attachAutoSplitter(*bincommon.AutoSplitterFlag)
	}

	var httpServer *http.Server
	if serve {
		httpServer = s.startServer()
	}

	log.Infof("splittimer %s ready (%s)", version.Short(), modeLabel(serve))
	s.repl(os.Stdin)

	if s.loop != nil {
		s.loop.Abort(true)
	}
	if httpServer != nil {
		_ = httpServer.Close()
	}
}

func modeLabel(serve bool) string {
	if serve {
		return "serve mode, bound to " + *bincommon.BindFlag
	}
	return "run mode"
}

func (s *session) attachAutoSplitter(path string) {
	module, err := os.ReadFile(path)
	if err != nil {
		log.Errf("unable to read auto-splitter module %s: %v", path, err)
		return
	}
	cfg := autosplit.DefaultConfig()
	cfg.SettingsMap.Set("tick-rate", settings.FloatValue(bincommon.TickRateFlag.Get()))
	rt, err := autosplit.New(module, s.tm, cfg)
	if err != nil {
		log.Errf("unable to load auto-splitter module %s: %v", path, err)
		return
	}
	s.rt = rt
	s.loop = autosplit.NewLoop(rt)
	go s.loop.Run()
	log.Infof("auto-splitter loaded from %s", path)
}

func (s *session) startServer() *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/command", netsink.NewServer(s.tm))
	mux.HandleFunc("/metrics", metrics.Exporter(metrics.Source{Timer: s.tm, Runtime: s.rt}))
	addr, err := netsink.NormalizeBindAddress(*bincommon.BindFlag)
	if err != nil {
		log.Fatalf("invalid -bind value %q: %v", *bincommon.BindFlag, err)
	}
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errf("netsink server error: %v", err)
		}
	}()
	log.Infof("listening on %s (/command, /metrics)", addr)
	return srv
}

// repl reads one command per line from in and dispatches it against the
// session's Timer until EOF or "quit"/"exit", exposing the Timer as a
// line-oriented command sink.
func (s *session) repl(in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd := fields[0]
		args := fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return
		}
		s.dispatch(cmd, args)
	}
}

func (s *session) dispatch(cmd string, args []string) {
	var event timer.Event
	var err error
	switch cmd {
	case "start":
		event, err = s.tm.Start()
	case "split":
		event, err = s.tm.Split()
	case "split-or-start":
		event, err = s.tm.SplitOrStart()
	case "skip-split":
		event, err = s.tm.SkipSplit()
	case "undo-split":
		event, err = s.tm.UndoSplit()
	case "pause":
		event, err = s.tm.Pause()
	case "resume":
		event, err = s.tm.Resume()
	case "toggle-pause":
		event, err = s.tm.TogglePause()
	case "toggle-pause-or-start":
		event, err = s.tm.TogglePauseOrStart()
	case "undo-all-pauses":
		event, err = s.tm.UndoAllPauses()
	case "reset":
		event, err = s.reset(args)
	case "reset-pb":
		event, err = s.tm.ResetAndSetAttemptAsPB()
	case "prev-comparison":
		event, err = s.tm.SwitchToPreviousComparison()
	case "next-comparison":
		event, err = s.tm.SwitchToNextComparison()
	case "comparison":
		event, err = s.comparison(args)
	case "timing-method":
		event, err = s.timingMethod(args)
	case "toggle-timing-method":
		event, err = s.tm.ToggleTimingMethod()
	case "init-game-time":
		event, err = s.tm.InitializeGameTime()
	case "set-game-time":
		event, err = s.setGameTime(args)
	case "pause-game-time":
		event, err = s.tm.PauseGameTime()
	case "resume-game-time":
		event, err = s.tm.ResumeGameTime()
	case "set-loading-times":
		event, err = s.setLoadingTimes(args)
	case "set-var":
		event, err = s.setVar(args)
	case "autosplitter":
		s.cmdAutoSplitter(args)
		return
	case "status":
		s.printStatus()
		return
	default:
		fmt.Fprintf(s.out, "unknown command %q\n", cmd)
		return
	}
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "ok: %s\n", event)
}

func (s *session) reset(args []string) (timer.Event, error) {
	save := true
	if len(args) > 0 && strings.EqualFold(args[0], "nosave") {
		save = false
	}
	event, err := s.tm.Reset(save)
	if err == nil && *bincommon.HistoryLimitFlag > 0 {
		s.tm.Run().PruneAttemptHistory(*bincommon.HistoryLimitFlag)
	}
	return event, err
}

func (s *session) comparison(args []string) (timer.Event, error) {
	if len(args) == 0 {
		return 0, timer.ErrComparisonDoesntExist
	}
	return s.tm.SetCurrentComparison(strings.Join(args, " "))
}

func (s *session) timingMethod(args []string) (timer.Event, error) {
	if len(args) == 0 {
		return 0, timer.ErrCouldNotParseTime
	}
	m, err := bincommon.ParseTimingMethod(args[0])
	if err != nil {
		return 0, err
	}
	return s.tm.SetCurrentTimingMethod(m)
}

func (s *session) setGameTime(args []string) (timer.Event, error) {
	if len(args) == 0 {
		return 0, timer.ErrCouldNotParseTime
	}
	span, err := timespan.Parse(args[0])
	if err != nil {
		return 0, timer.ErrCouldNotParseTime
	}
	return s.tm.SetGameTime(span)
}

func (s *session) setLoadingTimes(args []string) (timer.Event, error) {
	if len(args) == 0 {
		return 0, timer.ErrCouldNotParseTime
	}
	span, err := timespan.Parse(args[0])
	if err != nil {
		return 0, timer.ErrCouldNotParseTime
	}
	return s.tm.SetLoadingTimes(span)
}

func (s *session) setVar(args []string) (timer.Event, error) {
	if len(args) < 1 {
		return 0, timer.ErrUnsupported
	}
	name := args[0]
	value := ""
	if len(args) > 1 {
		value = strings.Join(args[1:], " ")
	}
	return s.tm.SetCustomVariable(name, value)
}

func (s *session) cmdAutoSplitter(args []string) {
	if len(args) == 0 {
		if s.rt == nil {
			fmt.Fprintln(s.out, "no auto-splitter loaded")
			return
		}
		fmt.Fprintf(s.out, "auto-splitter: %d handles, trapped=%v, tick-rate=%s\n",
			s.rt.Handles(), s.rt.Trapped(), s.rt.TickRate())
		return
	}
	if s.loop != nil {
		s.loop.Abort(true)
	}
	s.attachAutoSplitter(args[0])
}

func (s *session) printStatus() {
	r := s.tm.Run()
	fmt.Fprintf(s.out, "phase: %s, split: %d/%d, comparison: %s, method: %s\n",
		s.tm.CurrentPhase(), s.tm.CurrentSplitIndex()+1, len(r.Segments),
		s.tm.CurrentComparison(), s.tm.CurrentTimingMethod())
	if s.tm.CurrentPhase() == timer.Running || s.tm.CurrentPhase() == timer.PhasePaused {
		pace, err := analysis.CurrentPace(s.tm, s.tm.CurrentComparison())
		if err == nil {
			fmt.Fprintf(s.out, "pace vs %s: %s, pb chance: %s\n",
				s.tm.CurrentComparison(), pace, formatChance(analysis.PBChance(s.tm)))
		}
	}
	fmt.Fprintf(s.out, "total playtime across history: %s\n", analysis.TotalPlaytime(r))
	s.printPercentiles(r)
}

// printPercentiles reports the -percentiles cutoffs of the recorded
// attempt finish times, the way fortio reports latency percentiles for a
// load test's response times.
func (s *session) printPercentiles(r *run.Run) {
	if len(r.AttemptHistory) == 0 {
		return
	}
	percentiles, err := stats.ParsePercentiles(*bincommon.PercentilesFlag)
	if err != nil {
		fmt.Fprintf(s.out, "invalid -percentiles: %v\n", err)
		return
	}
	h := stats.NewHistogram(0, 1)
	for _, a := range r.AttemptHistory {
		method := s.tm.CurrentTimingMethod()
		if span, ok := a.Time.Get(method); ok {
			h.Record(span.Seconds())
		}
	}
	data := h.Export(percentiles)
	for _, p := range data.Percentiles {
		fmt.Fprintf(s.out, "p%g finish time: %.3fs\n", p.Percentile, p.Value)
	}
}

func formatChance(p float64) string {
	return strconv.FormatFloat(p*100, 'f', 1, 64) + "%"
}
