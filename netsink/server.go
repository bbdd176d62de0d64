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

// Package netsink is the optional network-backed timer.CommandSink: a
// single JSON endpoint a remote control surface (a companion app, a
// second machine) can drive the same way an in-process caller drives a
// *timer.Timer directly. The core timing engine has no listener of its
// own; this package is an alternate CommandSink implementation, not part
// of the default path.
package netsink // import "speedruntimer/netsink"

import (
	"net/http"

	"fortio.org/log"
	"speedruntimer/jrpc"
	"speedruntimer/timer"
	"speedruntimer/timespan"
	"speedruntimer/util"
)

// Request is the single envelope every command is sent as. Only the
// fields the named Command needs are read; the rest are ignored.
type Request struct {
	Command      string          `json:"command"`
	Comparison   string          `json:"comparison,omitempty"`
	Name         string          `json:"name,omitempty"`
	Value        string          `json:"value,omitempty"`
	TimingMethod timespan.Method `json:"timingMethod,omitempty"`
	GameTime     string          `json:"gameTime,omitempty"`
	LoadingTimes string          `json:"loadingTimes,omitempty"`
	Save         bool            `json:"save,omitempty"`
}

// Response carries the outcome of one Request.
type Response struct {
	Event string `json:"event"`
	Error string `json:"error,omitempty"`
}

// Server dispatches Requests against a single timer.CommandSink. It has
// no state of its own beyond the sink reference, so the same Server can
// be reused across ServeMux registrations.
type Server struct {
	Sink timer.CommandSink
}

// NewServer returns a Server backed by sink.
func NewServer(sink timer.CommandSink) *Server {
	return &Server{Sink: sink}
}

// ServeHTTP implements http.Handler. A single POST endpoint, the command
// name selects the sink method to invoke.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log.LogRequest(r, "netsink")
	if r.Method != http.MethodPost {
		_ = jrpc.ReplyError(w, "method not allowed", nil)
		return
	}
	req, err := jrpc.ProcessRequest[Request](r)
	if err != nil {
		_ = jrpc.ReplyError(w, "invalid request body", err)
		return
	}
	event, cmdErr := s.dispatch(req)
	resp := Response{Event: event.String()}
	if cmdErr != nil {
		resp.Error = cmdErr.Error()
		_ = jrpc.Reply(w, http.StatusOK, &resp)
		return
	}
	_ = jrpc.ReplyOk(w, &resp)
}

func (s *Server) dispatch(req *Request) (timer.Event, error) {
	switch req.Command {
	case "start":
		return s.Sink.Start()
	case "split":
		return s.Sink.Split()
	case "split_or_start":
		return s.Sink.SplitOrStart()
	case "skip_split":
		return s.Sink.SkipSplit()
	case "undo_split":
		return s.Sink.UndoSplit()
	case "pause":
		return s.Sink.Pause()
	case "resume":
		return s.Sink.Resume()
	case "toggle_pause":
		return s.Sink.TogglePause()
	case "toggle_pause_or_start":
		return s.Sink.TogglePauseOrStart()
	case "undo_all_pauses":
		return s.Sink.UndoAllPauses()
	case "reset":
		return s.Sink.Reset(req.Save)
	case "reset_and_set_attempt_as_pb":
		return s.Sink.ResetAndSetAttemptAsPB()
	case "previous_comparison":
		return s.Sink.SwitchToPreviousComparison()
	case "next_comparison":
		return s.Sink.SwitchToNextComparison()
	case "set_comparison":
		return s.Sink.SetCurrentComparison(req.Comparison)
	case "set_timing_method":
		return s.Sink.SetCurrentTimingMethod(req.TimingMethod)
	case "toggle_timing_method":
		return s.Sink.ToggleTimingMethod()
	case "initialize_game_time":
		return s.Sink.InitializeGameTime()
	case "set_game_time":
		return s.setGameTime(req)
	case "pause_game_time":
		return s.Sink.PauseGameTime()
	case "resume_game_time":
		return s.Sink.ResumeGameTime()
	case "set_loading_times":
		return s.setLoadingTimes(req)
	case "set_custom_variable":
		return s.Sink.SetCustomVariable(req.Name, req.Value)
	default:
		return 0, timer.ErrUnsupported
	}
}

func (s *Server) setGameTime(req *Request) (timer.Event, error) {
	span, err := timespan.Parse(req.GameTime)
	if err != nil {
		return 0, timer.ErrCouldNotParseTime
	}
	return s.Sink.SetGameTime(span)
}

func (s *Server) setLoadingTimes(req *Request) (timer.Event, error) {
	span, err := timespan.Parse(req.LoadingTimes)
	if err != nil {
		return 0, timer.ErrCouldNotParseTime
	}
	return s.Sink.SetLoadingTimes(span)
}

// NormalizeBindAddress validates and normalizes a "host:port" or "port"
// listen address the same way the rest of this module's servers do.
func NormalizeBindAddress(hostport string) (string, error) {
	return util.NormalizePort(hostport)
}
