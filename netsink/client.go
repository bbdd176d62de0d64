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

package netsink

import (
	"speedruntimer/jrpc"
	"speedruntimer/timer"
	"speedruntimer/timespan"
)

// Client implements timer.CommandSink by forwarding every command to a
// Server reachable at URL. Every method blocks on the round trip, same
// as the in-process Timer blocks on its own lock.
type Client struct {
	URL string
}

// NewClient returns a Client that talks to the netsink Server at url.
func NewClient(url string) *Client {
	return &Client{URL: url}
}

var _ timer.CommandSink = (*Client)(nil)

func (c *Client) send(req *Request) (timer.Event, error) {
	resp, err := jrpc.CallURL[Response](c.URL, req)
	if err != nil {
		return 0, err
	}
	if resp.Error != "" {
		return 0, timer.ErrUnknown
	}
	return eventFromString(resp.Event), nil
}

func eventFromString(name string) timer.Event {
	for e := timer.Started; e <= timer.CustomVariableSet; e++ {
		if e.String() == name {
			return e
		}
	}
	return timer.Started
}

func (c *Client) Start() (timer.Event, error) { return c.send(&Request{Command: "start"}) }
func (c *Client) Split() (timer.Event, error) { return c.send(&Request{Command: "split"}) }

func (c *Client) SplitOrStart() (timer.Event, error) {
	return c.send(&Request{Command: "split_or_start"})
}

func (c *Client) SkipSplit() (timer.Event, error) { return c.send(&Request{Command: "skip_split"}) }
func (c *Client) UndoSplit() (timer.Event, error) { return c.send(&Request{Command: "undo_split"}) }
func (c *Client) Pause() (timer.Event, error)     { return c.send(&Request{Command: "pause"}) }
func (c *Client) Resume() (timer.Event, error)    { return c.send(&Request{Command: "resume"}) }

func (c *Client) TogglePause() (timer.Event, error) {
	return c.send(&Request{Command: "toggle_pause"})
}

func (c *Client) TogglePauseOrStart() (timer.Event, error) {
	return c.send(&Request{Command: "toggle_pause_or_start"})
}

func (c *Client) UndoAllPauses() (timer.Event, error) {
	return c.send(&Request{Command: "undo_all_pauses"})
}

func (c *Client) Reset(save bool) (timer.Event, error) {
	return c.send(&Request{Command: "reset", Save: save})
}

func (c *Client) ResetAndSetAttemptAsPB() (timer.Event, error) {
	return c.send(&Request{Command: "reset_and_set_attempt_as_pb"})
}

func (c *Client) SwitchToPreviousComparison() (timer.Event, error) {
	return c.send(&Request{Command: "previous_comparison"})
}

func (c *Client) SwitchToNextComparison() (timer.Event, error) {
	return c.send(&Request{Command: "next_comparison"})
}

func (c *Client) SetCurrentComparison(name string) (timer.Event, error) {
	return c.send(&Request{Command: "set_comparison", Comparison: name})
}

func (c *Client) SetCurrentTimingMethod(m timespan.Method) (timer.Event, error) {
	return c.send(&Request{Command: "set_timing_method", TimingMethod: m})
}

func (c *Client) ToggleTimingMethod() (timer.Event, error) {
	return c.send(&Request{Command: "toggle_timing_method"})
}

func (c *Client) InitializeGameTime() (timer.Event, error) {
	return c.send(&Request{Command: "initialize_game_time"})
}

func (c *Client) SetGameTime(gameTime timespan.Span) (timer.Event, error) {
	return c.send(&Request{Command: "set_game_time", GameTime: gameTime.String()})
}

func (c *Client) PauseGameTime() (timer.Event, error) {
	return c.send(&Request{Command: "pause_game_time"})
}

func (c *Client) ResumeGameTime() (timer.Event, error) {
	return c.send(&Request{Command: "resume_game_time"})
}

func (c *Client) SetLoadingTimes(loading timespan.Span) (timer.Event, error) {
	return c.send(&Request{Command: "set_loading_times", LoadingTimes: loading.String()})
}

func (c *Client) SetCustomVariable(name, value string) (timer.Event, error) {
	return c.send(&Request{Command: "set_custom_variable", Name: name, Value: value})
}
