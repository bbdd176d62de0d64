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

package netsink_test

import (
	"net/http/httptest"
	"testing"

	"speedruntimer/netsink"
	"speedruntimer/run"
	"speedruntimer/timer"
)

func newTimer(t *testing.T) *timer.Timer {
	t.Helper()
	tm, err := timer.New(run.New())
	if err != nil {
		t.Fatalf("timer.New: %v", err)
	}
	return tm
}

func TestServerStartAndSplitOverHTTP(t *testing.T) {
	tm := newTimer(t)
	srv := httptest.NewServer(netsink.NewServer(tm))
	defer srv.Close()

	c := netsink.NewClient(srv.URL)
	ev, err := c.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if ev != timer.Started {
		t.Errorf("got event %v, want Started", ev)
	}
	if tm.CurrentPhase() != timer.Running {
		t.Errorf("timer phase = %v, want Running", tm.CurrentPhase())
	}

	if _, err := c.Start(); err == nil {
		t.Error("second Start over the wire should fail")
	}
}

func TestServerSplitBeforeStartErrors(t *testing.T) {
	tm := newTimer(t)
	srv := httptest.NewServer(netsink.NewServer(tm))
	defer srv.Close()

	c := netsink.NewClient(srv.URL)
	if _, err := c.Split(); err == nil {
		t.Error("Split before Start over the wire should report an error")
	}
}

func TestServerSetCustomVariableRoundTrip(t *testing.T) {
	tm := newTimer(t)
	srv := httptest.NewServer(netsink.NewServer(tm))
	defer srv.Close()

	c := netsink.NewClient(srv.URL)
	if _, err := c.SetCustomVariable("region", "NA"); err != nil {
		t.Fatalf("SetCustomVariable: %v", err)
	}
}
