// Copyright 2017 Fortio Authors
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

package periodic

import (
	"sync"
	"testing"
	"time"
)

func TestAbortBeforeStart(t *testing.T) {
	a := NewAborter()
	stop := a.StopChan
	a.Abort(false)
	select {
	case <-stop:
	default:
		t.Error("expected StopChan to already be nil/closed after Abort(false)")
	}
}

func TestAbortWaitsForStart(t *testing.T) {
	a := NewAborter()
	var wg sync.WaitGroup
	wg.Add(1)
	var stopChan chan struct{}
	var aborted bool
	go func() {
		defer wg.Done()
		var shouldAbort bool
		stopChan, shouldAbort = a.RecordStart()
		if shouldAbort {
			aborted = true
			return
		}
		<-stopChan
		aborted = true
	}()
	time.Sleep(10 * time.Millisecond)
	a.Abort(true)
	wg.Wait()
	if !aborted {
		t.Error("expected run to observe the abort")
	}
}

func TestAbortIdempotent(t *testing.T) {
	a := NewAborter()
	a.Abort(false)
	a.Abort(false) // must not panic on double close
}

func TestReset(t *testing.T) {
	a := NewAborter()
	a.Abort(false)
	a.Reset()
	if a.stopRequested {
		t.Error("expected stopRequested cleared after Reset")
	}
}

func TestString(t *testing.T) {
	a := NewAborter()
	if a.String() == "" {
		t.Error("expected a non-empty String() representation")
	}
}
