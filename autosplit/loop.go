package autosplit

import (
	"time"

	"fortio.org/log"

	"speedruntimer/periodic"
)

// Loop drives a Runtime on its own background goroutine: acquire the
// Timer's write lock implicitly by calling Update (the host calls
// bound into the module are what actually touch the Timer), sleep for
// the runtime's current tick rate, repeat// contract", §5 "auto-splitter thread"). Stopping uses the same
// Aborter the load-generator runner uses to stop its worker threads.
type Loop struct {
	rt      *Runtime
	aborter *periodic.Aborter
}

// NewLoop wraps rt in a stoppable background loop.
func NewLoop(rt *Runtime) *Loop {
	return &Loop{rt: rt, aborter: periodic.NewAborter()}
}

// Run ticks the runtime at its current tick rate until Abort is called.
// Intended to be run in its own goroutine.
func (l *Loop) Run() {
	runnerChan, shouldAbort := l.aborter.RecordStart()
	if shouldAbort {
		l.aborter.Reset()
		return
	}
	for {
		select {
		case <-runnerChan:
			return
		default:
		}
		if err := l.rt.Update(); err != nil {
			log.Warnf("autosplit: update failed: %v", err)
		}
		if l.rt.Trapped() {
			return
		}
		tick := l.rt.TickRate()
		if tick <= 0 {
			tick = time.Duration(float64(time.Second) / 120)
		}
		select {
		case <-runnerChan:
			return
		case <-time.After(tick):
		}
	}
}

// Abort requests the loop stop; Run returns at its next check, before the
// next update or during the sleep between ticks. With wait true, Abort
// first blocks until Run has started, as periodic.Aborter.Abort does.
func (l *Loop) Abort(wait bool) {
	l.aborter.Abort(wait)
}

// InterruptHandle exposes the runtime's cooperative interrupt, for
// aborting a single runaway update() call without stopping the loop.
func (l *Loop) InterruptHandle() InterruptHandle {
	return l.rt.InterruptHandle()
}
