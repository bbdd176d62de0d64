package autosplit

import (
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// processRefreshInterval bounds how often ProcessList re-enumerates every
// OS process.
const processRefreshInterval = time.Second

// ProcessList is the auto-splitter runtime's cached view of OS processes.
// It is owned by the Runtime and never exposed cross-thread// "Process-list cache is owned by the auto-splitter runtime").
type ProcessList struct {
	byPID    map[int32]*process.Process
	nextScan time.Time
}

// NewProcessList returns an empty list; the first refresh happens lazily
// on the first lookup.
func NewProcessList() *ProcessList {
	return &ProcessList{byPID: make(map[int32]*process.Process)}
}

// refresh re-enumerates all OS processes if the cache is stale.
func (pl *ProcessList) refresh() {
	now := time.Now()
	if now.Before(pl.nextScan) {
		return
	}
	procs, err := process.Processes()
	if err == nil {
		fresh := make(map[int32]*process.Process, len(procs))
		for _, p := range procs {
			fresh[p.Pid] = p
		}
		pl.byPID = fresh
	}
	pl.nextScan = now.Add(processRefreshInterval)
}

// refreshOne re-checks a single pid cheaply. An unknown pid triggers a
// (rate-limited) full refresh; a known pid that is no longer running is
// dropped from the cache and the next refresh() is forced to re-scan
// (gopsutil has no targeted "is this one gone" primitive, so this mirrors
// the original's refresh_single_process fallback).
func (pl *ProcessList) refreshOne(pid int32) {
	p, ok := pl.byPID[pid]
	if !ok {
		pl.refresh()
		return
	}
	if running, err := p.IsRunning(); err != nil || !running {
		delete(pl.byPID, pid)
		pl.nextScan = time.Time{} // force the next refresh() to re-scan
	}
}

// byName returns every live process whose name matches exactly.
func (pl *ProcessList) byName(name string) []*process.Process {
	pl.refresh()
	var out []*process.Process
	for _, p := range pl.byPID {
		if n, err := p.Name(); err == nil && n == name {
			out = append(out, p)
		}
	}
	return out
}

// get returns the cached handle for pid, refreshing first if the pid
// isn't already known.
func (pl *ProcessList) get(pid int32) (*process.Process, bool) {
	if p, ok := pl.byPID[pid]; ok {
		return p, true
	}
	pl.refresh()
	p, ok := pl.byPID[pid]
	return p, ok
}

// isOpen reports whether pid still refers to a live process.
func (pl *ProcessList) isOpen(pid int32) bool {
	pl.refreshOne(pid)
	p, ok := pl.byPID[pid]
	if !ok {
		return false
	}
	running, err := p.IsRunning()
	return err == nil && running
}
