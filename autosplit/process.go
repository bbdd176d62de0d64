package autosplit

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Process is a host-side handle onto a target process, attached by the
// sandboxed module via process_attach / process_attach_by_pid// §4.5). Memory access goes through /proc on Linux; other platforms
// report errUnsupportedPlatform, since gopsutil itself has no raw
// process-memory read primitive.
type Process struct {
	pid  int32
	proc *process.Process
}

var errUnsupportedPlatform = fmt.Errorf("autosplit: process memory access is only implemented on linux")

func attachByName(pl *ProcessList, name string) (*Process, error) {
	matches := pl.byName(name)
	if len(matches) == 0 {
		return nil, fmt.Errorf("autosplit: no process named %q", name)
	}
	return &Process{pid: matches[0].Pid, proc: matches[0]}, nil
}

func attachByPID(pl *ProcessList, pid int32) (*Process, error) {
	p, ok := pl.get(pid)
	if !ok {
		return nil, fmt.Errorf("autosplit: no process with pid %d", pid)
	}
	return &Process{pid: pid, proc: p}, nil
}

func (p *Process) Name() string {
	if p.proc == nil {
		return ""
	}
	n, err := p.proc.Name()
	if err != nil {
		return ""
	}
	return n
}

func (p *Process) isOpen(pl *ProcessList) bool {
	return pl.isOpen(p.pid)
}

// Path returns the executable path of the process.
func (p *Process) Path() (string, error) {
	if p.proc == nil {
		return "", errUnsupportedPlatform
	}
	return p.proc.Exe()
}

// readMem reads len(buf) bytes from address into buf via /proc/<pid>/mem.
func (p *Process) readMem(address uint64, buf []byte) error {
	if runtime.GOOS != "linux" {
		return errUnsupportedPlatform
	}
	f, err := os.Open(fmt.Sprintf("/proc/%d/mem", p.pid))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.ReadAt(buf, int64(address))
	return err
}

// mapsLine is one parsed row of /proc/<pid>/maps.
type mapsLine struct {
	start, end uint64
	perms      string
	pathname   string
}

func (p *Process) readMaps() ([]mapsLine, error) {
	if runtime.GOOS != "linux" {
		return nil, errUnsupportedPlatform
	}
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", p.pid))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []mapsLine
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 5 {
			continue
		}
		bounds := strings.SplitN(fields[0], "-", 2)
		if len(bounds) != 2 {
			continue
		}
		start, err := strconv.ParseUint(bounds[0], 16, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseUint(bounds[1], 16, 64)
		if err != nil {
			continue
		}
		pathname := ""
		if len(fields) >= 6 {
			pathname = fields[5]
		}
		lines = append(lines, mapsLine{start: start, end: end, perms: fields[1], pathname: pathname})
	}
	return lines, sc.Err()
}

// moduleAddress returns the lowest mapped address of moduleName's first
// mapping, the way the original's module_address resolves a module base.
func (p *Process) moduleAddress(moduleName string) (uint64, error) {
	lines, err := p.readMaps()
	if err != nil {
		return 0, err
	}
	for _, l := range lines {
		if strings.HasSuffix(l.pathname, moduleName) {
			return l.start, nil
		}
	}
	return 0, fmt.Errorf("autosplit: module %q not found", moduleName)
}

// moduleSize returns the extent of moduleName's mappings: from the lowest
// start address to the highest end address among every mapping whose path
// ends with moduleName.
func (p *Process) moduleSize(moduleName string) (uint64, error) {
	lines, err := p.readMaps()
	if err != nil {
		return 0, err
	}
	var lo, hi uint64
	found := false
	for _, l := range lines {
		if !strings.HasSuffix(l.pathname, moduleName) {
			continue
		}
		if !found || l.start < lo {
			lo = l.start
		}
		if l.end > hi {
			hi = l.end
		}
		found = true
	}
	if !found {
		return 0, fmt.Errorf("autosplit: module %q not found", moduleName)
	}
	return hi - lo, nil
}

// modulePath returns the path of the first mapping whose path ends with
// moduleName.
func (p *Process) modulePath(moduleName string) (string, error) {
	lines, err := p.readMaps()
	if err != nil {
		return "", err
	}
	for _, l := range lines {
		if strings.HasSuffix(l.pathname, moduleName) {
			return l.pathname, nil
		}
	}
	return "", fmt.Errorf("autosplit: module %q not found", moduleName)
}

// memoryRanges returns every mapped region of the process, the backing
// data for process_get_memory_range_count/address/size/flags.
func (p *Process) memoryRanges() ([]mapsLine, error) {
	return p.readMaps()
}
