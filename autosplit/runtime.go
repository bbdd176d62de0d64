// Package autosplit hosts a sandboxed, WASM-compiled auto-splitter module
// and mediates its side effects through a fixed host-call interface
//: timer control, target-process memory reads, settings
// storage, and logging. The module itself never touches the Timer or the
// OS directly; every effect it wants must cross the sandbox boundary
// through one of the env.* imports bound in hostcalls_*.go.
package autosplit // import "speedruntimer/autosplit"

import (
	"fmt"
	"sync"
	"time"

	"fortio.org/log"
	wasmtime "github.com/bytecodealliance/wasmtime-go/v3"

	"speedruntimer/settings"
	"speedruntimer/timer"
)

// Config mirrors the original runtime::Config: knobs for how strictly the
// sandbox is built, plus the initial settings map to seed the module with.
type Config struct {
	SettingsMap      *settings.Map
	DebugInfo        bool
	Optimize         bool
	BacktraceDetails bool
}

// DefaultConfig matches the original's Default impl: optimized, with
// backtraces, without debug info, and a fresh settings map.
func DefaultConfig() Config {
	return Config{
		SettingsMap:      settings.NewMap(),
		Optimize:         true,
		BacktraceDetails: true,
	}
}

// sharedData is locked separately from the Timer// settings map and tick rate are sharable between threads using a lock
// distinct from the Timer lock").
type sharedData struct {
	mu         sync.Mutex
	tickRate   time.Duration
	generation uint64
	entries    map[string]settings.Value
}

func newSharedData(initial *settings.Map) *sharedData {
	snap := initial.Load()
	return &sharedData{
		tickRate:   time.Duration(float64(time.Second) / settings.DefaultTickRateHz),
		generation: snap.Generation,
		entries:    snap.Entries,
	}
}

func (s *sharedData) setTickRate(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickRate = d
}

func (s *sharedData) getTickRate() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickRate
}

// snapshotSettings returns a copy of the currently stored settings along
// with the generation it was read at.
func (s *sharedData) snapshotSettings() settings.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]settings.Value, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return settings.Snapshot{Generation: s.generation, Entries: out}
}

func (s *sharedData) setSettings(snap settings.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = snap.Entries
	s.generation++
}

// setSettingsIfUnchanged applies new only if the stored generation still
// equals expected// on settings").
func (s *sharedData) setSettingsIfUnchanged(expected uint64, entries map[string]settings.Value) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != expected {
		return false
	}
	s.entries = entries
	s.generation++
	return true
}

// hostContext is the store-data type wasmtime threads through every host
// call (the Go analogue of the original's generic Context<T: Timer>).
type hostContext struct {
	sink          timer.CommandSink
	tm            *timer.Timer
	processes     *slotTable[*Process]
	processList   *ProcessList
	settingsMaps  *slotTable[*mapHandleEntry]
	settingsLists *slotTable[*settings.List]
	values        *slotTable[settings.Value]
	shared        *sharedData
	memory        *wasmtime.Memory
	trapped       bool
}

// InterruptHandle lets any thread abort a runaway update() call at the
// next epoch-check point; it's the only cancellation primitive the
// runtime exposes.
type InterruptHandle struct {
	engine *wasmtime.Engine
}

// Interrupt requests the sandbox abandon its in-progress update() call.
func (h InterruptHandle) Interrupt() {
	h.engine.IncrementEpoch()
}

// Runtime owns one loaded auto-splitter module and mediates every side
// effect it performs. Exactly one goroutine may call Update at a time
// (guarded by mu); settings and tick rate live behind the separate
// sharedData lock so other threads can read/write them without blocking
// an in-progress update.
type Runtime struct {
	mu      sync.Mutex
	engine  *wasmtime.Engine
	store   *wasmtime.Store
	update  *wasmtime.Func
	ctx     *hostContext
	shared  *sharedData
	trapped bool
}

// New compiles and instantiates module against tm, ready to have Update
// called on it. The module must export "update" and "memory".
func New(module []byte, tm *timer.Timer, cfg Config) (*Runtime, error) {
	wcfg := wasmtime.NewConfig()
	if cfg.Optimize {
		wcfg.SetCraneliftOptLevel(wasmtime.OptLevelSpeed)
	} else {
		wcfg.SetCraneliftOptLevel(wasmtime.OptLevelNone)
	}
	wcfg.SetWasmBacktraceDetails(cfg.BacktraceDetails)
	wcfg.SetEpochInterruption(true)

	engine := wasmtime.NewEngineWithConfig(wcfg)
	mod, err := wasmtime.NewModule(engine, module)
	if err != nil {
		return nil, fmt.Errorf("autosplit: loading module: %w", err)
	}

	settingsMap := cfg.SettingsMap
	if settingsMap == nil {
		settingsMap = settings.NewMap()
	}
	shared := newSharedData(settingsMap)

	ctx := &hostContext{
		sink:          tm,
		tm:            tm,
		processes:     newSlotTable[*Process](),
		processList:   NewProcessList(),
		settingsMaps:  newSlotTable[*mapHandleEntry](),
		settingsLists: newSlotTable[*settings.List](),
		values:        newSlotTable[settings.Value](),
		shared:        shared,
	}

	store := wasmtime.NewStore(engine)
	store.SetData(ctx)
	store.SetEpochDeadline(1)

	linker := wasmtime.NewLinker(engine)
	if err := bindTimerCalls(linker); err != nil {
		return nil, err
	}
	if err := bindProcessCalls(linker); err != nil {
		return nil, err
	}
	if err := bindSettingsCalls(linker); err != nil {
		return nil, err
	}
	if err := bindRuntimeCalls(linker); err != nil {
		return nil, err
	}

	instance, err := linker.Instantiate(store, mod)
	if err != nil {
		return nil, fmt.Errorf("autosplit: instantiating module: %w", err)
	}

	memExport := instance.GetExport(store, "memory")
	if memExport == nil || memExport.Memory() == nil {
		return nil, fmt.Errorf("autosplit: module has no exported memory")
	}
	ctx.memory = memExport.Memory()

	updateExport := instance.GetExport(store, "update")
	if updateExport == nil || updateExport.Func() == nil {
		return nil, fmt.Errorf("autosplit: module has no exported update function")
	}

	return &Runtime{
		engine: engine,
		store:  store,
		update: updateExport.Func(),
		ctx:    ctx,
		shared: shared,
	}, nil
}

// InterruptHandle returns a handle that can abort an in-progress Update
// from any goroutine.
func (r *Runtime) InterruptHandle() InterruptHandle {
	return InterruptHandle{engine: r.engine}
}

// Update runs the module's exported update() function once. If the module
// previously trapped, this is a no-op// ... further update() calls become no-ops until the module is reloaded").
func (r *Runtime) Update() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.trapped {
		return nil
	}
	_, err := r.update.Call(r.store)
	if err != nil {
		r.trapped = true
		log.Warnf("autosplit: module trapped: %v", err)
		return err
	}
	return nil
}

// Trapped reports whether the module has faulted and is no longer run.
func (r *Runtime) Trapped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trapped
}

// TickRate returns the period the host should sleep between Update calls.
func (r *Runtime) TickRate() time.Duration {
	return r.shared.getTickRate()
}

// SettingsMap returns a copy of the currently stored settings.
func (r *Runtime) SettingsMap() settings.Snapshot {
	return r.shared.snapshotSettings()
}

// SetSettingsMap unconditionally overwrites the stored settings.
func (r *Runtime) SetSettingsMap(snap settings.Snapshot) {
	r.shared.setSettings(snap)
}

// SetSettingsMapIfUnchanged applies entries only if the stored generation
// still matches expected; returns whether the write took effect.
func (r *Runtime) SetSettingsMapIfUnchanged(expected uint64, entries map[string]settings.Value) bool {
	return r.shared.setSettingsIfUnchanged(expected, entries)
}

// Handles reports how many live handles the module currently holds across
// every slot table, useful for detecting leaks (debug/diagnostic surface).
func (r *Runtime) Handles() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ctx.processes.len() + r.ctx.settingsMaps.len() + r.ctx.settingsLists.len() + r.ctx.values.len()
}
