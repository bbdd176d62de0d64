package autosplit

import (
	wasmtime "github.com/bytecodealliance/wasmtime-go/v3"

	"speedruntimer/timer"
	"speedruntimer/timespan"
)

// bindTimerCalls links the timer-control host surface:
// timer_start, timer_split, timer_skip_split, timer_undo_split,
// timer_reset, timer_pause_game_time, timer_resume_game_time,
// timer_set_game_time, timer_set_variable, timer_get_state,
// runtime_set_tick_rate, runtime_print_message and runtime_log are bound
// here and in hostcalls_runtime.go. Every call swallows the underlying
// (Event, error) return: host-call failures never unwind across the
// sandbox boundary, they become an out-of-band zero/one
// value instead.
func bindTimerCalls(linker *wasmtime.Linker) error {
	calls := []struct {
		name string
		fn   func(caller *wasmtime.Caller) int32
	}{
		{"timer_start", func(c *wasmtime.Caller) int32 { return okOf(contextFromCaller(c).sink.Start()) }},
		{"timer_split", func(c *wasmtime.Caller) int32 { return okOf(contextFromCaller(c).sink.Split()) }},
		{"timer_skip_split", func(c *wasmtime.Caller) int32 { return okOf(contextFromCaller(c).sink.SkipSplit()) }},
		{"timer_undo_split", func(c *wasmtime.Caller) int32 { return okOf(contextFromCaller(c).sink.UndoSplit()) }},
		{"timer_pause_game_time", func(c *wasmtime.Caller) int32 { return okOf(contextFromCaller(c).sink.PauseGameTime()) }},
		{"timer_resume_game_time", func(c *wasmtime.Caller) int32 { return okOf(contextFromCaller(c).sink.ResumeGameTime()) }},
	}
	for _, call := range calls {
		if err := linker.FuncWrap("env", call.name, call.fn); err != nil {
			return linkErr(call.name, err)
		}
	}

	if err := linker.FuncWrap("env", "timer_reset", func(c *wasmtime.Caller, save uint32) int32 {
		return okOf(contextFromCaller(c).sink.Reset(save != 0))
	}); err != nil {
		return linkErr("timer_reset", err)
	}

	if err := linker.FuncWrap("env", "timer_set_game_time", func(c *wasmtime.Caller, ptr, length uint32) int32 {
		ctx := contextFromCaller(c)
		s, err := readString(c, ctx, ptr, length)
		if err != nil {
			return 0
		}
		span, err := timespan.Parse(s)
		if err != nil {
			return 0
		}
		return okOf(ctx.sink.SetGameTime(span))
	}); err != nil {
		return linkErr("timer_set_game_time", err)
	}

	if err := linker.FuncWrap("env", "timer_set_variable",
		func(c *wasmtime.Caller, namePtr, nameLen, valuePtr, valueLen uint32) int32 {
			ctx := contextFromCaller(c)
			name, err := readString(c, ctx, namePtr, nameLen)
			if err != nil {
				return 0
			}
			value, err := readString(c, ctx, valuePtr, valueLen)
			if err != nil {
				return 0
			}
			return okOf(ctx.sink.SetCustomVariable(name, value))
		}); err != nil {
		return linkErr("timer_set_variable", err)
	}

	if err := linker.FuncWrap("env", "timer_get_state", func(c *wasmtime.Caller) uint32 {
		ctx := contextFromCaller(c)
		switch ctx.tm.CurrentPhase() {
		case timer.NotRunning:
			return 0
		case timer.Running:
			return 1
		case timer.PhasePaused:
			return 2
		case timer.Ended:
			return 3
		default:
			return 0
		}
	}); err != nil {
		return linkErr("timer_get_state", err)
	}

	return nil
}

// okOf turns a CommandSink call's (Event, error) return into the host
// call's boolean-ish success flag (1 success, 0 failure).
func okOf(_ timer.Event, err error) int32 {
	if err != nil {
		return 0
	}
	return 1
}

func linkErr(name string, source error) error {
	return &linkError{name: name, source: source}
}

type linkError struct {
	name   string
	source error
}

func (e *linkError) Error() string {
	return "autosplit: failed linking " + e.name + ": " + e.source.Error()
}

func (e *linkError) Unwrap() error { return e.source }
