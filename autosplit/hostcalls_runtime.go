package autosplit

import (
	"time"

	"fortio.org/log"
	wasmtime "github.com/bytecodealliance/wasmtime-go/v3"
)

// bindRuntimeCalls links runtime_set_tick_rate, runtime_print_message and
// runtime_log.
func bindRuntimeCalls(linker *wasmtime.Linker) error {
	if err := linker.FuncWrap("env", "runtime_set_tick_rate", func(c *wasmtime.Caller, seconds float64) {
		ctx := contextFromCaller(c)
		if seconds <= 0 {
			return
		}
		ctx.shared.setTickRate(time.Duration(seconds * float64(time.Second)))
	}); err != nil {
		return linkErr("runtime_set_tick_rate", err)
	}

	if err := linker.FuncWrap("env", "runtime_print_message", func(c *wasmtime.Caller, ptr, length uint32) {
		ctx := contextFromCaller(c)
		msg, err := readString(c, ctx, ptr, length)
		if err != nil {
			return
		}
		log.Infof("autosplit: %s", msg)
	}); err != nil {
		return linkErr("runtime_print_message", err)
	}

	if err := linker.FuncWrap("env", "runtime_log", func(c *wasmtime.Caller, ptr, length, level uint32) {
		ctx := contextFromCaller(c)
		msg, err := readString(c, ctx, ptr, length)
		if err != nil {
			return
		}
		switch level {
		case 0:
			log.Debugf("autosplit: %s", msg)
		case 1:
			log.LogVf("autosplit: %s", msg)
		case 2:
			log.Infof("autosplit: %s", msg)
		case 3:
			log.Warnf("autosplit: %s", msg)
		default:
			log.Errf("autosplit: %s", msg)
		}
	}); err != nil {
		return linkErr("runtime_log", err)
	}

	return nil
}
