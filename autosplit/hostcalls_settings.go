package autosplit

import (
	wasmtime "github.com/bytecodealliance/wasmtime-go/v3"

	"speedruntimer/settings"
)

// mapHandleEntry pairs a module-local settings map with the generation it
// was loaded at, so settings_map_store_if_unchanged can honor the same
// compare-and-swap contract as settings.Map.CompareAndSwapSet without the
// module having to pass the generation across the sandbox boundary itself.
type mapHandleEntry struct {
	m                *settings.Map
	loadedGeneration uint64
}

// bindSettingsCalls links the settings map/list/value host surface. Exact
// host-call names and handle semantics extend the timer_*/process_*
// naming convention rather than being transcribed from a source file.
func bindSettingsCalls(linker *wasmtime.Linker) error {
	if err := linker.FuncWrap("env", "settings_map_new", func(c *wasmtime.Caller) uint64 {
		ctx := contextFromCaller(c)
		return uint64(ctx.settingsMaps.insert(&mapHandleEntry{m: settings.NewMap()}))
	}); err != nil {
		return linkErr("settings_map_new", err)
	}

	if err := linker.FuncWrap("env", "settings_map_load", func(c *wasmtime.Caller) uint64 {
		ctx := contextFromCaller(c)
		snap := ctx.shared.snapshotSettings()
		m := settings.NewMap()
		for k, v := range snap.Entries {
			m.Set(k, v)
		}
		return uint64(ctx.settingsMaps.insert(&mapHandleEntry{m: m, loadedGeneration: snap.Generation}))
	}); err != nil {
		return linkErr("settings_map_load", err)
	}

	if err := linker.FuncWrap("env", "settings_map_free", func(c *wasmtime.Caller, h uint64) {
		contextFromCaller(c).settingsMaps.remove(handle(h))
	}); err != nil {
		return linkErr("settings_map_free", err)
	}

	if err := linker.FuncWrap("env", "settings_map_get",
		func(c *wasmtime.Caller, mapHandle uint64, keyPtr, keyLen uint32) uint64 {
			ctx := contextFromCaller(c)
			entry, ok := ctx.settingsMaps.get(handle(mapHandle))
			if !ok {
				return 0
			}
			key, err := readString(c, ctx, keyPtr, keyLen)
			if err != nil {
				return 0
			}
			v, ok := entry.m.Get(key)
			if !ok {
				return 0
			}
			return uint64(ctx.values.insert(v))
		}); err != nil {
		return linkErr("settings_map_get", err)
	}

	if err := linker.FuncWrap("env", "settings_map_insert",
		func(c *wasmtime.Caller, mapHandle uint64, keyPtr, keyLen uint32, valueHandle uint64) uint32 {
			ctx := contextFromCaller(c)
			entry, ok := ctx.settingsMaps.get(handle(mapHandle))
			if !ok {
				return 0
			}
			key, err := readString(c, ctx, keyPtr, keyLen)
			if err != nil {
				return 0
			}
			v, ok := ctx.values.get(handle(valueHandle))
			if !ok {
				return 0
			}
			entry.m.Set(key, v)
			return 1
		}); err != nil {
		return linkErr("settings_map_insert", err)
	}

	if err := linker.FuncWrap("env", "settings_map_store", func(c *wasmtime.Caller, mapHandle uint64) uint32 {
		ctx := contextFromCaller(c)
		entry, ok := ctx.settingsMaps.get(handle(mapHandle))
		if !ok {
			return 0
		}
		snap := entry.m.Load()
		ctx.shared.setSettings(snap)
		return 1
	}); err != nil {
		return linkErr("settings_map_store", err)
	}

	if err := linker.FuncWrap("env", "settings_map_store_if_unchanged", func(c *wasmtime.Caller, mapHandle uint64) uint32 {
		ctx := contextFromCaller(c)
		entry, ok := ctx.settingsMaps.get(handle(mapHandle))
		if !ok {
			return 0
		}
		snap := entry.m.Load()
		if ctx.shared.setSettingsIfUnchanged(entry.loadedGeneration, snap.Entries) {
			return 1
		}
		return 0
	}); err != nil {
		return linkErr("settings_map_store_if_unchanged", err)
	}

	if err := linker.FuncWrap("env", "settings_list_new", func(c *wasmtime.Caller) uint64 {
		ctx := contextFromCaller(c)
		return uint64(ctx.settingsLists.insert(settings.NewList()))
	}); err != nil {
		return linkErr("settings_list_new", err)
	}

	if err := linker.FuncWrap("env", "settings_list_free", func(c *wasmtime.Caller, h uint64) {
		contextFromCaller(c).settingsLists.remove(handle(h))
	}); err != nil {
		return linkErr("settings_list_free", err)
	}

	if err := linker.FuncWrap("env", "settings_list_len", func(c *wasmtime.Caller, h uint64) uint64 {
		ctx := contextFromCaller(c)
		l, ok := ctx.settingsLists.get(handle(h))
		if !ok {
			return 0
		}
		return uint64(l.Len())
	}); err != nil {
		return linkErr("settings_list_len", err)
	}

	if err := linker.FuncWrap("env", "settings_list_get", func(c *wasmtime.Caller, h uint64, idx uint64) uint64 {
		ctx := contextFromCaller(c)
		l, ok := ctx.settingsLists.get(handle(h))
		if !ok {
			return 0
		}
		v, ok := l.At(int(idx))
		if !ok {
			return 0
		}
		return uint64(ctx.values.insert(v))
	}); err != nil {
		return linkErr("settings_list_get", err)
	}

	if err := linker.FuncWrap("env", "settings_list_push", func(c *wasmtime.Caller, h uint64, valueHandle uint64) uint32 {
		ctx := contextFromCaller(c)
		l, ok := ctx.settingsLists.get(handle(h))
		if !ok {
			return 0
		}
		v, ok := ctx.values.get(handle(valueHandle))
		if !ok {
			return 0
		}
		l.Append(v)
		return 1
	}); err != nil {
		return linkErr("settings_list_push", err)
	}

	return bindSettingValueCalls(linker)
}

func bindSettingValueCalls(linker *wasmtime.Linker) error {
	if err := linker.FuncWrap("env", "setting_value_new_bool", func(c *wasmtime.Caller, b uint32) uint64 {
		return uint64(contextFromCaller(c).values.insert(settings.BoolValue(b != 0)))
	}); err != nil {
		return linkErr("setting_value_new_bool", err)
	}

	if err := linker.FuncWrap("env", "setting_value_new_int", func(c *wasmtime.Caller, v int64) uint64 {
		return uint64(contextFromCaller(c).values.insert(settings.IntValue(v)))
	}); err != nil {
		return linkErr("setting_value_new_int", err)
	}

	if err := linker.FuncWrap("env", "setting_value_new_float", func(c *wasmtime.Caller, v float64) uint64 {
		return uint64(contextFromCaller(c).values.insert(settings.FloatValue(v)))
	}); err != nil {
		return linkErr("setting_value_new_float", err)
	}

	if err := linker.FuncWrap("env", "setting_value_new_string", func(c *wasmtime.Caller, ptr, length uint32) uint64 {
		ctx := contextFromCaller(c)
		s, err := readString(c, ctx, ptr, length)
		if err != nil {
			return 0
		}
		return uint64(ctx.values.insert(settings.StringValue(s)))
	}); err != nil {
		return linkErr("setting_value_new_string", err)
	}

	if err := linker.FuncWrap("env", "setting_value_free", func(c *wasmtime.Caller, h uint64) {
		contextFromCaller(c).values.remove(handle(h))
	}); err != nil {
		return linkErr("setting_value_free", err)
	}

	if err := linker.FuncWrap("env", "setting_value_kind", func(c *wasmtime.Caller, h uint64) uint32 {
		ctx := contextFromCaller(c)
		v, ok := ctx.values.get(handle(h))
		if !ok {
			return 0xFFFFFFFF
		}
		return uint32(v.Kind())
	}); err != nil {
		return linkErr("setting_value_kind", err)
	}

	if err := linker.FuncWrap("env", "setting_value_get_bool", func(c *wasmtime.Caller, h uint64) uint32 {
		ctx := contextFromCaller(c)
		v, ok := ctx.values.get(handle(h))
		if !ok {
			return 0
		}
		b, ok := v.Bool()
		if !ok || !b {
			return 0
		}
		return 1
	}); err != nil {
		return linkErr("setting_value_get_bool", err)
	}

	if err := linker.FuncWrap("env", "setting_value_get_int", func(c *wasmtime.Caller, h uint64) int64 {
		ctx := contextFromCaller(c)
		v, ok := ctx.values.get(handle(h))
		if !ok {
			return 0
		}
		i, _ := v.Int()
		return i
	}); err != nil {
		return linkErr("setting_value_get_int", err)
	}

	if err := linker.FuncWrap("env", "setting_value_get_float", func(c *wasmtime.Caller, h uint64) float64 {
		ctx := contextFromCaller(c)
		v, ok := ctx.values.get(handle(h))
		if !ok {
			return 0
		}
		f, _ := v.Float()
		return f
	}); err != nil {
		return linkErr("setting_value_get_float", err)
	}

	if err := linker.FuncWrap("env", "setting_value_get_string",
		func(c *wasmtime.Caller, h uint64, bufPtr, lenPtr uint32) uint32 {
			ctx := contextFromCaller(c)
			v, ok := ctx.values.get(handle(h))
			if !ok {
				return 0
			}
			s, ok := v.Str()
			if !ok {
				return 0
			}
			out, _ := writeLengthPrefixedBuffer(c, ctx, bufPtr, lenPtr, []byte(s))
			return out
		}); err != nil {
		return linkErr("setting_value_get_string", err)
	}

	return nil
}
