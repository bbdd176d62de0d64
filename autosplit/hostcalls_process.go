package autosplit

import (
	wasmtime "github.com/bytecodealliance/wasmtime-go/v3"
)

// bindProcessCalls links the process-attachment host surface:
// process_attach(_by_pid), process_detach, process_list_by_name,
// process_is_open, process_read, process_get_module_address/size/path,
// process_get_path and process_get_memory_range_count/address/size/flags.
func bindProcessCalls(linker *wasmtime.Linker) error {
	if err := linker.FuncWrap("env", "process_attach", func(c *wasmtime.Caller, ptr, length uint32) uint64 {
		ctx := contextFromCaller(c)
		name, err := readString(c, ctx, ptr, length)
		if err != nil {
			return 0
		}
		p, err := attachByName(ctx.processList, name)
		if err != nil {
			return 0
		}
		return uint64(ctx.processes.insert(p))
	}); err != nil {
		return linkErr("process_attach", err)
	}

	if err := linker.FuncWrap("env", "process_attach_by_pid", func(c *wasmtime.Caller, pid uint64) uint64 {
		ctx := contextFromCaller(c)
		p, err := attachByPID(ctx.processList, int32(pid))
		if err != nil {
			return 0
		}
		return uint64(ctx.processes.insert(p))
	}); err != nil {
		return linkErr("process_attach_by_pid", err)
	}

	if err := linker.FuncWrap("env", "process_detach", func(c *wasmtime.Caller, h uint64) {
		contextFromCaller(c).processes.remove(handle(h))
	}); err != nil {
		return linkErr("process_detach", err)
	}

	if err := linker.FuncWrap("env", "process_list_by_name",
		func(c *wasmtime.Caller, namePtr, nameLen, listPtr, listLenPtr uint32) uint32 {
			ctx := contextFromCaller(c)
			name, err := readString(c, ctx, namePtr, nameLen)
			if err != nil {
				return 0
			}
			capacity, err := readU32(c, ctx, listLenPtr)
			if err != nil {
				return 0
			}
			matches := ctx.processList.byName(name)
			_ = writeU32(c, ctx, listLenPtr, uint32(len(matches)))
			n := uint32(len(matches))
			if n > capacity {
				n = capacity
			}
			for i := uint32(0); i < n; i++ {
				buf := []byte{0, 0, 0, 0, 0, 0, 0, 0}
				pid := uint64(matches[i].Pid)
				for b := 0; b < 8; b++ {
					buf[b] = byte(pid >> (8 * b))
				}
				if err := writeBytes(c, ctx, listPtr+i*8, buf); err != nil {
					return 0
				}
			}
			return 1
		}); err != nil {
		return linkErr("process_list_by_name", err)
	}

	if err := linker.FuncWrap("env", "process_is_open", func(c *wasmtime.Caller, h uint64) uint32 {
		ctx := contextFromCaller(c)
		p, ok := ctx.processes.get(handle(h))
		if !ok {
			return 0
		}
		if p.isOpen(ctx.processList) {
			return 1
		}
		return 0
	}); err != nil {
		return linkErr("process_is_open", err)
	}

	if err := linker.FuncWrap("env", "process_read",
		func(c *wasmtime.Caller, h uint64, address uint64, bufPtr, bufLen uint32) uint32 {
			ctx := contextFromCaller(c)
			p, ok := ctx.processes.get(handle(h))
			if !ok {
				return 0
			}
			buf := make([]byte, bufLen)
			if err := p.readMem(address, buf); err != nil {
				return 0
			}
			if err := writeBytes(c, ctx, bufPtr, buf); err != nil {
				return 0
			}
			return 1
		}); err != nil {
		return linkErr("process_read", err)
	}

	if err := linker.FuncWrap("env", "process_get_module_address",
		func(c *wasmtime.Caller, h uint64, ptr, length uint32) uint64 {
			ctx := contextFromCaller(c)
			p, ok := ctx.processes.get(handle(h))
			if !ok {
				return 0
			}
			name, err := readString(c, ctx, ptr, length)
			if err != nil {
				return 0
			}
			addr, err := p.moduleAddress(name)
			if err != nil {
				return 0
			}
			return addr
		}); err != nil {
		return linkErr("process_get_module_address", err)
	}

	if err := linker.FuncWrap("env", "process_get_module_size",
		func(c *wasmtime.Caller, h uint64, ptr, length uint32) uint64 {
			ctx := contextFromCaller(c)
			p, ok := ctx.processes.get(handle(h))
			if !ok {
				return 0
			}
			name, err := readString(c, ctx, ptr, length)
			if err != nil {
				return 0
			}
			size, err := p.moduleSize(name)
			if err != nil {
				return 0
			}
			return size
		}); err != nil {
		return linkErr("process_get_module_size", err)
	}

	if err := linker.FuncWrap("env", "process_get_module_path",
		func(c *wasmtime.Caller, h uint64, namePtr, nameLen, pathPtr, pathLenPtr uint32) uint32 {
			ctx := contextFromCaller(c)
			p, ok := ctx.processes.get(handle(h))
			if !ok {
				return 0
			}
			name, err := readString(c, ctx, namePtr, nameLen)
			if err != nil {
				return 0
			}
			path, err := p.modulePath(name)
			if err != nil {
				_ = writeU32(c, ctx, pathLenPtr, 0)
				return 0
			}
			out, _ := writeLengthPrefixedBuffer(c, ctx, pathPtr, pathLenPtr, []byte(path))
			return out
		}); err != nil {
		return linkErr("process_get_module_path", err)
	}

	if err := linker.FuncWrap("env", "process_get_path",
		func(c *wasmtime.Caller, h uint64, ptr, lenPtr uint32) uint32 {
			ctx := contextFromCaller(c)
			p, ok := ctx.processes.get(handle(h))
			if !ok {
				return 0
			}
			path, err := p.Path()
			if err != nil {
				_ = writeU32(c, ctx, lenPtr, 0)
				return 0
			}
			out, _ := writeLengthPrefixedBuffer(c, ctx, ptr, lenPtr, []byte(path))
			return out
		}); err != nil {
		return linkErr("process_get_path", err)
	}

	if err := linker.FuncWrap("env", "process_get_memory_range_count", func(c *wasmtime.Caller, h uint64) uint64 {
		ctx := contextFromCaller(c)
		p, ok := ctx.processes.get(handle(h))
		if !ok {
			return 0
		}
		ranges, err := p.memoryRanges()
		if err != nil {
			return 0
		}
		return uint64(len(ranges))
	}); err != nil {
		return linkErr("process_get_memory_range_count", err)
	}

	if err := linker.FuncWrap("env", "process_get_memory_range_address",
		func(c *wasmtime.Caller, h uint64, idx uint64) uint64 {
			ranges, ok := memoryRangeOf(contextFromCaller(c), h, idx)
			if !ok {
				return 0
			}
			return ranges.start
		}); err != nil {
		return linkErr("process_get_memory_range_address", err)
	}

	if err := linker.FuncWrap("env", "process_get_memory_range_size",
		func(c *wasmtime.Caller, h uint64, idx uint64) uint64 {
			r, ok := memoryRangeOf(contextFromCaller(c), h, idx)
			if !ok {
				return 0
			}
			return r.end - r.start
		}); err != nil {
		return linkErr("process_get_memory_range_size", err)
	}

	if err := linker.FuncWrap("env", "process_get_memory_range_flags",
		func(c *wasmtime.Caller, h uint64, idx uint64) uint64 {
			r, ok := memoryRangeOf(contextFromCaller(c), h, idx)
			if !ok {
				return 0
			}
			return permFlags(r.perms)
		}); err != nil {
		return linkErr("process_get_memory_range_flags", err)
	}

	return nil
}

func memoryRangeOf(ctx *hostContext, h, idx uint64) (mapsLine, bool) {
	p, ok := ctx.processes.get(handle(h))
	if !ok {
		return mapsLine{}, false
	}
	ranges, err := p.memoryRanges()
	if err != nil || idx >= uint64(len(ranges)) {
		return mapsLine{}, false
	}
	return ranges[idx], true
}

// permFlags encodes /proc/<pid>/maps permission characters as a bitset:
// bit 0 read, bit 1 write, bit 2 execute.
func permFlags(perms string) uint64 {
	var flags uint64
	if len(perms) >= 3 {
		if perms[0] == 'r' {
			flags |= 1
		}
		if perms[1] == 'w' {
			flags |= 2
		}
		if perms[2] == 'x' {
			flags |= 4
		}
	}
	return flags
}
