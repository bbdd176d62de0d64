package autosplit

import (
	"fmt"

	wasmtime "github.com/bytecodealliance/wasmtime-go/v3"
)

// contextFromCaller recovers the hostContext threaded through the store
// data, the Go analogue of the original's memory_and_context helper.
func contextFromCaller(caller *wasmtime.Caller) *hostContext {
	return caller.StoreContext().Data().(*hostContext)
}

func memoryData(caller *wasmtime.Caller, ctx *hostContext) []byte {
	return ctx.memory.UnsafeData(caller.StoreContext())
}

// readString copies len bytes at ptr out of the module's linear memory as
// a UTF-8 string// len) pairs").
func readString(caller *wasmtime.Caller, ctx *hostContext, ptr, length uint32) (string, error) {
	data := memoryData(caller, ctx)
	end := uint64(ptr) + uint64(length)
	if end > uint64(len(data)) {
		return "", fmt.Errorf("autosplit: string (ptr=%d len=%d) out of bounds", ptr, length)
	}
	return string(data[ptr:end]), nil
}

// writeBytes copies src into the module's linear memory at ptr, failing
// if it would run past the end of memory.
func writeBytes(caller *wasmtime.Caller, ctx *hostContext, ptr uint32, src []byte) error {
	data := memoryData(caller, ctx)
	end := uint64(ptr) + uint64(len(src))
	if end > uint64(len(data)) {
		return fmt.Errorf("autosplit: write (ptr=%d len=%d) out of bounds", ptr, len(src))
	}
	copy(data[ptr:end], src)
	return nil
}

// readU32 reads a little-endian u32 out of linear memory, used for the
// inout length fields several host calls share (buffer capacity in,
// actual length out).
func readU32(caller *wasmtime.Caller, ctx *hostContext, ptr uint32) (uint32, error) {
	data := memoryData(caller, ctx)
	if uint64(ptr)+4 > uint64(len(data)) {
		return 0, fmt.Errorf("autosplit: u32 read (ptr=%d) out of bounds", ptr)
	}
	b := data[ptr : ptr+4]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

func writeU32(caller *wasmtime.Caller, ctx *hostContext, ptr uint32, v uint32) error {
	buf := []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
	return writeBytes(caller, ctx, ptr, buf)
}

// writeLengthPrefixedBuffer implements the common "try to write `content`
// into the caller's buffer if it's big enough, always report the true
// length" shape shared by process_get_module_path/process_get_path.
func writeLengthPrefixedBuffer(caller *wasmtime.Caller, ctx *hostContext, bufPtr, lenPtr uint32, content []byte) (uint32, error) {
	capacity, err := readU32(caller, ctx, lenPtr)
	if err != nil {
		return 0, err
	}
	if werr := writeU32(caller, ctx, lenPtr, uint32(len(content))); werr != nil {
		return 0, werr
	}
	if capacity < uint32(len(content)) {
		return 0, nil
	}
	if err := writeBytes(caller, ctx, bufPtr, content); err != nil {
		return 0, err
	}
	return 1, nil
}
