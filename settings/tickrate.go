package settings

import (
	"flag"
	"strconv"

	"fortio.org/dflag"
)

// DefaultTickRateHz is the auto-splitter polling frequency used when no
// flag or config overrides it.
const DefaultTickRateHz = 120.0

// TickRateHolder wraps a dflag.DynValue[float64] the same way bincommon's
// flags wrap dflag.Dyn for fortio's periodic runner, so the tick rate can
// be changed at runtime (CLI flag, or a future admin surface) without the
// auto-splitter loop needing its own locking.
type TickRateHolder struct {
	flags *flag.FlagSet
	rate  *dflag.DynValue[float64]
}

// NewTickRateHolder registers a "tick-rate" flag on a private FlagSet and
// returns a holder defaulting to DefaultTickRateHz. Callers that want the
// flag surfaced on a process-wide FlagSet should use RegisterTickRateFlag
// instead.
func NewTickRateHolder() *TickRateHolder {
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	return &TickRateHolder{
		flags: fs,
		rate:  RegisterTickRateFlag(fs, DefaultTickRateHz),
	}
}

// RegisterTickRateFlag registers a "tick-rate" flag on fs with the given
// default, validated to lie in [0.001, 1000] Hz (out-of-range values are
// rejected, not clamped), and returns the backing DynValue.
func RegisterTickRateFlag(fs *flag.FlagSet, defaultHz float64) *dflag.DynValue[float64] {
	return dflag.Dyn(fs, "tick-rate", defaultHz,
		"auto-splitter polling frequency in Hz").
		WithValidator(dflag.ValidateRange(0.001, 1000.0))
}

// Get returns the current tick rate in Hz.
func (h *TickRateHolder) Get() float64 {
	return h.rate.Get()
}

// Set updates the tick rate in Hz, rejecting values outside [0.001, 1000].
func (h *TickRateHolder) Set(hz float64) error {
	return h.rate.Set(strconv.FormatFloat(hz, 'g', -1, 64))
}
