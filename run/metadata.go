package run

// CustomVariable is a user-defined run/category variable. Non-permanent
// variables are cleared on reset(); permanent ones survive resets and are
// the ones snapshotted into a Segment's Variables map at split time
// (recovered from original_source/src/run/run.rs's CustomVariable).
type CustomVariable struct {
	Value       string
	IsPermanent bool
}

// Metadata holds the run/category identification fields that aren't part
// of the segment/timing model proper.
type Metadata struct {
	RunID                string
	PlatformName         string
	EmulatorFlag         bool
	RegionName           string
	SpeedrunComVariables map[string]string
	CustomVariables      map[string]CustomVariable
}

// NewMetadata returns a Metadata with initialized maps.
func NewMetadata() Metadata {
	return Metadata{
		SpeedrunComVariables: make(map[string]string),
		CustomVariables:      make(map[string]CustomVariable),
	}
}

// ClearRunID clears the PB fingerprint; called whenever PB split times
// change.
func (m *Metadata) ClearRunID() {
	m.RunID = ""
}

// SetCustomVariable creates or updates a custom variable.
func (m *Metadata) SetCustomVariable(name, value string, permanent bool) {
	if m.CustomVariables == nil {
		m.CustomVariables = make(map[string]CustomVariable)
	}
	m.CustomVariables[name] = CustomVariable{Value: value, IsPermanent: permanent}
}

// PermanentVariables returns a fresh map of just the permanent variables,
// suitable for snapshotting into a Segment.Variables at split time.
func (m *Metadata) PermanentVariables() map[string]string {
	out := make(map[string]string)
	for k, v := range m.CustomVariables {
		if v.IsPermanent {
			out[k] = v.Value
		}
	}
	return out
}

// ClearNonPermanentVariables drops every non-permanent custom variable,
// called on reset().
func (m *Metadata) ClearNonPermanentVariables() {
	for k, v := range m.CustomVariables {
		if !v.IsPermanent {
			delete(m.CustomVariables, k)
		}
	}
}
