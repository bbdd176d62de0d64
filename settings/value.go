// Package settings implements the auto-splitter's shared configuration
// surface// interface with the embedder"): a generation-tagged settings map/list
// value store behind a compare-and-swap, plus a tick-rate holder the
// owner thread and the auto-splitter loop both touch without contending
// on the Timer's own lock.
package settings // import "speedruntimer/settings"

import "fmt"

// Kind tags which variant a Value currently holds// settings values "abstractly"; concretely a WASM auto-splitter can only
// marshal a handful of primitive shapes across the host boundary).
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is one settings entry: a tagged union over the four primitive
// kinds a WASM host call can pass across the sandbox boundary. It does not
// implement flag.Value the way dflag.DynValue[T] does (these entries
// aren't registered on a flag.FlagSet — there's no owning FlagSet for a
// per-run, per-auto-splitter settings map), but the tagged-storage shape
// mirrors dflag/dyngeneric.go's DynValue[T] directly.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

func BoolValue(b bool) Value     { return Value{kind: KindBool, b: b} }
func IntValue(i int64) Value     { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// Kind returns which variant v holds.
func (v Value) Kind() Kind { return v.kind }

func (v Value) Bool() (bool, bool)     { return v.b, v.kind == KindBool }
func (v Value) Int() (int64, bool)     { return v.i, v.kind == KindInt }
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }
func (v Value) Str() (string, bool)    { return v.s, v.kind == KindString }

// Text renders v for display/debugging regardless of kind, the way a
// settings-widget label would.
func (v Value) Text() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	default:
		return ""
	}
}
