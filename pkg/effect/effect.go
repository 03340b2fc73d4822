// Package effect implements the DSP effect variants and the ordered chain
// that processes a block through them in place. Every variant keeps its own
// persistent state record and exposes a common Effect interface; Go's
// interface dispatch stands in for the tagged-variant/discriminant-branch
// design the source favors, since each variant here is already a distinct
// concrete type with no shared base struct to discriminate on.
package effect

import (
	"github.com/wavepath/dawcore/pkg/audio"
	"github.com/wavepath/dawcore/pkg/param"
)

// Effect is a sample-block transform with per-instance persistent state.
// Process mutates buffer in place and must not allocate once the effect has
// processed its first block at a stable sample rate.
type Effect interface {
	Enabled() bool
	SetEnabled(bool)
	Process(buf *audio.Buffer, sampleRate float64)
	Reset()
	// Params exposes the effect's indexed descriptor set, the binding
	// point for spec's (effectRef, paramIndex, value) SetParam contract.
	Params() *param.Set
}

// ParamTarget adapts an Effect's indexed Params() set to the bare
// (index, value) shape a control-side SetParam command carries, so an
// effect can be registered as a transport.ParamTarget without this package
// importing transport. Writes go through param.Set.Set, which clamps to
// the descriptor's range.
type ParamTarget struct {
	effect Effect
}

// NewParamTarget wraps eff for registration against an effectRef.
func NewParamTarget(eff Effect) ParamTarget {
	return ParamTarget{effect: eff}
}

// SetParam implements transport.ParamTarget.
func (p ParamTarget) SetParam(index int, value float64) {
	p.effect.Params().Set(index, value)
}

// enabledFlag is embedded by every variant to implement the common
// Enabled/SetEnabled pair without repeating it on each type.
type enabledFlag struct {
	enabled bool
}

func (e *enabledFlag) Enabled() bool     { return e.enabled }
func (e *enabledFlag) SetEnabled(v bool) { e.enabled = v }

// continuousParamRampBlocks is how many Process calls a continuously
// varying parameter (gain, EQ band gain, compressor threshold/ratio) takes
// to ramp to a newly written target, avoiding a zipper click on the block
// boundary the write lands in.
const continuousParamRampBlocks = 8
