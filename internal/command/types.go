// internal/command/types.go
package command

import "fmt"

// Kind is the control command family.
type Kind uint8

const (
	KindSingle Kind = iota + 1
	KindDouble
	KindStep
	KindBitstring
)

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "SP"
	case KindDouble:
		return "DP"
	case KindStep:
		return "RC"
	case KindBitstring:
		return "BS"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// DoubleValue is the double command state (DCS).
type DoubleValue uint8

const (
	DoubleOff DoubleValue = 1
	DoubleOn  DoubleValue = 2
)

// StepValue is the regulating step command state (RCS).
type StepValue uint8

const (
	StepDecrement StepValue = 1
	StepIncrement StepValue = 2
)

// Duration is the qualifier of command (QU).
type Duration uint8

const (
	DurationNone Duration = iota
	DurationShortPulse
	DurationLongPulse
	DurationPersistent
)

// Qualifiers are the optional parts of a command.
// Bitstring commands ignore Select and Duration.
type Qualifiers struct {
	Select   bool // select (true) or execute (false)
	Duration Duration
	TimeTag  bool // send the time-tagged variant (CP56Time2a)
}

// Spec is an immutable descriptor of one outbound command.
// Exactly one value field is meaningful, selected by Kind.
type Spec struct {
	Kind       Kind
	CommonAddr uint16
	IOA        uint16

	Single    bool
	Double    DoubleValue
	Step      StepValue
	Bitstring uint32

	Qualifiers Qualifiers
}

func (s Spec) String() string {
	var v string
	switch s.Kind {
	case KindSingle:
		v = fmt.Sprintf("%t", s.Single)
	case KindDouble:
		v = fmt.Sprintf("%d", s.Double)
	case KindStep:
		v = fmt.Sprintf("%d", s.Step)
	case KindBitstring:
		v = fmt.Sprintf("0x%08x", s.Bitstring)
	}
	return fmt.Sprintf("%s ca=%d ioa=%d value=%s", s.Kind, s.CommonAddr, s.IOA, v)
}

// Batch is the fixed, ordered list sent on every heartbeat.
type Batch []Spec
