// internal/command/builder.go
package command

import (
	"strconv"

	"github.com/juju/errors"

	cfg "github.com/tamzrod/iec104-driver/internal/config"
)

// Build converts normalized command config into an ordered Batch.
// Order is preserved exactly as configured.
func Build(cs []cfg.CommandConfig) (Batch, error) {
	if len(cs) == 0 {
		return nil, errors.NotValidf("command batch empty")
	}

	out := make(Batch, 0, len(cs))
	for i, c := range cs {
		s, err := buildOne(c)
		if err != nil {
			return nil, errors.Annotatef(err, "commands[%d]", i)
		}
		out = append(out, s)
	}
	return out, nil
}

func buildOne(c cfg.CommandConfig) (Spec, error) {
	s := Spec{
		CommonAddr: c.CommonAddress,
		IOA:        c.IOA,
	}

	d, err := parseDuration(c.Qualifier)
	if err != nil {
		return Spec{}, err
	}
	s.Qualifiers = Qualifiers{Select: c.Select, Duration: d, TimeTag: c.TimeTag}

	switch c.Kind {
	case "single":
		s.Kind = KindSingle
		switch c.Value {
		case "on", "true", "1":
			s.Single = true
		case "off", "false", "0":
			s.Single = false
		default:
			return Spec{}, errors.NotValidf("single value %q", c.Value)
		}

	case "double":
		s.Kind = KindDouble
		switch c.Value {
		case "on", "2":
			s.Double = DoubleOn
		case "off", "1":
			s.Double = DoubleOff
		default:
			return Spec{}, errors.NotValidf("double value %q", c.Value)
		}

	case "step":
		s.Kind = KindStep
		switch c.Value {
		case "increment", "up", "2":
			s.Step = StepIncrement
		case "decrement", "down", "1":
			s.Step = StepDecrement
		default:
			return Spec{}, errors.NotValidf("step value %q", c.Value)
		}

	case "bitstring":
		s.Kind = KindBitstring
		v, err := strconv.ParseUint(c.Value, 0, 32)
		if err != nil {
			return Spec{}, errors.NotValidf("bitstring value %q", c.Value)
		}
		s.Bitstring = uint32(v)
		s.Qualifiers.Select = false
		s.Qualifiers.Duration = DurationNone

	default:
		return Spec{}, errors.NotValidf("kind %q", c.Kind)
	}

	return s, nil
}

func parseDuration(q string) (Duration, error) {
	switch q {
	case "", "none":
		return DurationNone, nil
	case "short":
		return DurationShortPulse, nil
	case "long":
		return DurationLongPulse, nil
	case "persistent":
		return DurationPersistent, nil
	}
	return 0, errors.NotValidf("qualifier %q", q)
}
