package mixer

import (
	"github.com/itohio/gotx/pkg/calc"
	"github.com/itohio/gotx/pkg/config"
	"github.com/itohio/gotx/pkg/input"
)

// limits remaps every accumulator through its limit entry and applies the
// safety switches.
func (e *Engine) limits(m *config.Model, sw input.Switches) {
	for i := range config.NumChannels {
		q := e.chans[i]
		e.exChans[i] = int16(calc.Clamp(q/100, -2*calc.RESX, 2*calc.RESX))

		l := m.Limit(i)
		limP := int32(l.Max) * 10
		limN := int32(l.Min) * 10
		ofs := calc.Clamp(int32(l.Offset), limN, limP)

		// q is x100, the limits x10 in per mille: /100000 lands in RESX
		if q > 0 {
			q = int32(int64(q) * int64(limP-ofs) / 100000)
		} else {
			q = int32(-int64(q) * int64(limN-ofs) / 100000)
		}
		q += int32(calc.Calc1000ToRESX(int16(ofs)))
		q = calc.Clamp(q, limN*calc.RESX/1000, limP*calc.RESX/1000)
		if l.Reverse {
			q = -q
		}

		e.final[i] = int16(e.safety(i, m.SafetySwitch(i), sw, q))
	}
}

// safety overrides channel ch while its safety switch is active. A sticky
// switch stays latched after release until the channel is at or below the
// override value.
func (e *Engine) safety(ch int, s config.SafetySwitch, sw input.Switches, q int32) int32 {
	if s.Switch == 0 {
		e.sticky[ch] = false
		return q
	}
	val := int32(calc.Calc100ToRESX(s.Value))
	active := sw.Resolve(s.Switch, false)
	if s.Mode == config.SafetySticky {
		switch {
		case active:
			e.sticky[ch] = true
		case e.sticky[ch] && q <= val:
			e.sticky[ch] = false
		}
		active = e.sticky[ch]
	}
	if active {
		return val
	}
	return q
}
