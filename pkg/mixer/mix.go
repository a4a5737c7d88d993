package mixer

import (
	"github.com/itohio/gotx/pkg/calc"
	"github.com/itohio/gotx/pkg/config"
	"github.com/itohio/gotx/pkg/input"
)

// ramp is the retained state of one mix entry.
type ramp struct {
	on    bool  // gating switch state of the previous cycle
	act   int32 // current value, x delMult
	delay int32 // cycles left before moving
}

// mix executes the mix program into the channel accumulators. Execution
// stops at the first entry with no destination or source.
func (e *Engine) mix(m *config.Model, sw input.Switches) {
	clear(e.chans[:])
	e.warnings = 0

	var written uint32
	n := min(len(m.Mixes), config.MaxMixers)
	for i := range n {
		md := &m.Mixes[i]
		if md.Terminates() {
			break
		}
		rs := &e.ramps[i]
		dest := md.Dest - 1

		on := sw.Resolve(md.Switch, true)
		toggled := on != rs.on
		rs.on = on

		var v int32
		if !on {
			switch {
			case md.Source == config.SrcMax:
				v = 0
			case md.Source == config.SrcFull:
				v = -calc.RESX
			case md.Mode == config.MixReplace:
				v = 0
			default:
				continue
			}
		} else {
			v = int32(e.source(md.Source, written))
			if md.Warning != 0 {
				e.warnings |= 1 << (md.Warning - 1)
			}
		}

		if !md.LateOffset && md.Offset != 0 {
			v += int32(calc.Calc100ToRESX(md.Offset))
		}

		if md.HasRamp() {
			v = e.ramp(rs, md, v, toggled, dest)
		}

		v = curve(m, md, v)

		if !md.CarryTrim && md.Source.IsStick() {
			v += int32(e.trimA[md.Source-config.SrcRudder])
		}

		dv := v * int32(md.Weight)
		if md.LateOffset && md.Offset != 0 {
			dv += int32(calc.Calc100ToRESX(md.Offset)) * 100
		}

		ptr := &e.chans[dest]
		switch md.Mode {
		case config.MixReplace:
			*ptr = dv
		case config.MixMultiply:
			*ptr = int32(int64(dv/100) * int64(*ptr) / calc.RESX)
		default:
			*ptr += dv
		}
		written |= 1 << dest
	}
}

// source resolves the value a mix entry reads. Output channels already
// written earlier in this cycle read their current accumulator, others the
// previous cycle's value.
func (e *Engine) source(src config.Source, written uint32) int16 {
	switch {
	case src >= config.SrcRudder && src <= config.SrcP3:
		return e.anas[src-config.SrcRudder]
	case src == config.SrcMax || src == config.SrcFull:
		return calc.RESX
	case src >= config.SrcCyc1 && src <= config.SrcCyc3:
		return e.cyc[src-config.SrcCyc1]
	case src.IsTrainer():
		if !e.ppmValid {
			return 0
		}
		k := src - config.SrcPPM1
		return int16(calc.Clamp((int32(e.ppmIn[k])-int32(e.radio.Trainer.Calib[k]))*2, -2*calc.RESX, 2*calc.RESX))
	case src.IsChannel():
		k := src - config.SrcCH1
		if written&(1<<k) != 0 {
			return int16(calc.Clamp(e.chans[k]/100, -2*calc.RESX, 2*calc.RESX))
		}
		return e.exChans[k]
	}
	return 0
}

// ramp applies delay and speed to v. Delay and direction are latched when
// the gating switch toggles; speed is the time in 0.1 s for full output
// travel.
func (e *Engine) ramp(rs *ramp, md *config.Mix, v int32, toggled bool, dest int) int32 {
	if toggled {
		if md.Mode == config.MixReplace && md.Weight != 0 {
			// continue from what the destination currently shows
			rs.act = int32(e.exChans[dest]) * delMult * 100 / int32(md.Weight)
		}
		if diff := v - rs.act/delMult; diff != 0 {
			d := md.DelayDown
			if diff > 0 {
				d = md.DelayUp
			}
			rs.delay = int32(d) * 100 / e.cycleMs
		}
	}

	if rs.delay > 0 {
		rs.delay--
		return rs.act / delMult
	}

	diff := v - rs.act/delMult
	speed := md.SpeedDown
	if diff > 0 {
		speed = md.SpeedUp
	}
	if diff == 0 || speed == 0 || md.Weight == 0 {
		rs.act = v * delMult
		return v
	}

	rate := int64(delMult*2048*100) / int64(calc.Abs(int32(md.Weight)))
	step := int32(rate * int64(e.cycleMs) / (int64(speed) * 100))
	if step < 1 {
		step = 1
	}
	if diff > 0 {
		rs.act += step
		if rs.act/delMult > v {
			rs.act = v * delMult
		}
	} else {
		rs.act -= step
		if rs.act/delMult < v {
			rs.act = v * delMult
		}
	}
	return rs.act / delMult
}

// curve applies the entry's curve selector.
func curve(m *config.Model, md *config.Mix, v int32) int32 {
	full := md.Source == config.SrcFull
	switch md.Curve {
	case config.CurveNone:
	case config.CurvePositive:
		switch {
		case full && v < 0:
			v = -calc.RESX
		case full:
			v = -calc.RESX + 2*v
		case v < 0:
			v = 0
		}
	case config.CurveNegative:
		switch {
		case full && v > 0:
			v = calc.RESX
		case full:
			v = calc.RESX + 2*v
		case v > 0:
			v = 0
		}
	case config.CurveAbs:
		v = calc.Abs(v)
	case config.CurveStepPositive:
		if v > 0 {
			v = calc.RESX
		} else {
			v = 0
		}
	case config.CurveStepNegative:
		if v < 0 {
			v = -calc.RESX
		} else {
			v = 0
		}
	case config.CurveStepAbs:
		if v > 0 {
			v = calc.RESX
		} else {
			v = -calc.RESX
		}
	default:
		idx := md.Curve - config.CurveTable1
		if idx >= 0 && idx < len(m.Curves) {
			x := int16(calc.Clamp(v, -2*calc.RESX, 2*calc.RESX))
			v = int32(calc.Interpolate(x, m.Curves[idx].Points))
		}
	}
	return v
}
