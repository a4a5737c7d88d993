package config

import (
	"errors"
	"fmt"

	"github.com/itohio/gotx/pkg/input"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...)
}

// Validate checks the whole configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error
	if c.Runtime.SampleInterval <= 0 {
		errs = append(errs, invalid("sample interval %v", c.Runtime.SampleInterval))
	}
	errs = append(errs, c.Radio.Validate())
	if c.Model == nil {
		errs = append(errs, invalid("no model"))
	} else {
		errs = append(errs, c.Model.Validate())
	}
	return errors.Join(errs...)
}

// Validate checks radio wide settings.
func (r *Radio) Validate() error {
	var errs []error
	for i, cal := range r.Calibration {
		if cal.Mid < 0 || cal.Mid > 4095 {
			errs = append(errs, invalid("calibration %d: mid %d outside 0..4095", i, cal.Mid))
		}
		if cal.SpanNeg < 0 || cal.SpanPos < 0 {
			errs = append(errs, invalid("calibration %d: negative span", i))
		}
	}
	for i, tm := range r.Trainer.Mix {
		if tm.Source < 0 || tm.Source >= NumTrainerInputs {
			errs = append(errs, invalid("trainer mix %d: source %d outside 0..%d", i, tm.Source, NumTrainerInputs-1))
		}
		if tm.Weight < -100 || tm.Weight > 100 {
			errs = append(errs, invalid("trainer mix %d: weight %d", i, tm.Weight))
		}
		if !validSwitch(tm.Switch) {
			errs = append(errs, invalid("trainer mix %d: switch %d", i, tm.Switch))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the model program. Mix entries past the first terminating
// entry are not checked: they are never executed.
func (m *Model) Validate() error {
	var errs []error

	errs = append(errs, m.PPM.validate(m.Protocol))

	limit := int8(100)
	if m.ExtendedLimits {
		limit = 125
	}

	for i, t := range m.Trims {
		if t < -TrimMax || t > TrimMax {
			errs = append(errs, invalid("trim %d: %d outside +/-%d", i, t, TrimMax))
		}
	}
	if m.TrimIncrement > 4 {
		errs = append(errs, invalid("trim increment %d", m.TrimIncrement))
	}

	if m.Swash.RingValue < 0 || m.Swash.RingValue > 100 {
		errs = append(errs, invalid("swash ring %d", m.Swash.RingValue))
	}
	if m.Swash.CollectiveSource != SrcNone && !m.Swash.CollectiveSource.IsAnalog() {
		errs = append(errs, invalid("swash collective source %s: not a stick or pot", m.Swash.CollectiveSource))
	}

	for i, e := range m.Expos {
		if !validSwitch(e.Switch1) || !validSwitch(e.Switch2) {
			errs = append(errs, invalid("expo %d: rate switch", i))
		}
		for r, rate := range e.Rates {
			if rate.ExpoLeft < -100 || rate.ExpoLeft > 100 || rate.ExpoRight < -100 || rate.ExpoRight > 100 {
				errs = append(errs, invalid("expo %d rate %d: expo outside +/-100", i, r))
			}
			if rate.WeightLeft < 0 || rate.WeightLeft > 100 || rate.WeightRight < 0 || rate.WeightRight > 100 {
				errs = append(errs, invalid("expo %d rate %d: weight outside 0..100", i, r))
			}
		}
	}

	if len(m.Mixes) > MaxMixers {
		errs = append(errs, invalid("%d mixes, at most %d", len(m.Mixes), MaxMixers))
	}
	for i := range m.Mixes {
		md := &m.Mixes[i]
		if md.Terminates() {
			break
		}
		errs = append(errs, m.validateMix(i, md))
	}

	if len(m.Curves) > MaxCurves {
		errs = append(errs, invalid("%d curves, at most %d", len(m.Curves), MaxCurves))
	}
	for i, cv := range m.Curves {
		if n := len(cv.Points); n != 5 && n != 9 {
			errs = append(errs, invalid("curve %d: %d points, want 5 or 9", i+1, n))
		}
		for j, p := range cv.Points {
			if p < -100 || p > 100 {
				errs = append(errs, invalid("curve %d point %d: %d", i+1, j+1, p))
			}
		}
	}

	if len(m.Limits) > NumChannels {
		errs = append(errs, invalid("%d limits, at most %d", len(m.Limits), NumChannels))
	}
	for i, l := range m.Limits {
		if l.Min < -limit || l.Max > limit || l.Min > l.Max {
			errs = append(errs, invalid("limit %d: %d..%d outside +/-%d", i+1, l.Min, l.Max, limit))
		}
		if l.Offset < -1000 || l.Offset > 1000 {
			errs = append(errs, invalid("limit %d: offset %d", i+1, l.Offset))
		}
	}

	if len(m.Safety) > NumChannels {
		errs = append(errs, invalid("%d safety switches, at most %d", len(m.Safety), NumChannels))
	}
	for i, s := range m.Safety {
		if !validSwitch(s.Switch) {
			errs = append(errs, invalid("safety %d: switch %d", i+1, s.Switch))
		}
		if s.Value < -limit || s.Value > limit {
			errs = append(errs, invalid("safety %d: value %d", i+1, s.Value))
		}
	}

	return errors.Join(errs...)
}

func (m *Model) validateMix(i int, md *Mix) error {
	var errs []error
	if md.Weight < -100 || md.Weight > 100 {
		errs = append(errs, invalid("mix %d: weight %d", i+1, md.Weight))
	}
	if md.Offset < -100 || md.Offset > 100 {
		errs = append(errs, invalid("mix %d: offset %d", i+1, md.Offset))
	}
	if !validSwitch(md.Switch) {
		errs = append(errs, invalid("mix %d: switch %d", i+1, md.Switch))
	}
	if md.Curve < CurveNone || md.Curve >= CurveTable1+MaxCurves {
		errs = append(errs, invalid("mix %d: curve %d", i+1, md.Curve))
	} else if md.Curve >= CurveTable1 && md.Curve-CurveTable1 >= len(m.Curves) {
		errs = append(errs, invalid("mix %d: curve table %d not defined", i+1, md.Curve-CurveTable1+1))
	}
	if md.Mode > MixReplace {
		errs = append(errs, invalid("mix %d: mode %d", i+1, md.Mode))
	}
	if md.Warning > 3 {
		errs = append(errs, invalid("mix %d: warning %d", i+1, md.Warning))
	}
	return errors.Join(errs...)
}

// validate checks frame timing. A dual phase start that would push the
// second frame past the last channel is rejected here even though the
// encoder clamps it.
func (p *PPMConfig) validate(proto Protocol) error {
	var errs []error
	if p.Channels < 1 || p.Channels > NumPhaseChannels {
		errs = append(errs, invalid("ppm channels %d outside 1..%d", p.Channels, NumPhaseChannels))
	}
	if p.Delay < 0 || p.Delay > 8 {
		errs = append(errs, invalid("ppm delay %d outside 0..8", p.Delay))
	}
	if p.FrameLength <= 0 || p.FrameLength > 0xFFFF {
		errs = append(errs, invalid("ppm frame length %d", p.FrameLength))
	}
	if p.InputMultiplier < -10 || p.InputMultiplier > 10 {
		errs = append(errs, invalid("ppm input multiplier %d", p.InputMultiplier))
	}
	if proto == ProtoPPM16 {
		if p.Channels2 < 1 || p.Channels2 > NumPhaseChannels {
			errs = append(errs, invalid("ppm16 channels %d outside 1..%d", p.Channels2, NumPhaseChannels))
		} else if p.Start2 < 0 || p.Start2+p.Channels2 > NumChannels {
			errs = append(errs, invalid("ppm16 start %d with %d channels exceeds %d channels", p.Start2, p.Channels2, NumChannels))
		}
	}
	return errors.Join(errs...)
}

func validSwitch(id int) bool {
	return id >= -input.MaxSwitch && id <= input.MaxSwitch
}
