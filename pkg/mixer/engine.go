// Package mixer turns calibrated stick samples into output channels by
// running the model's expo tables, trims, trainer blending, swashplate
// mixing, mix program, limits and safety switches once per sampling cycle.
package mixer

import (
	"log"
	"slices"
	"sync/atomic"
	"time"

	"github.com/itohio/gotx/pkg/calc"
	"github.com/itohio/gotx/pkg/channel"
	"github.com/itohio/gotx/pkg/config"
	"github.com/itohio/gotx/pkg/input"
)

const (
	numAnas = input.NumSticks + input.NumPots

	// delMult is the fixed-point scale of ramp accumulators.
	delMult = 256
)

// TrainerInput supplies the channels captured from the trainer port.
type TrainerInput interface {
	// Inputs copies the captured channels into dst and reports whether the
	// capture is current.
	Inputs(dst *[config.NumTrainerInputs]int16) bool
	// Tick ages the capture; called once per mixer cycle.
	Tick()
}

// Engine is the mixer. Run must be called from a single goroutine; trims and
// trainer calibration may be adjusted concurrently.
type Engine struct {
	store   *config.Store
	out     *channel.Array
	audio   Audio
	trainer TrainerInput
	cycleMs int32

	trims [input.NumSticks]atomic.Int32

	// owned by Run
	model      *config.Model
	radio      *config.Radio
	ramps      [config.MaxMixers]ramp
	chans      [config.NumChannels]int32 // accumulators, x100
	exChans    [config.NumChannels]int16 // previous cycle before limits
	final      [config.NumChannels]int16
	sticky     [config.NumChannels]bool
	calibrated [numAnas]int16
	anas       [numAnas]int16
	trimA      [input.NumSticks]int16
	cyc        [3]int16
	ppmIn      [config.NumTrainerInputs]int16
	ppmValid   bool
	center     uint8
	warnings   uint8
	lastTick   uint16
	started    bool
	inactivity inactivity
}

// New creates a mixer publishing into out. cycle is the sampling period the
// ramp and alarm timings are derived from.
func New(store *config.Store, out *channel.Array, cycle time.Duration) *Engine {
	ms := int32(cycle / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	e := &Engine{
		store:   store,
		out:     out,
		audio:   NoAudio{},
		cycleMs: ms,
	}
	e.load(store.Model())
	return e
}

// SetAudio sets the alert sink. Call before the first Run.
func (e *Engine) SetAudio(a Audio) {
	if a == nil {
		a = NoAudio{}
	}
	e.audio = a
}

// SetTrainer sets the trainer capture source. Call before the first Run.
func (e *Engine) SetTrainer(t TrainerInput) { e.trainer = t }

// Outputs returns the published channel array.
func (e *Engine) Outputs() *channel.Array { return e.out }

// Run executes one mixer cycle and publishes the channels.
func (e *Engine) Run(in input.Sample) {
	m := e.store.Model()
	if m != e.model {
		e.load(m)
	}
	e.radio = e.store.Radio()

	e.ppmValid = false
	if e.trainer != nil {
		e.ppmValid = e.trainer.Inputs(&e.ppmIn)
		e.trainer.Tick()
	}

	e.sticks(m, &in)
	e.cyclic(m)
	e.mix(m, in.Switches)
	e.alerts(m, &in)
	e.limits(m, in.Switches)

	e.out.Publish(&e.final)
}

// load switches to a new model. Ramp and sticky state survive unless the mix
// program changed.
func (e *Engine) load(m *config.Model) {
	if e.model == nil || !slices.Equal(e.model.Mixes, m.Mixes) {
		e.ramps = [config.MaxMixers]ramp{}
	}
	if e.model == nil || !slices.Equal(e.model.Safety, m.Safety) {
		e.sticky = [config.NumChannels]bool{}
	}
	for i := range e.trims {
		e.trims[i].Store(int32(m.Trims[i]))
	}
	e.model = m
}

// sticks normalizes the analog inputs and runs the per stick stages:
// swash ring, expo and weight, trim and trainer blending.
func (e *Engine) sticks(m *config.Model, in *input.Sample) {
	r := e.radio
	for i := range numAnas {
		var v int16
		if i < input.NumSticks {
			v = in.Sticks[i]
		} else {
			v = in.Pots[i-input.NumSticks]
		}
		v = calc.Clamp(v, -calc.RESX, calc.RESX)
		if i == input.StickThrottle && r.ThrottleReversed {
			v = -v
		}
		e.calibrated[i] = v
		e.anas[i] = v
	}

	ring := int32(m.Swash.RingValue)
	var d int32
	if m.Swash.Type != config.SwashNone && ring > 0 {
		ele := int32(e.calibrated[input.StickElevator])
		ail := int32(e.calibrated[input.StickAileron])
		q := uint32(calc.RESX * ring / 100)
		if v := uint32(ele*ele + ail*ail); v > q*q {
			d = int32(calc.ISqrt32(v))
		}
	}

	for i := range input.NumSticks {
		v := int32(e.calibrated[i])
		if d != 0 && (i == input.StickElevator || i == input.StickAileron) {
			v = v * ring * calc.RESX / (d * 100)
		}

		ed := &m.Expos[i]
		rate := &ed.Rates[rateBand(ed, in.Switches)]
		expo, weight := rate.ExpoLeft, rate.WeightLeft
		if v > 0 {
			expo, weight = rate.ExpoRight, rate.WeightRight
		}

		thrExpo := i == input.StickThrottle && m.ThrottleExpo
		if thrExpo {
			v = 2 * int32(calc.Expo(int16((v+calc.RESX)/2), int16(rate.ExpoRight)))
			weight = rate.WeightRight
		} else {
			v = int32(calc.Expo(int16(v), int16(expo)))
		}
		v = v * int32(weight) / 100
		if thrExpo {
			v -= calc.RESX
		}

		trim := e.trims[i].Load()
		if i == input.StickThrottle && m.ThrottleTrim {
			// idle trim fading out towards full throttle
			vv := (trim + config.TrimMax) * (calc.RESX - v) / (2 * calc.RESX)
			e.trimA[i] = int16(vv * 2)
		} else {
			e.trimA[i] = int16(trim * 2)
		}

		if m.TrainerOn && e.ppmValid {
			tm := &r.Trainer.Mix[i]
			if tm.Mode != config.TrainerOff && in.Switches.Resolve(tm.Switch, true) {
				src := calc.Clamp(tm.Source, 0, config.NumTrainerInputs-1)
				stud := (int32(e.ppmIn[src]) - int32(r.Trainer.Calib[src])) * 2 * int32(tm.Weight) / 100
				switch tm.Mode {
				case config.TrainerAdd:
					v += stud
				case config.TrainerReplace:
					v = stud
				}
			}
		}

		e.anas[i] = int16(calc.Clamp(v, -2*calc.RESX, 2*calc.RESX))
	}
}

// rateBand selects the expo band: switch 1 off is high rate, otherwise
// switch 2 picks mid (off) or low (on).
func rateBand(ed *config.ExpoData, sw input.Switches) int {
	if !sw.Resolve(ed.Switch1, false) {
		return config.RateHigh
	}
	if !sw.Resolve(ed.Switch2, false) {
		return config.RateMid
	}
	return config.RateLow
}

// rezSwashX scales by ~cos(30).
func rezSwashX(x int32) int32 { return x - x/8 - x/128 - x/512 }

// cyclic computes the three swashplate servo sources.
func (e *Engine) cyclic(m *config.Model) {
	sw := &m.Swash
	if sw.Type == config.SwashNone {
		e.cyc = [3]int16{}
		return
	}

	vp := int32(e.anas[input.StickElevator]) + int32(e.trimA[input.StickElevator])
	vr := int32(e.anas[input.StickAileron]) + int32(e.trimA[input.StickAileron])
	var vc int32
	if src := sw.CollectiveSource; src.IsAnalog() {
		vc = int32(e.anas[src-config.SrcRudder])
	}

	if sw.InvertELE {
		vp = -vp
	}
	if sw.InvertAIL {
		vr = -vr
	}
	if sw.InvertCOL {
		vc = -vc
	}

	if ring := int32(sw.RingValue); ring > 0 {
		q := calc.RESX * ring / 100
		if d := int32(calc.ISqrt32(uint32(vp*vp + vr*vr))); d > q {
			vp = vp * q / d
			vr = vr * q / d
		}
	}

	var c [3]int32
	switch sw.Type {
	case config.Swash120:
		vr = rezSwashX(vr)
		c = [3]int32{vc - vp, vc + vp/2 + vr, vc + vp/2 - vr}
	case config.Swash120X:
		vp = rezSwashX(vp)
		c = [3]int32{vc - vr, vc + vr/2 + vp, vc + vr/2 - vp}
	case config.Swash140:
		c = [3]int32{vc - vp, vc + vp + vr, vc + vp - vr}
	case config.Swash90:
		c = [3]int32{vc - vp, vc + vr, vc - vr}
	}
	for i := range c {
		e.cyc[i] = int16(calc.Clamp(c[i], -2*calc.RESX, 2*calc.RESX))
	}
}

// alerts schedules mix warnings and handles center beeps and the inactivity
// alarm.
func (e *Engine) alerts(m *config.Model, in *input.Sample) {
	var center uint8
	for i, v := range e.calibrated {
		if v/16 == 0 {
			center |= 1 << i
		}
	}
	center &= m.BeepCenter
	if (e.center^center)&center != 0 {
		e.audio.Play(ToneStickCenter)
	}
	e.center = center

	if e.started {
		e.scheduleWarnings(e.lastTick, in.Tick)
	}
	e.lastTick = in.Tick
	e.started = true

	if e.inactivity.update(&in.Sticks, e.radio.InactivityMinutes, e.cycleMs) {
		e.audio.Play(ToneInactivity)
	}
}

// Trims returns the current trim values.
func (e *Engine) Trims() [input.NumSticks]int8 {
	var t [input.NumSticks]int8
	for i := range t {
		t[i] = int8(e.trims[i].Load())
	}
	return t
}

// CalibrateTrainer stores the current trainer inputs as their centers. It
// reports false when no valid capture is available.
func (e *Engine) CalibrateTrainer() bool {
	if e.trainer == nil {
		return false
	}
	var in [config.NumTrainerInputs]int16
	if !e.trainer.Inputs(&in) {
		return false
	}
	e.store.SetTrainerCalib(in)
	log.Printf("Trainer calibrated: %v", in)
	return true
}
