package ppm

import (
	"math"
	"sync/atomic"
)

// PinMode is the configuration of an output or trainer pin.
type PinMode uint8

const (
	// PinIdle leaves the pin undriven.
	PinIdle PinMode = iota
	// PinOutput drives the frame.
	PinOutput
	// PinInput captures edges.
	PinInput
)

func (m PinMode) String() string {
	switch m {
	case PinOutput:
		return "output"
	case PinInput:
		return "input"
	default:
		return "idle"
	}
}

// Pin is a GPIO the timer drives.
type Pin interface {
	Configure(mode PinMode)
	Set(high bool)
}

// NopPin ignores all calls.
type NopPin struct{}

func (NopPin) Configure(PinMode) {}
func (NopPin) Set(bool)          {}

// PinModes returns the output and trainer pin configuration for a protocol
// and role.
func PinModes(proto Protocol, role Role) (out, trainer PinMode) {
	trainer = PinInput
	if proto == ProtoPPMSim {
		if role == RoleSlave {
			trainer = PinIdle
		}
		return PinIdle, trainer
	}
	if role == RoleSlave {
		trainer = PinOutput
	}
	return PinOutput, trainer
}

// Timer plays frame tables from a compare interrupt. OnCompare must only be
// called from the interrupt; the statistics accessors are safe from any
// goroutine.
type Timer struct {
	enc     *Encoder
	out     Pin
	trainer Pin

	// owned by OnCompare
	settings   *Settings
	tables     [2]Table
	phase      int
	cursor     int
	active     bool
	requested  uint16
	armed      bool
	outMode    PinMode
	trnMode    PinMode
	configured bool

	latMin    atomic.Int32
	latMax    atomic.Int32
	frames    atomic.Uint32
	failed    atomic.Uint32
	capturing atomic.Bool
}

// NewTimer creates a timer playing frames from enc. Nil pins are replaced
// with NopPin.
func NewTimer(enc *Encoder, out, trainer Pin) *Timer {
	if out == nil {
		out = NopPin{}
	}
	if trainer == nil {
		trainer = NopPin{}
	}
	t := &Timer{enc: enc, out: out, trainer: trainer}
	t.ResetLatency()
	return t
}

// OnCompare handles a compare match at timer count and returns the next
// compare value.
func (t *Timer) OnCompare(count uint16) uint16 {
	if t.armed {
		t.recordLatency(int16(count - t.requested))
	} else {
		t.requested = count
		t.armed = true
	}

	if t.cursor >= t.tables[t.phase].Len() {
		t.nextFrame()
		if t.tables[t.phase].Len() == 0 {
			// nothing to replay yet, wait one frame
			t.requested += uint16(calcFrame(t.settings))
			return t.requested
		}
	}

	t.active = !t.active
	t.drive()

	t.requested += uint16(t.tables[t.phase].Delta(t.cursor))
	t.cursor++
	return t.requested
}

// nextFrame advances to the next phase at a frame boundary: it applies the
// pin configuration, rebuilds the table and resets the polarity.
func (t *Timer) nextFrame() {
	t.phase++
	if t.settings == nil || t.phase >= t.settings.Phases() {
		t.phase = 0
	}
	if t.phase == 0 {
		t.settings = t.enc.Settings()
		t.applyPins()
	}

	if err := t.enc.Build(t.phase, t.settings, &t.tables[t.phase]); err != nil {
		t.failed.Add(1)
	}
	t.cursor = 0
	t.active = false
	t.drive()
	t.frames.Add(1)
}

func (t *Timer) applyPins() {
	out, trn := PinModes(t.settings.Protocol, t.settings.Role)
	if !t.configured || out != t.outMode {
		t.out.Configure(out)
	}
	if !t.configured || trn != t.trnMode {
		t.trainer.Configure(trn)
	}
	t.outMode, t.trnMode, t.configured = out, trn, true
	t.capturing.Store(trn == PinInput)
}

func (t *Timer) drive() {
	level := t.active == t.settings.PositivePol
	if t.outMode == PinOutput {
		t.out.Set(level)
	}
	if t.trnMode == PinOutput {
		t.trainer.Set(level)
	}
}

func (t *Timer) recordLatency(l int16) {
	v := int32(l)
	if v < t.latMin.Load() {
		t.latMin.Store(v)
	}
	if v > t.latMax.Load() {
		t.latMax.Store(v)
	}
}

// Latency returns the smallest and largest observed difference between the
// scheduled and actual compare counts since the last reset.
func (t *Timer) Latency() (lo, hi int16) {
	lo32, hi32 := t.latMin.Load(), t.latMax.Load()
	if lo32 > hi32 {
		return 0, 0
	}
	return int16(lo32), int16(hi32)
}

// ResetLatency clears the latency statistics.
func (t *Timer) ResetLatency() {
	t.latMin.Store(math.MaxInt16)
	t.latMax.Store(math.MinInt16)
}

// Frames returns the number of frames started.
func (t *Timer) Frames() uint32 { return t.frames.Load() }

// Failed returns the number of frames that replayed the previous table.
func (t *Timer) Failed() uint32 { return t.failed.Load() }

// Capturing reports whether the trainer pin is configured for capture.
func (t *Timer) Capturing() bool { return t.capturing.Load() }

func calcFrame(s *Settings) int {
	if s == nil || s.FrameLength < MinGap {
		return MinGap
	}
	if s.FrameLength > math.MaxUint16 {
		return math.MaxUint16
	}
	return s.FrameLength
}
