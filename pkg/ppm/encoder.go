// Package ppm builds pulse-position frames from the output channels, plays
// them from a compare interrupt and decodes frames captured on the trainer
// port. Times are microseconds of a free running 1 MHz 16-bit timer.
package ppm

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/itohio/gotx/pkg/calc"
)

const (
	// Center is the pulse width of a centered channel.
	Center = 1500
	// NormalRange is the full scale channel value in normal mode (+/-512 us).
	NormalRange = 1024
	// ExtendedRange is the full scale channel value in extended mode (+/-640 us).
	ExtendedRange = 1280

	// StopBase and StopStep give the stop period 300+50*delay.
	StopBase = 300
	StopStep = 50

	// MinGap keeps the frame gap above the sync detection threshold.
	MinGap = 4500
	// MaxGap keeps the gap below the 16-bit timer range.
	MaxGap = 0xFFFF - 9000

	// MaxPhaseChannels is the channel capacity of one frame.
	MaxPhaseChannels = 8
	// NumChannels is the number of channels a frame may start from.
	NumChannels = 16
)

// ErrConfigReloading is returned while the configuration is being replaced.
var ErrConfigReloading = errors.New("configuration reloading")

// Protocol selects the pulse train variant.
type Protocol uint8

const (
	// ProtoPPM is a single frame of up to 8 channels.
	ProtoPPM Protocol = iota
	// ProtoPPM16 alternates two frames of up to 8 channels each.
	ProtoPPM16
	// ProtoPPMSim computes frames without driving the output.
	ProtoPPMSim
)

// Role is the trainer port direction.
type Role uint8

const (
	// RoleMaster captures a trainee on the trainer port.
	RoleMaster Role = iota
	// RoleSlave drives the frame onto the trainer port.
	RoleSlave
)

// Settings are the frame parameters. The encoder reads them once per frame.
type Settings struct {
	Protocol    Protocol
	Role        Role
	Channels    int // first frame
	Delay       int // stop period 300+50*Delay
	FrameLength int // us
	PositivePol bool
	Extended    bool
	Start2      int // second frame, first channel
	Channels2   int // second frame
}

// Phases returns the number of frames per cycle.
func (s *Settings) Phases() int {
	if s.Protocol == ProtoPPM16 {
		return 2
	}
	return 1
}

// span returns the clamped channel range of a phase.
func (s *Settings) span(phase int) (first, n int) {
	if phase == 0 {
		return 0, calc.Clamp(s.Channels, 1, MaxPhaseChannels)
	}
	n = calc.Clamp(s.Channels2, 1, MaxPhaseChannels)
	return calc.Clamp(s.Start2, 0, NumChannels-n), n
}

// Source is the channel array frames are built from.
type Source interface {
	Channel(i int) int16
}

// Guard reports a configuration reload in progress.
type Guard interface {
	Reloading() bool
}

// ReloadFlag is a Guard set by the side replacing the configuration.
type ReloadFlag struct{ v atomic.Bool }

func (f *ReloadFlag) Set(reloading bool) { f.v.Store(reloading) }
func (f *ReloadFlag) Reloading() bool    { return f.v.Load() }

// Encoder builds frame tables from a channel source.
type Encoder struct {
	src      Source
	guard    Guard
	settings atomic.Pointer[Settings]
}

// NewEncoder creates an encoder. guard may be nil.
func NewEncoder(src Source, guard Guard, s Settings) *Encoder {
	e := &Encoder{src: src, guard: guard}
	e.SetSettings(s)
	return e
}

// SetSettings replaces the frame parameters. They take effect at the next
// frame boundary.
func (e *Encoder) SetSettings(s Settings) { e.settings.Store(&s) }

// Settings returns the current frame parameters. The result must not be modified.
func (e *Encoder) Settings() *Settings { return e.settings.Load() }

// Build computes the frame of the given phase into dst. On error dst is left
// untouched so the previous frame can be replayed.
func (e *Encoder) Build(phase int, s *Settings, dst *Table) error {
	if e.guard != nil && e.guard.Reloading() {
		return ErrConfigReloading
	}

	first, n := s.span(phase)
	lim := int32(NormalRange)
	if s.Extended {
		lim = ExtendedRange
	}
	stop := uint32(StopBase + StopStep*calc.Clamp(s.Delay, 0, 8))

	var t Table
	var pos uint32
	for i := first; i < first+n; i++ {
		v := calc.Clamp(int32(e.src.Channel(i)), -lim, lim)
		w := uint32(Center + v/2)
		if err := t.Append(pos + stop); err != nil {
			return fmt.Errorf("channel %d: %w", i+1, err)
		}
		pos += w
		if err := t.Append(pos); err != nil {
			return fmt.Errorf("channel %d: %w", i+1, err)
		}
	}

	pos += stop
	if err := t.Append(pos); err != nil {
		return err
	}
	gap := calc.Clamp(int64(s.FrameLength)-int64(pos), MinGap, MaxGap)
	if err := t.Append(pos + uint32(gap)); err != nil {
		return err
	}

	*dst = t
	return nil
}
