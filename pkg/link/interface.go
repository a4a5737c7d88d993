// Package link connects the host to the MCU that samples the sticks and owns
// the pulse and trainer pins.
package link

import (
	"errors"
	"time"

	"github.com/itohio/gotx/pkg/link/wire"
	"github.com/itohio/gotx/pkg/ppm"
)

// ErrNotConnected is returned by commands sent to a closed device.
var ErrNotConnected = errors.New("not connected")

// RawSample is one stick sampling cycle as read by the MCU.
type RawSample struct {
	Timestamp time.Time
	Tick      uint16                 // 10 ms ticks
	Analog    [wire.NumAnalog]uint16 // 12-bit ADC: sticks then pots
	Battery   uint16                 // percent
	Switches  uint32
}

// Captures is a batch of trainer pin capture counts in arrival order.
type Captures struct {
	Timestamp time.Time
	Counts    []uint16
}

// Device defines the interface for transmitter MCUs (real or mocked).
type Device interface {
	Connect() error
	Close() error
	Samples() <-chan RawSample
	Captures() <-chan Captures
	SendOutputs(ch *[ppm.NumChannels]int16) error
	SendSettings(s ppm.Settings) error
	// SendReloading tells the MCU a configuration reload started or ended.
	// While it is set the MCU replays the last frames instead of building
	// new ones.
	SendReloading(reloading bool) error
	// Latency returns the compare latency range reported by the MCU.
	Latency() (lo, hi int16)
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)

func fromWire(s *wire.Sample) RawSample {
	return RawSample{
		Timestamp: time.UnixMicro(s.Micros),
		Tick:      s.Tick,
		Analog:    s.Analog,
		Battery:   s.Battery,
		Switches:  s.Switches,
	}
}
