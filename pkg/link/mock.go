package link

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/itohio/gotx/pkg/channel"
	"github.com/itohio/gotx/pkg/config"
	"github.com/itohio/gotx/pkg/link/wire"
	"github.com/itohio/gotx/pkg/ppm"
)

const (
	mockMid  = 2048
	mockSpan = 1600
)

// Mock simulates the transmitter MCU: it sweeps the sticks, plays the frames
// on a virtual 1 MHz timer and feeds the output pin back into the trainer
// capture.
type Mock struct {
	cfg *config.MockConfig

	samples   chan RawSample
	captures  chan Captures
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	done      chan struct{}

	outputs  channel.Array
	reload   ppm.ReloadFlag
	enc      *ppm.Encoder
	timer    *ppm.Timer
	switches atomic.Uint32

	// simulation state, owned by the generate goroutine
	startTime time.Time
	clock     uint64 // virtual microseconds
	due       uint64 // next compare
	sched     uint16
	count     uint16
	level     bool
	pending   []uint16
	edges     uint64
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			SampleRate: 20 * time.Millisecond,
			Period:     4 * time.Second,
			Noise:      2,
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Mock{
		cfg:      cfg,
		samples:  make(chan RawSample, DefaultBufferSize),
		captures: make(chan Captures, DefaultBufferSize),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	m.enc = ppm.NewEncoder(&m.outputs, &m.reload, ppm.Settings{
		Channels:    8,
		FrameLength: 22500,
		PositivePol: true,
		Start2:      8,
		Channels2:   8,
	})
	m.timer = ppm.NewTimer(m.enc, loopback{m}, nil)
	return m
}

// Connect starts the simulation.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = time.Now()

	go m.generate()

	return nil
}

// Close stops the simulation. The sample and capture channels are closed
// once the generator exits.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.cancel()
	m.connected = false
	m.mu.Unlock()

	<-m.done
	return nil
}

// Samples returns the channel of stick samples.
func (m *Mock) Samples() <-chan RawSample {
	return m.samples
}

// Captures returns the channel of trainer captures.
func (m *Mock) Captures() <-chan Captures {
	return m.captures
}

// SendOutputs updates the channels the simulated timer plays.
func (m *Mock) SendOutputs(ch *[ppm.NumChannels]int16) error {
	if !m.IsConnected() {
		return ErrNotConnected
	}
	m.outputs.Publish(ch)
	return nil
}

// SendSettings updates the simulated frame settings.
func (m *Mock) SendSettings(s ppm.Settings) error {
	if !m.IsConnected() {
		return ErrNotConnected
	}
	m.enc.SetSettings(s)
	return nil
}

// SendReloading holds the simulated encoder on its last frames while set.
func (m *Mock) SendReloading(reloading bool) error {
	if !m.IsConnected() {
		return ErrNotConnected
	}
	m.reload.Set(reloading)
	return nil
}

// Latency returns the simulated compare latency range.
func (m *Mock) Latency() (lo, hi int16) {
	return m.timer.Latency()
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// SetSwitches sets the simulated switch states.
func (m *Mock) SetSwitches(sw uint32) {
	m.switches.Store(sw)
}

// Frames returns the number of frames the simulated timer started.
func (m *Mock) Frames() uint32 {
	return m.timer.Frames()
}

// Replayed returns the number of frames the simulated timer replayed.
func (m *Mock) Replayed() uint32 {
	return m.timer.Failed()
}

func (m *Mock) generate() {
	defer close(m.done)
	defer close(m.samples)
	defer close(m.captures)

	ticker := time.NewTicker(m.cfg.SampleRate)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case now := <-ticker.C:
			counts := m.advance(uint64(m.cfg.SampleRate / time.Microsecond))
			sample := m.generateSample(now)

			select {
			case m.samples <- sample:
			case <-m.ctx.Done():
				return
			default:
				// Channel full, skip
			}
			if len(counts) == 0 {
				continue
			}
			select {
			case m.captures <- Captures{Timestamp: now, Counts: counts}:
			default:
			}
		}
	}
}

// advance runs the virtual timer for d microseconds and returns the trainer
// captures seen meanwhile.
func (m *Mock) advance(d uint64) []uint16 {
	m.clock += d
	for m.due <= m.clock {
		m.count = m.sched + m.jitter()
		next := m.timer.OnCompare(m.count)
		m.due += uint64(next - m.sched)
		m.sched = next
		m.edges++
	}

	counts := m.pending
	m.pending = nil
	return counts
}

// jitter simulates interrupt latency of up to Noise microseconds.
func (m *Mock) jitter() uint16 {
	if m.cfg.Noise <= 0 {
		return 0
	}
	return uint16(m.edges*7919) % uint16(m.cfg.Noise+1)
}

// generateSample generates a single simulated sample.
func (m *Mock) generateSample(now time.Time) RawSample {
	elapsed := now.Sub(m.startTime)
	phase := 2 * math.Pi * elapsed.Seconds() / m.cfg.Period.Seconds()

	s := wire.Sample{
		Micros:   now.UnixMicro(),
		Tick:     uint16(elapsed / (10 * time.Millisecond)),
		Battery:  100,
		Switches: m.switches.Load(),
	}

	ns := float64(elapsed.Nanoseconds())
	noise := (math.Sin(ns*0.001) + math.Cos(ns*0.0013)) * float64(m.cfg.Noise) * 0.5
	for i := range s.Analog {
		amp := float64(mockSpan)
		if i >= 4 {
			amp /= 2
		}
		v := mockMid + amp*math.Sin(phase+float64(i)*math.Pi/2) + noise
		s.Analog[i] = uint16(math.Max(0, math.Min(wire.MaxADC, v)))
	}

	return fromWire(&s)
}

// loopback is the simulated output pin. Its rising edges reach the trainer
// capture when the trainer pin is an input.
type loopback struct{ m *Mock }

func (loopback) Configure(ppm.PinMode) {}

func (p loopback) Set(high bool) {
	m := p.m
	if high && !m.level && m.timer.Capturing() && len(m.pending) < wire.MaxCaptures {
		m.pending = append(m.pending, m.count)
	}
	m.level = high
}
