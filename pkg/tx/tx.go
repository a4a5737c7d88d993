// Package tx runs the transmitter: every calibrated sample drives one mixer
// cycle whose outputs are sent to the MCU playing the pulse frames, and
// trainer captures coming back are decoded for the next cycle.
package tx

import (
	"log"
	"sync"
	"time"

	"github.com/itohio/gotx/pkg/channel"
	"github.com/itohio/gotx/pkg/config"
	"github.com/itohio/gotx/pkg/input"
	"github.com/itohio/gotx/pkg/link"
	"github.com/itohio/gotx/pkg/mixer"
	"github.com/itohio/gotx/pkg/ppm"
	"github.com/itohio/gotx/pkg/sample"
)

var _ Transmitter = (*Runner)(nil)

// Status is the runtime state shown next to the channel history.
type Status struct {
	Trims        [input.NumSticks]int8
	LatencyMin   int16
	LatencyMax   int16
	TrainerValid bool
	Trainer      [ppm.NumInputs]int16
	Desyncs      uint32
	SendErrors   uint32
}

// Transmitter processes samples and captures and reports output history.
type Transmitter interface {
	ProcessSamples(in <-chan input.Sample)
	ProcessCaptures(in <-chan link.Captures)
	History() []sample.Frame
	Status() Status
	OnUpdate(func(history []sample.Frame, st Status))
}

// Runner implements Transmitter.
type Runner struct {
	store   *config.Store
	dev     link.Device
	engine  *mixer.Engine
	capture *ppm.Capture
	outputs channel.Array

	historyLen int
	history    []sample.Frame // FIFO, oldest first
	sent       *config.Model  // model whose frame settings the MCU has
	reloading  bool           // reload state the MCU has
	sendErrors uint32

	mu sync.RWMutex

	callbacks []func(history []sample.Frame, st Status)
	cbMu      sync.RWMutex

	// Shutdown control
	shutdown bool // Set to true when input channel closes, prevents further callbacks
}

// New creates a runner sending to dev. cfg supplies the runtime cadence and
// history length; the model and radio are read from store.
func New(cfg *config.Config, store *config.Store, dev link.Device) *Runner {
	r := &Runner{
		store:      store,
		dev:        dev,
		capture:    ppm.NewCapture(),
		historyLen: cfg.Runtime.HistoryLength,
	}
	if r.historyLen <= 0 {
		r.historyLen = 1
	}
	r.engine = mixer.New(store, &r.outputs, cfg.Runtime.SampleInterval)
	r.engine.SetTrainer(r.capture)
	return r
}

// Engine returns the mixer for trims, trainer calibration and audio setup.
func (r *Runner) Engine() *mixer.Engine { return r.engine }

// ProcessSamples runs one mixer cycle per sample until in closes. When the
// input channel closes, it sets the shutdown flag to prevent further callbacks.
func (r *Runner) ProcessSamples(in <-chan input.Sample) {
	for s := range in {
		r.processSample(s, time.Now())
	}
	r.mu.Lock()
	r.shutdown = true
	r.mu.Unlock()
}

// ProcessCaptures feeds trainer captures to the decoder until in closes.
func (r *Runner) ProcessCaptures(in <-chan link.Captures) {
	for c := range in {
		for _, count := range c.Counts {
			r.capture.Edge(count)
		}
	}
}

func (r *Runner) processSample(s input.Sample, now time.Time) {
	if r.store.Reloading() {
		// the MCU replays its last frames until the new configuration lands
		r.setReloading(true)
		r.notify()
		return
	}
	r.setReloading(false)

	r.engine.Run(s)

	m := r.store.Model()
	if m != r.sent {
		if err := r.dev.SendSettings(Settings(m)); err != nil {
			log.Printf("Failed to send frame settings: %v", err)
		} else {
			r.sent = m
		}
		r.capture.SetMultiplier(m.PPM.InputMultiplier)
	}

	f := sample.Frame{Timestamp: now}
	f.Seq = r.outputs.Snapshot(&f.Channels)
	if err := r.dev.SendOutputs(&f.Channels); err != nil {
		r.mu.Lock()
		r.sendErrors++
		r.mu.Unlock()
	}

	r.mu.Lock()
	r.history = append(r.history, f)
	if n := len(r.history) - r.historyLen; n > 0 {
		r.history = append(r.history[:0], r.history[n:]...)
	}
	r.mu.Unlock()

	r.notify()
}

// setReloading forwards a change of the reload state to the MCU. A failed
// send is retried on the next cycle.
func (r *Runner) setReloading(v bool) {
	if v == r.reloading {
		return
	}
	if err := r.dev.SendReloading(v); err != nil {
		log.Printf("Failed to send reload state: %v", err)
		return
	}
	r.reloading = v
}

func (r *Runner) notify() {
	r.mu.RLock()
	shouldNotify := !r.shutdown
	r.mu.RUnlock()

	if shouldNotify {
		r.notifyCallbacks()
	}
}

// Settings returns the frame settings of a model.
func Settings(m *config.Model) ppm.Settings {
	s := ppm.Settings{
		Channels:    m.PPM.Channels,
		Delay:       m.PPM.Delay,
		FrameLength: m.PPM.FrameLength,
		PositivePol: m.PPM.PositivePol,
		Extended:    m.ExtendedLimits,
		Start2:      m.PPM.Start2,
		Channels2:   m.PPM.Channels2,
	}
	switch m.Protocol {
	case config.ProtoPPM16:
		s.Protocol = ppm.ProtoPPM16
	case config.ProtoPPMSim:
		s.Protocol = ppm.ProtoPPMSim
	default:
		s.Protocol = ppm.ProtoPPM
	}
	if m.Role == config.RoleSlave {
		s.Role = ppm.RoleSlave
	}
	return s
}

// History returns a copy of the output history, oldest first.
func (r *Runner) History() []sample.Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]sample.Frame, len(r.history))
	copy(result, r.history)
	return result
}

// Status returns the current runtime state.
func (r *Runner) Status() Status {
	st := Status{
		Trims:   r.engine.Trims(),
		Desyncs: r.capture.Desyncs(),
	}
	st.LatencyMin, st.LatencyMax = r.dev.Latency()
	st.TrainerValid = r.capture.Inputs(&st.Trainer)

	r.mu.RLock()
	st.SendErrors = r.sendErrors
	r.mu.RUnlock()
	return st
}

// OnUpdate registers a callback function that will be called after every
// mixer cycle. The callback should copy data quickly and return as fast as possible.
func (r *Runner) OnUpdate(callback func(history []sample.Frame, st Status)) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.callbacks = append(r.callbacks, callback)
}

// ResetShutdown resets the shutdown flag, allowing callbacks to be sent again.
// This should be called before starting a new chain.
func (r *Runner) ResetShutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdown = false
}

// notifyCallbacks invokes all registered callbacks with current data.
func (r *Runner) notifyCallbacks() {
	history := r.History()
	st := r.Status()

	r.cbMu.RLock()
	callbacks := make([]func(history []sample.Frame, st Status), len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(history, st)
		}
	}
}
