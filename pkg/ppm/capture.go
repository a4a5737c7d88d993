package ppm

import "sync/atomic"

const (
	// SyncMin and SyncMax bound the gap that starts a captured frame.
	SyncMin = 4000
	SyncMax = 19000
	// PulseMin and PulseMax bound a valid channel period.
	PulseMin = 800
	PulseMax = 2200

	// NumInputs is the number of channels decoded from the trainer port.
	NumInputs = 8

	// ValidCycles is how many mixer cycles a decoded frame stays current.
	ValidCycles = 50
)

// Capture decodes a PPM frame from successive capture counts of the same
// edge. Edge is called from the capture interrupt; Inputs, Tick and the
// statistics from any goroutine.
type Capture struct {
	// owned by Edge
	last    uint16
	state   int // 0 waiting for sync, otherwise the next channel + 1
	pending [NumInputs]int16

	values  [NumInputs]atomic.Int32
	valid   atomic.Int32
	mult    atomic.Int32
	frames  atomic.Uint32
	desyncs atomic.Uint32
}

// NewCapture creates a decoder with a unit input multiplier.
func NewCapture() *Capture {
	return &Capture{}
}

// SetMultiplier scales decoded channels by (mult+10)/10.
func (c *Capture) SetMultiplier(mult int8) { c.mult.Store(int32(mult)) }

// Edge handles a capture at timer count.
func (c *Capture) Edge(count uint16) {
	w := count - c.last
	c.last = count

	switch {
	case c.state > 0 && w > PulseMin && w < PulseMax:
		c.pending[c.state-1] = int16((int32(w) - Center) * (c.mult.Load() + 10) / 10)
		c.state++
		if c.state > NumInputs {
			c.publish(NumInputs)
			c.state = 0
		}
	case w > SyncMin && w < SyncMax:
		if c.state > 1 {
			c.publish(c.state - 1)
		}
		c.state = 1
	default:
		if c.state > 0 {
			c.desyncs.Add(1)
		}
		c.state = 0
	}
}

func (c *Capture) publish(n int) {
	for i := range n {
		c.values[i].Store(int32(c.pending[i]))
	}
	c.valid.Store(ValidCycles)
	c.frames.Add(1)
}

// Inputs copies the decoded channels into dst and reports whether a frame was
// decoded recently.
func (c *Capture) Inputs(dst *[NumInputs]int16) bool {
	for i := range dst {
		dst[i] = int16(c.values[i].Load())
	}
	return c.valid.Load() > 0
}

// Tick ages the decoded frame by one cycle.
func (c *Capture) Tick() {
	for {
		v := c.valid.Load()
		if v <= 0 || c.valid.CompareAndSwap(v, v-1) {
			return
		}
	}
}

// Frames returns the number of frames decoded.
func (c *Capture) Frames() uint32 { return c.frames.Load() }

// Desyncs returns the number of partial frames discarded.
func (c *Capture) Desyncs() uint32 { return c.desyncs.Load() }
