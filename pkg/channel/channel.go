// Package channel holds the output channel array shared between the mixer
// (single writer) and the pulse encoder and display (readers).
package channel

import "sync/atomic"

// Num is the number of output channels.
const Num = 16

// Array is a lock-free channel array. Every element is stored atomically;
// readers may observe a set of channels that spans two mixer cycles. Seq is
// bumped after every complete publish.
type Array struct {
	v   [Num]atomic.Int32
	seq atomic.Uint32
}

// Channel returns channel i (0 based). Out of range indices read as 0.
func (a *Array) Channel(i int) int16 {
	if i < 0 || i >= Num {
		return 0
	}
	return int16(a.v[i].Load())
}

// Set stores a single channel. Out of range indices are ignored.
func (a *Array) Set(i int, v int16) {
	if i < 0 || i >= Num {
		return
	}
	a.v[i].Store(int32(v))
}

// Publish stores all channels and bumps the sequence.
func (a *Array) Publish(vals *[Num]int16) {
	for i := range vals {
		a.v[i].Store(int32(vals[i]))
	}
	a.seq.Add(1)
}

// Snapshot copies the channels into dst and returns the sequence observed
// before copying.
func (a *Array) Snapshot(dst *[Num]int16) uint32 {
	seq := a.seq.Load()
	for i := range dst {
		dst[i] = int16(a.v[i].Load())
	}
	return seq
}

// Seq returns the number of completed publishes.
func (a *Array) Seq() uint32 { return a.seq.Load() }
