//go:build tinygo

package main

import (
	"machine"
	"sync/atomic"

	"github.com/itohio/gotx/pkg/link/wire"
	"github.com/itohio/gotx/pkg/ppm"
)

// gpio drives a pin for the pulse timer. The trainer pin timestamps rising
// edges while it is an input.
type gpio struct {
	pin     machine.Pin
	trainer bool
}

func (g *gpio) Configure(mode ppm.PinMode) {
	if g.trainer {
		g.pin.SetInterrupt(0, nil)
	}
	switch mode {
	case ppm.PinOutput:
		g.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	case ppm.PinInput:
		g.pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
		if g.trainer {
			g.pin.SetInterrupt(machine.PinRising, onTrainerEdge)
		}
	default:
		g.pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}
}

func (g *gpio) Set(high bool) { g.pin.Set(high) }

var edges edgeRing

func onTrainerEdge(machine.Pin) {
	edges.push(micros())
}

// edgeRing is a single producer (pin interrupt) single consumer (main loop)
// ring of capture counts. A full ring drops new edges.
type edgeRing struct {
	buf        [wire.MaxCaptures]uint16
	head, tail atomic.Uint32
	dropped    atomic.Uint32
}

func (r *edgeRing) push(v uint16) {
	h := r.head.Load()
	if h-r.tail.Load() >= uint32(len(r.buf)) {
		r.dropped.Add(1)
		return
	}
	r.buf[h%uint32(len(r.buf))] = v
	r.head.Store(h + 1)
}

// drain copies the pending counts into dst and returns how many it copied.
func (r *edgeRing) drain(dst []uint16) int {
	t := r.tail.Load()
	h := r.head.Load()
	n := 0
	for t != h && n < len(dst) {
		dst[n] = r.buf[t%uint32(len(r.buf))]
		t++
		n++
	}
	r.tail.Store(t)
	return n
}
