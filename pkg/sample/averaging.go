package sample

import (
	"log"
	"time"

	"github.com/itohio/gotx/pkg/config"
	"github.com/itohio/gotx/pkg/input"
	"github.com/itohio/gotx/pkg/link"
	"github.com/itohio/gotx/pkg/link/wire"
)

// NewAveragingConverter creates a converter that averages the analog inputs of
// the last windowSize RawSamples before calibrating them. One sample is
// emitted per input sample so the mixer cadence is unchanged.
func NewAveragingConverter(store *config.Store, windowSize int, bufSize int) Converter {
	if windowSize <= 0 {
		windowSize = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan link.RawSample) <-chan input.Sample {
		out := make(chan input.Sample, bufSize)

		go func() {
			defer close(out)

			var w window
			w.init(windowSize)
			for raw := range in {
				avg := w.push(&raw)
				s := Convert(&avg, store.Radio())

				select {
				case out <- s:
				case <-time.After(time.Second):
					log.Printf("Averaging converter output channel full")
				}
			}
		}()

		return out
	}
}

// window is a sliding sum over the analog inputs.
type window struct {
	buf  []link.RawSample
	sum  [wire.NumAnalog]uint32
	next int
	n    int
}

func (w *window) init(size int) {
	w.buf = make([]link.RawSample, size)
}

// push adds raw and returns it with the analog inputs replaced by the
// rounded window average.
func (w *window) push(raw *link.RawSample) link.RawSample {
	if w.n == len(w.buf) {
		old := &w.buf[w.next]
		for i, a := range old.Analog {
			w.sum[i] -= uint32(a)
		}
	} else {
		w.n++
	}
	w.buf[w.next] = *raw
	w.next = (w.next + 1) % len(w.buf)

	avg := *raw
	for i, a := range raw.Analog {
		w.sum[i] += uint32(a)
		avg.Analog[i] = uint16((w.sum[i] + uint32(w.n)/2) / uint32(w.n))
	}
	return avg
}
