// Package sample turns raw MCU samples into calibrated mixer inputs and
// keeps helpers for the output history.
package sample

import (
	"log"
	"time"

	"github.com/itohio/gotx/pkg/calc"
	"github.com/itohio/gotx/pkg/config"
	"github.com/itohio/gotx/pkg/input"
	"github.com/itohio/gotx/pkg/link"
)

// minSpan keeps a bad calibration from amplifying noise.
const minSpan = 100

// Converter is a function type that converts a RawSample channel to a
// calibrated Sample channel.
type Converter func(in <-chan link.RawSample) <-chan input.Sample

// NewConverter creates a converter using the radio calibration of store.
// Calibration changes apply to the next sample.
func NewConverter(store *config.Store, bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan link.RawSample) <-chan input.Sample {
		out := make(chan input.Sample, bufSize)

		go func() {
			defer close(out)

			for raw := range in {
				s := Convert(&raw, store.Radio())

				select {
				case out <- s:
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// Convert calibrates every analog input of raw.
func Convert(raw *link.RawSample, r *config.Radio) input.Sample {
	s := input.Sample{
		Switches: input.Switches(raw.Switches),
		Tick:     raw.Tick,
		Battery:  raw.Battery,
	}
	for i, a := range raw.Analog {
		v := Calibrate(a, calibration(r, i))
		if i < input.NumSticks {
			s.Sticks[i] = v
		} else {
			s.Pots[i-input.NumSticks] = v
		}
	}
	return s
}

func calibration(r *config.Radio, i int) config.StickCalibration {
	if r == nil || i >= len(r.Calibration) {
		return config.StickCalibration{Mid: 2048, SpanNeg: 1800, SpanPos: 1800}
	}
	return r.Calibration[i]
}

// Calibrate maps a raw ADC reading to +/-RESX using the center and the span
// on the side of the center the reading is on.
func Calibrate(raw uint16, cal config.StickCalibration) int16 {
	v := int32(raw) - int32(cal.Mid)
	span := cal.SpanNeg
	if v > 0 {
		span = cal.SpanPos
	}
	v = v * calc.RESX / int32(max(minSpan, span))
	return int16(calc.Clamp(v, -calc.RESX, calc.RESX))
}
