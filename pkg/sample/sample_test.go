package sample

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gotx/pkg/config"
	"github.com/itohio/gotx/pkg/input"
	"github.com/itohio/gotx/pkg/link"
)

func TestCalibrate(t *testing.T) {
	def := config.StickCalibration{Mid: 2048, SpanNeg: 1800, SpanPos: 1800}
	tests := []struct {
		name string
		raw  uint16
		cal  config.StickCalibration
		want int16
	}{
		{"center", 2048, def, 0},
		{"full positive", 3848, def, 1024},
		{"half positive", 2948, def, 512},
		{"full negative", 248, def, -1024},
		{"beyond span clamps", 4095, def, 1024},
		{"bottom clamps", 0, def, -1024},
		{"asymmetric spans", 1548, config.StickCalibration{Mid: 2048, SpanNeg: 1000, SpanPos: 1800}, -512},
		{"tiny span limited", 2098, config.StickCalibration{Mid: 2048, SpanNeg: 10, SpanPos: 10}, 512},
		{"zero span", 2048, config.StickCalibration{}, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Calibrate(tt.raw, tt.cal))
		})
	}
}

func TestConvert(t *testing.T) {
	r := config.DefaultRadio()
	r.Calibration[input.StickThrottle] = config.StickCalibration{Mid: 1000, SpanNeg: 900, SpanPos: 900}
	raw := link.RawSample{
		Tick:     77,
		Analog:   [7]uint16{2048, 3848, 1000, 248, 2948, 2048, 1148},
		Battery:  64,
		Switches: 1 << input.SwitchTHR,
	}

	s := Convert(&raw, &r)
	assert.Equal(t, [input.NumSticks]int16{0, 1024, 0, -1024}, s.Sticks)
	assert.Equal(t, [input.NumPots]int16{512, 0, -512}, s.Pots)
	assert.Equal(t, uint16(77), s.Tick)
	assert.Equal(t, uint16(64), s.Battery)
	assert.True(t, s.Switches.Get(input.SwitchTHR))
}

func TestConvert_MissingCalibration(t *testing.T) {
	r := config.DefaultRadio()
	r.Calibration = r.Calibration[:2]
	raw := link.RawSample{Analog: [7]uint16{2048, 2048, 3848, 248, 2048, 2048, 2948}}

	s := Convert(&raw, &r)
	assert.Equal(t, int16(1024), s.Sticks[input.StickThrottle])
	assert.Equal(t, int16(512), s.Pots[2])
}

func TestNewConverter(t *testing.T) {
	store := config.NewStore(config.DefaultModel(), config.DefaultRadio())
	in := make(chan link.RawSample, 3)
	out := NewConverter(store, 3)(in)

	in <- link.RawSample{Timestamp: time.Now(), Analog: [7]uint16{3848, 2048, 2048, 2048, 2048, 2048, 2048}}
	s := <-out
	assert.Equal(t, int16(1024), s.Sticks[0])

	r := config.DefaultRadio()
	r.Calibration[0].SpanPos = 3600
	require.NoError(t, store.SetRadio(r))

	in <- link.RawSample{Timestamp: time.Now(), Analog: [7]uint16{3848, 2048, 2048, 2048, 2048, 2048, 2048}}
	s = <-out
	assert.Equal(t, int16(512), s.Sticks[0], "calibration change applies")

	close(in)
	_, ok := <-out
	assert.False(t, ok)
}
