package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itohio/gotx/pkg/config"
	"github.com/itohio/gotx/pkg/link"
)

func raw(a uint16) link.RawSample {
	return link.RawSample{Analog: [7]uint16{a, a, a, a, a, a, a}}
}

func TestWindow_Push(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		inputs []uint16
		want   []uint16
	}{
		{"no averaging", 1, []uint16{100, 200, 300}, []uint16{100, 200, 300}},
		{"filling", 4, []uint16{100, 200, 300}, []uint16{100, 150, 200}},
		{"sliding", 2, []uint16{100, 200, 300, 300}, []uint16{100, 150, 250, 300}},
		{"rounds", 2, []uint16{100, 101}, []uint16{100, 101}},
		{"rounds down", 3, []uint16{100, 100, 101}, []uint16{100, 100, 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w window
			w.init(tt.size)
			for i, in := range tt.inputs {
				r := raw(in)
				r.Tick = uint16(i)
				got := w.push(&r)
				assert.Equal(t, tt.want[i], got.Analog[0], "step %d", i)
				assert.Equal(t, tt.want[i], got.Analog[6], "step %d", i)
				assert.Equal(t, uint16(i), got.Tick, "latest sample fields are kept")
			}
		})
	}
}

func TestNewAveragingConverter(t *testing.T) {
	store := config.NewStore(config.DefaultModel(), config.DefaultRadio())
	in := make(chan link.RawSample, 4)
	out := NewAveragingConverter(store, 2, 4)(in)

	in <- raw(2048)
	in <- raw(3848)
	in <- raw(3848)
	close(in)

	var got []int16
	for s := range out {
		got = append(got, s.Sticks[0])
	}
	assert.Equal(t, []int16{0, 512, 1024}, got)
}

func TestNewAveragingConverter_InvalidWindow(t *testing.T) {
	store := config.NewStore(config.DefaultModel(), config.DefaultRadio())
	in := make(chan link.RawSample, 2)
	out := NewAveragingConverter(store, 0, 0)(in)

	in <- raw(2048)
	in <- raw(3848)
	close(in)

	var got []int16
	for s := range out {
		got = append(got, s.Sticks[0])
	}
	assert.Equal(t, []int16{0, 1024}, got)
}
