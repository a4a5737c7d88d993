package sample

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frames(n int) []Frame {
	now := time.Now()
	out := make([]Frame, n)
	for i := range out {
		out[i] = Frame{Timestamp: now.Add(time.Duration(i) * 20 * time.Millisecond), Seq: uint32(i)}
		out[i].Channels[0] = int16(i)
	}
	return out
}

func TestDownsample_NoDownsampling(t *testing.T) {
	src := frames(3)

	result := Downsample(nil, src, 10)
	require.Equal(t, 3, len(result))
	assert.Equal(t, src, result)

	dst := make([]Frame, 0, 10)
	result = Downsample(dst, src, 10)
	require.Equal(t, 3, len(result))
	assert.Equal(t, src, result)
	// Should reuse dst
	assert.Equal(t, cap(dst), cap(result))
}

func TestDownsample_WithDownsampling(t *testing.T) {
	src := frames(100)

	dst := make([]Frame, 0, 20)
	result := Downsample(dst, src, 10)
	require.Equal(t, 10, len(result))
	assert.Equal(t, cap(dst), cap(result))

	// Should always include first sample
	assert.Equal(t, src[0], result[0])
	for i := 1; i < len(result); i++ {
		assert.Greater(t, result[i].Seq, result[i-1].Seq, "order preserved")
	}
	assert.GreaterOrEqual(t, result[len(result)-1].Channels[0], int16(80))
}

func TestDownsample_SmallDst(t *testing.T) {
	src := frames(50)
	dst := make([]Frame, 0, 2)

	result := Downsample(dst, src, 5)
	require.Equal(t, 5, len(result))
	assert.Equal(t, uint32(0), result[0].Seq)
	assert.Equal(t, uint32(40), result[4].Seq)

	result = Downsample(dst, src[:3], 5)
	require.Equal(t, 3, len(result))
}

func TestDownsample_Values(t *testing.T) {
	tests := []struct {
		name      string
		src       []float32
		maxPoints int
		want      []float32
	}{
		{"empty", nil, 4, nil},
		{"exact", []float32{1, 2, 3, 4}, 4, []float32{1, 2, 3, 4}},
		{"halved", []float32{1, 2, 3, 4, 5, 6, 7, 8}, 4, []float32{1, 3, 5, 7}},
		{"uneven", []float32{1, 2, 3, 4, 5}, 2, []float32{1, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Downsample(nil, tt.src, tt.maxPoints))
		})
	}
}
