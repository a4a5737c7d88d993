package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpo_Identity(t *testing.T) {
	for x := int16(-RESX); x <= RESX; x++ {
		assert.Equal(t, x, Expo(x, 0))
	}
}

func TestExpo_OddSymmetric(t *testing.T) {
	for _, k := range []int16{-100, -60, -1, 1, 35, 100} {
		for x := int16(0); x <= RESX; x += 7 {
			assert.Equal(t, -Expo(x, k), Expo(-x, k), "x=%d k=%d", x, k)
		}
	}
}

func TestExpo_Values(t *testing.T) {
	tests := []struct {
		name string
		x, k int16
		want int16
	}{
		{"full deflection keeps end point", RESX, 100, RESX},
		{"full negative keeps end point", -RESX, 40, -RESX},
		{"pure cubic at half", 512, 100, 128},
		{"half blend at half", 512, 50, 320},
		{"center", 0, 80, 0},
		{"negative expo at half", 512, -100, 128 + 768},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expo(tt.x, tt.k))
		})
	}
}

func TestExpo_Monotonic(t *testing.T) {
	for _, k := range []int16{-100, -30, 30, 100} {
		prev := Expo(-RESX, k)
		for x := int16(-RESX + 1); x <= RESX; x++ {
			y := Expo(x, k)
			assert.GreaterOrEqual(t, y, prev, "x=%d k=%d", x, k)
			prev = y
		}
	}
}

func TestISqrt32(t *testing.T) {
	assert.Equal(t, uint32(0), ISqrt32(0))
	assert.Equal(t, uint32(1), ISqrt32(1))
	assert.Equal(t, uint32(1), ISqrt32(3))
	assert.Equal(t, uint32(65535), ISqrt32(math.MaxUint32))

	for r := uint32(0); r <= 65535; r += 13 {
		sq := r * r
		assert.Equal(t, r, ISqrt32(sq), "n=%d", sq)
		if sq > 0 {
			assert.Equal(t, r-1, ISqrt32(sq-1), "n=%d", sq-1)
		}
	}
	assert.Equal(t, uint32(65535), ISqrt32(65535*65535))
}

func TestInterpolate_SamplePoints(t *testing.T) {
	curves := [][]int8{
		{-100, -50, 0, 50, 100},
		{30, -20, 90, 10, -100},
		{-100, -80, -45, -10, 0, 10, 45, 80, 100},
		{0, 12, 25, 37, 50, 62, 75, 87, 100},
	}

	for _, points := range curves {
		step := int32(2*RESX) / int32(len(points)-1)
		for i, p := range points {
			x := int16(int32(-RESX) + int32(i)*step)
			want := int16(int32(p) * RESX / 4 / 25)
			assert.Equal(t, want, Interpolate(x, points), "points=%v i=%d", points, i)
		}
	}
}

func TestInterpolate_LinearBetweenSamples(t *testing.T) {
	points := []int8{-100, -20, 0, 60, 100}

	// Midway between the second and third samples.
	assert.Equal(t, int16((-20+0)*128/25), Interpolate(-RESX+512+256, points))
	// Quarter way between the fourth and fifth samples.
	assert.Equal(t, int16((60*192+100*64)/25), Interpolate(512+128, points))
}

func TestInterpolate_Saturates(t *testing.T) {
	points := []int8{-40, -20, 0, 20, 70}
	assert.Equal(t, Interpolate(-RESX, points), Interpolate(-2000, points))
	assert.Equal(t, Interpolate(RESX, points), Interpolate(2000, points))
}

func TestInterpolate_UnsupportedLength(t *testing.T) {
	assert.Equal(t, int16(321), Interpolate(321, []int8{1, 2, 3}))
	assert.Equal(t, int16(-5), Interpolate(-5, nil))
}

func TestCalc100ToRESX(t *testing.T) {
	tests := []struct {
		in   int8
		want int16
	}{
		{0, 0},
		{100, 1024},
		{-100, -1024},
		{50, 512},
		{25, 256},
		{10, 102},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Calc100ToRESX(tt.in), "in=%d", tt.in)
	}
}

func TestCalc1000ToRESX(t *testing.T) {
	tests := []struct {
		in   int16
		want int16
	}{
		{0, 0},
		{500, 512},
		{1000, 1025},
		{100, 103},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Calc1000ToRESX(tt.in), "in=%d", tt.in)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(5, 0, 10))
	assert.Equal(t, 0, Clamp(-3, 0, 10))
	assert.Equal(t, int16(10), Clamp(int16(99), 0, 10))
}
