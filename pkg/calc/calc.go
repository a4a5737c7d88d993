// Package calc holds the fixed-point primitives shared by the mixer and the
// pulse encoder. Everything here is pure integer arithmetic on the +/-RESX
// domain.
package calc

import "golang.org/x/exp/constraints"

const (
	// RESX is the full-scale magnitude representing 100% of stick or channel travel.
	RESX = 1024
	// RESK is the scale of expo factors and weights (percent).
	RESK = 100
)

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Abs returns |x| for signed integers.
func Abs[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// expou computes k*x^3/RESX^2 + (RESK-k)*x for x in [0, RESX], k in [0, RESK],
// rounding to nearest. x^3 stays within 32 bits for x <= RESX.
func expou(x, k uint32) uint32 {
	return (x*x*x/0x10000*k/(RESX*RESX/0x10000) + (RESK-k)*x + RESK/2) / RESK
}

// Expo blends a cubic and the identity response. k is in percent (-100..100);
// k=0 returns x untouched, negative k mirrors the curve through the range.
// The result is odd-symmetric: Expo(-x, k) == -Expo(x, k).
// For k != 0 the magnitude of x is limited to RESX.
func Expo(x, k int16) int16 {
	if k == 0 {
		return x
	}
	k = Clamp(k, -RESK, RESK)

	neg := x < 0
	ux := uint32(Clamp(Abs(int32(x)), 0, RESX))

	var y uint32
	if k < 0 {
		y = RESX - expou(RESX-ux, uint32(-k))
	} else {
		y = expou(ux, uint32(k))
	}
	if neg {
		return -int16(y)
	}
	return int16(y)
}

// ISqrt32 returns floor(sqrt(n)) using the digit-by-digit method.
func ISqrt32(n uint32) uint32 {
	var res uint32
	bit := uint32(1) << 30
	for bit > n {
		bit >>= 2
	}
	for bit != 0 {
		if n >= res+bit {
			n -= res + bit
			res = res>>1 + bit
		} else {
			res >>= 1
		}
		bit >>= 2
	}
	return res
}

// Curve sample spacing in the 0..2*RESX shifted domain.
const (
	d5 = RESX * 2 / 4
	d9 = RESX * 2 / 8
)

// Interpolate looks x up in a 5 or 9 point curve. Points are percentages
// placed evenly over -RESX..RESX; the result is in the RESX domain
// (point*RESX/100). Inputs outside the domain saturate at the end points.
// Curves with any other number of points leave x unchanged.
func Interpolate(x int16, points []int8) int16 {
	n := len(points)
	if n != 5 && n != 9 {
		return x
	}

	xx := int32(x) + RESX
	var erg int32
	switch {
	case xx <= 0:
		erg = int32(points[0]) * (RESX / 4)
	case xx >= 2*RESX:
		erg = int32(points[n-1]) * (RESX / 4)
	default:
		var a, dx int32
		if n == 9 {
			a = xx / d9
			dx = (xx % d9) * 2
		} else {
			a = xx / d5
			dx = xx % d5
		}
		erg = int32(points[a])*((d5-dx)/2) + int32(points[a+1])*(dx/2)
	}
	// 100*d5/RESX
	return int16(erg / 25)
}

// Calc100ToRESX converts a percentage to the RESX domain (x*10.24) without division by 100.
func Calc100ToRESX(x int8) int16 {
	y := int16(x) * 41
	return y>>2 - int16(x)/64
}

// Calc1000ToRESX converts a per-mille value to the RESX domain using
// x + x/32 - x/128 + x/512.
func Calc1000ToRESX(x int16) int16 {
	y := x >> 5
	x += y
	y >>= 2
	x -= y
	return x + y>>2
}
