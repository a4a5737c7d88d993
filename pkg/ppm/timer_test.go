package ppm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordPin struct {
	modes  []PinMode
	levels []bool
	onSet  func(high bool)
}

func (p *recordPin) Configure(m PinMode) { p.modes = append(p.modes, m) }

func (p *recordPin) Set(high bool) {
	p.levels = append(p.levels, high)
	if p.onSet != nil {
		p.onSet(high)
	}
}

// play feeds n compare matches, each exactly on time, and returns the
// scheduled compare values.
func play(tm *Timer, start uint16, n int) []uint16 {
	next := start
	var got []uint16
	for range n {
		next = tm.OnCompare(next)
		got = append(got, next)
	}
	return got
}

func TestTimer_Frame(t *testing.T) {
	var src chans
	s := settings8()
	s.Channels = 4
	enc := NewEncoder(&src, nil, s)
	out := &recordPin{}
	tm := NewTimer(enc, out, nil)

	got := play(tm, 0, 11)
	assert.Equal(t, []uint16{300, 1500, 1800, 3000, 3300, 4500, 4800, 6000, 6300, 22500, 22800}, got)
	assert.Equal(t, []PinMode{PinOutput}, out.modes)
	assert.Equal(t, uint32(2), tm.Frames())

	want := []bool{false, true, false, true, false, true, false, true, false, true, false, false, true}
	assert.Equal(t, want, out.levels)
}

func TestTimer_NegativePolarity(t *testing.T) {
	var src chans
	s := settings8()
	s.Channels = 1
	s.PositivePol = false
	out := &recordPin{}
	tm := NewTimer(NewEncoder(&src, nil, s), out, nil)

	play(tm, 0, 5)
	assert.Equal(t, []bool{true, false, true, false, true, true, false}, out.levels)
}

func TestTimer_Wraps(t *testing.T) {
	var src chans
	s := settings8()
	s.Channels = 1
	tm := NewTimer(NewEncoder(&src, nil, s), nil, nil)

	got := play(tm, 65000, 2)
	assert.Equal(t, []uint16{65300, 964}, got)
}

func TestTimer_Latency(t *testing.T) {
	var src chans
	tm := NewTimer(NewEncoder(&src, nil, settings8()), nil, nil)

	lo, hi := tm.Latency()
	assert.Equal(t, int16(0), lo)
	assert.Equal(t, int16(0), hi)

	next := tm.OnCompare(0)
	next = tm.OnCompare(next + 5)
	assert.Equal(t, uint16(1500), next, "schedule does not drift")
	tm.OnCompare(next - 2)

	lo, hi = tm.Latency()
	assert.Equal(t, int16(-2), lo)
	assert.Equal(t, int16(5), hi)

	tm.ResetLatency()
	lo, hi = tm.Latency()
	assert.Equal(t, int16(0), lo)
	assert.Equal(t, int16(0), hi)
}

func TestPinModes(t *testing.T) {
	tests := []struct {
		proto       Protocol
		role        Role
		wantOut     PinMode
		wantTrainer PinMode
	}{
		{ProtoPPM, RoleMaster, PinOutput, PinInput},
		{ProtoPPM, RoleSlave, PinOutput, PinOutput},
		{ProtoPPM16, RoleMaster, PinOutput, PinInput},
		{ProtoPPMSim, RoleMaster, PinIdle, PinInput},
		{ProtoPPMSim, RoleSlave, PinIdle, PinIdle},
	}

	for _, tt := range tests {
		t.Run(tt.wantOut.String()+"/"+tt.wantTrainer.String(), func(t *testing.T) {
			out, trn := PinModes(tt.proto, tt.role)
			assert.Equal(t, tt.wantOut, out)
			assert.Equal(t, tt.wantTrainer, trn)
		})
	}
}

func TestTimer_Simulation(t *testing.T) {
	var src chans
	s := settings8()
	s.Protocol = ProtoPPMSim
	out, trn := &recordPin{}, &recordPin{}
	tm := NewTimer(NewEncoder(&src, nil, s), out, trn)

	got := play(tm, 0, 3)
	assert.Equal(t, []uint16{300, 1500, 1800}, got, "frames are still computed")
	assert.Equal(t, []PinMode{PinIdle}, out.modes)
	assert.Equal(t, []PinMode{PinInput}, trn.modes)
	assert.Empty(t, out.levels)
	assert.True(t, tm.Capturing())
}

func TestTimer_RoleChangeAtFrameBoundary(t *testing.T) {
	var src chans
	s := settings8()
	s.Channels = 1
	enc := NewEncoder(&src, nil, s)
	out, trn := &recordPin{}, &recordPin{}
	tm := NewTimer(enc, out, trn)

	next := play(tm, 0, 2)[1]
	assert.True(t, tm.Capturing())

	s.Role = RoleSlave
	enc.SetSettings(s)
	next = tm.OnCompare(next)
	assert.Equal(t, []PinMode{PinInput}, trn.modes, "unchanged mid frame")
	assert.Empty(t, trn.levels)

	next = tm.OnCompare(next)
	assert.Equal(t, uint16(22500), next)
	tm.OnCompare(next)
	assert.Equal(t, []PinMode{PinInput, PinOutput}, trn.modes)
	assert.Equal(t, []bool{false, true}, trn.levels, "trainer port mirrors the frame")
	assert.False(t, tm.Capturing())
}

func TestTimer_ReplaysWhileReloading(t *testing.T) {
	var src chans
	var reload ReloadFlag
	s := settings8()
	s.Channels = 1
	tm := NewTimer(NewEncoder(&src, &reload, s), nil, nil)

	first := play(tm, 0, 4)
	require.Equal(t, []uint16{300, 1500, 1800, 22500}, first)

	src[0] = 1000
	reload.Set(true)
	second := play(tm, 22500, 4)
	assert.Equal(t, []uint16{22800, 24000, 24300, 45000}, second)
	assert.Equal(t, uint32(1), tm.Failed())

	reload.Set(false)
	third := play(tm, 45000, 2)
	assert.Equal(t, []uint16{45300, 47000}, third)
}

func TestTimer_ReloadingBeforeFirstFrame(t *testing.T) {
	var src chans
	var reload ReloadFlag
	reload.Set(true)
	tm := NewTimer(NewEncoder(&src, &reload, settings8()), nil, nil)

	assert.Equal(t, uint16(22500), tm.OnCompare(0), "idle frame")
	reload.Set(false)
	assert.Equal(t, uint16(22800), tm.OnCompare(22500))
}

func TestTimer_DualPhase(t *testing.T) {
	var src chans
	for i := 8; i < NumChannels; i++ {
		src[i] = 1024
	}
	s := settings8()
	s.Protocol = ProtoPPM16
	s.Channels = 1
	s.Channels2 = 1
	tm := NewTimer(NewEncoder(&src, nil, s), nil, nil)

	got := play(tm, 0, 8)
	assert.Equal(t, []uint16{
		300, 1500, 1800, 22500, // channel 1
		22800, 24512, 24812, 45000, // channel 9
	}, got)
	assert.Equal(t, uint32(2), tm.Frames())
}
