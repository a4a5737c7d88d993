package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Reload(t *testing.T) {
	s := NewStore(DefaultModel(), DefaultRadio())
	assert.False(t, s.Reloading())

	next := DefaultModel()
	next.Name = "NEXT"

	assert.ErrorIs(t, s.Commit(next), ErrNotReloading)
	assert.Equal(t, "MODEL01", s.Model().Name)

	s.BeginReload()
	assert.True(t, s.Reloading())
	require.NoError(t, s.Commit(next))
	assert.False(t, s.Reloading())
	assert.Equal(t, "NEXT", s.Model().Name)
}

func TestStore_CommitRejectsInvalid(t *testing.T) {
	s := NewStore(DefaultModel(), DefaultRadio())

	bad := DefaultModel()
	bad.Name = "BAD"
	bad.PPM.Channels = 12

	s.BeginReload()
	err := s.Commit(bad)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.False(t, s.Reloading())
	assert.Equal(t, "MODEL01", s.Model().Name)
}

func TestStore_Abort(t *testing.T) {
	s := NewStore(DefaultModel(), DefaultRadio())
	s.BeginReload()
	s.Abort()
	assert.False(t, s.Reloading())
}

func TestStore_SetTrainerCalib(t *testing.T) {
	s := NewStore(DefaultModel(), DefaultRadio())
	before := s.Radio()

	calib := [NumTrainerInputs]int16{10, -20, 30}
	s.SetTrainerCalib(calib)

	assert.Equal(t, calib, s.Radio().Trainer.Calib)
	assert.Equal(t, [NumTrainerInputs]int16{}, before.Trainer.Calib, "previous snapshot must stay untouched")
}

func TestStore_SetRadio(t *testing.T) {
	s := NewStore(DefaultModel(), DefaultRadio())

	r := DefaultRadio()
	r.ThrottleReversed = true
	require.NoError(t, s.SetRadio(r))
	assert.True(t, s.Radio().ThrottleReversed)

	bad := DefaultRadio()
	bad.Calibration[0].Mid = 5000
	assert.ErrorIs(t, s.SetRadio(bad), ErrInvalid)
	assert.Equal(t, 2048, s.Radio().Calibration[0].Mid, "rejected radio is not stored")
}

func TestStore_UpdateModel(t *testing.T) {
	m := DefaultModel()
	m.Curves = []Curve{{Points: []int8{-100, -50, 0, 50, 100}}}
	s := NewStore(m, DefaultRadio())

	require.NoError(t, s.UpdateModel(func(m *Model) error {
		return m.SetCurvePoint(0, 3, 70)
	}))
	assert.Equal(t, int8(70), s.Model().Curves[0].Points[3])
	assert.Equal(t, int8(50), m.Curves[0].Points[3], "original model must stay untouched")

	err := s.UpdateModel(func(m *Model) error {
		return m.SetCurvePoint(0, 4, 120)
	})
	assert.ErrorIs(t, err, ErrCurveEdit)
	assert.Equal(t, int8(100), s.Model().Curves[0].Points[4])
}

func TestModel_SetCurvePoint(t *testing.T) {
	m := DefaultModel()
	m.Curves = []Curve{{Points: make([]int8, 9)}}

	tests := []struct {
		name         string
		curve, point int
		value        int
		wantErr      bool
	}{
		{"first point", 0, 0, -100, false},
		{"last point of nine", 0, 8, 100, false},
		{"missing curve", 1, 0, 0, true},
		{"negative curve", -1, 0, 0, true},
		{"missing point", 0, 9, 0, true},
		{"value too large", 0, 3, 101, true},
		{"value too small", 0, 4, -101, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.SetCurvePoint(tt.curve, tt.point, tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrCurveEdit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int8(tt.value), m.Curves[tt.curve].Points[tt.point])
		})
	}
}

func TestModel_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(m *Model)
		wantErr bool
	}{
		{"default", func(m *Model) {}, false},
		{"extended limit without extended range", func(m *Model) { m.Limits[0].Min = -125 }, true},
		{"extended limit with extended range", func(m *Model) { m.ExtendedLimits = true; m.Limits[0].Min = -125 }, false},
		{"min above max", func(m *Model) { m.Limits[2] = Limit{Min: 50, Max: 10} }, true},
		{"curve table missing", func(m *Model) { m.Mixes[0].Curve = CurveTable1 }, true},
		{"curve with seven points", func(m *Model) { m.Curves = []Curve{{Points: make([]int8, 7)}} }, true},
		{"too many mixes", func(m *Model) { m.Mixes = make([]Mix, MaxMixers+1) }, true},
		{"entries after terminator are ignored", func(m *Model) {
			m.Mixes = append(m.Mixes, Mix{}, Mix{Dest: 1, Source: SrcRudder, Warning: 9})
		}, false},
		{"bad warning", func(m *Model) { m.Mixes[0].Warning = 4 }, true},
		{"ppm16 start out of range", func(m *Model) {
			m.Protocol = ProtoPPM16
			m.PPM.Start2 = 10
			m.PPM.Channels2 = 8
		}, true},
		{"ppm16 start ignored for single phase", func(m *Model) { m.PPM.Start2 = 10 }, false},
		{"trim beyond end stop", func(m *Model) { m.Trims[1] = 126 }, true},
		{"switch out of range", func(m *Model) { m.Safety[0].Switch = 40 }, true},
		{"collective from pot", func(m *Model) { m.Swash.CollectiveSource = SrcP2 }, false},
		{"collective from channel", func(m *Model) { m.Swash.CollectiveSource = SrcCH1 }, true},
		{"collective from cyclic", func(m *Model) { m.Swash.CollectiveSource = SrcCyc1 }, true},
		{"collective from trainer", func(m *Model) { m.Swash.CollectiveSource = SrcPPM1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DefaultModel()
			tt.modify(m)
			err := m.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
