package tx

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/gotx/pkg/config"
	"github.com/itohio/gotx/pkg/input"
	"github.com/itohio/gotx/pkg/link"
	"github.com/itohio/gotx/pkg/mixer"
	"github.com/itohio/gotx/pkg/ppm"
	"github.com/itohio/gotx/pkg/sample"
)

type fakeDevice struct {
	mu       sync.Mutex
	outputs  [][ppm.NumChannels]int16
	settings []ppm.Settings
	reloads  []bool
	fail     bool
}

func (d *fakeDevice) Connect() error                 { return nil }
func (d *fakeDevice) Close() error                   { return nil }
func (d *fakeDevice) Samples() <-chan link.RawSample { return nil }
func (d *fakeDevice) Captures() <-chan link.Captures { return nil }
func (d *fakeDevice) Latency() (lo, hi int16)        { return -1, 3 }
func (d *fakeDevice) IsConnected() bool              { return true }

func (d *fakeDevice) SendOutputs(ch *[ppm.NumChannels]int16) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return link.ErrNotConnected
	}
	d.outputs = append(d.outputs, *ch)
	return nil
}

func (d *fakeDevice) SendSettings(s ppm.Settings) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return errors.New("write failed")
	}
	d.settings = append(d.settings, s)
	return nil
}

func (d *fakeDevice) SendReloading(reloading bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return errors.New("write failed")
	}
	d.reloads = append(d.reloads, reloading)
	return nil
}

func newTestRunner(historyLen int) (*Runner, *config.Store, *fakeDevice) {
	cfg := config.Default()
	cfg.Runtime.HistoryLength = historyLen
	store := config.NewStore(cfg.Model, cfg.Radio)
	dev := &fakeDevice{}
	return New(cfg, store, dev), store, dev
}

func sticks(rud, ele, thr, ail int16) input.Sample {
	return input.Sample{Sticks: [input.NumSticks]int16{rud, ele, thr, ail}}
}

func TestNew(t *testing.T) {
	r, _, _ := newTestRunner(10)
	assert.NotNil(t, r)
	assert.NotNil(t, r.Engine())
	assert.Empty(t, r.History())
}

func TestProcessSample_SendsOutputs(t *testing.T) {
	r, _, dev := newTestRunner(10)
	now := time.Now()

	r.processSample(sticks(100, 200, 300, 400), now)

	require.Len(t, dev.outputs, 1)
	assert.Equal(t, []int16{100, 200, 300, 400}, dev.outputs[0][:4])
	require.Len(t, dev.settings, 1, "frame settings sent with the first cycle")
	assert.Equal(t, 8, dev.settings[0].Channels)
	assert.Equal(t, 22500, dev.settings[0].FrameLength)

	h := r.History()
	require.Len(t, h, 1)
	assert.Equal(t, now, h[0].Timestamp)
	assert.Equal(t, dev.outputs[0], h[0].Channels)

	r.processSample(sticks(0, 0, 0, 0), now)
	assert.Len(t, dev.settings, 1, "unchanged model is not resent")
	assert.Greater(t, r.History()[1].Seq, h[0].Seq)
}

func TestProcessSample_ModelChange(t *testing.T) {
	r, store, dev := newTestRunner(10)
	r.processSample(sticks(0, 0, 0, 0), time.Now())

	require.NoError(t, store.UpdateModel(func(m *config.Model) error {
		m.Protocol = config.ProtoPPM16
		m.PPM.Channels2 = 4
		return nil
	}))
	r.processSample(sticks(0, 0, 0, 0), time.Now())

	require.Len(t, dev.settings, 2)
	assert.Equal(t, ppm.ProtoPPM16, dev.settings[1].Protocol)
	assert.Equal(t, 4, dev.settings[1].Channels2)
}

func TestProcessSample_Reload(t *testing.T) {
	r, store, dev := newTestRunner(10)
	r.processSample(sticks(0, 0, 0, 0), time.Now())
	require.Len(t, dev.outputs, 1)
	require.Len(t, dev.settings, 1)

	store.BeginReload()
	for range 3 {
		r.processSample(sticks(500, 0, 0, 0), time.Now())
	}
	assert.Len(t, dev.outputs, 1, "no outputs while reloading")
	assert.Len(t, dev.settings, 1, "no settings while reloading")
	assert.Len(t, r.History(), 1, "no mixer cycle while reloading")
	assert.Equal(t, []bool{true}, dev.reloads)

	m := store.Model().Clone()
	m.PPM.Channels = 6
	require.NoError(t, store.Commit(m))
	r.processSample(sticks(500, 0, 0, 0), time.Now())

	assert.Equal(t, []bool{true, false}, dev.reloads)
	require.Len(t, dev.settings, 2)
	assert.Equal(t, 6, dev.settings[1].Channels)
	require.Len(t, dev.outputs, 2)
	assert.Equal(t, int16(500), dev.outputs[1][0])
}

func TestProcessSample_ReloadStateRetried(t *testing.T) {
	r, store, dev := newTestRunner(10)
	store.BeginReload()

	dev.fail = true
	r.processSample(sticks(0, 0, 0, 0), time.Now())
	assert.Empty(t, dev.reloads)

	dev.fail = false
	r.processSample(sticks(0, 0, 0, 0), time.Now())
	assert.Equal(t, []bool{true}, dev.reloads)
	assert.Empty(t, dev.outputs)
}

func TestProcessSample_SendFailure(t *testing.T) {
	r, _, dev := newTestRunner(10)
	dev.fail = true

	r.processSample(sticks(0, 0, 0, 0), time.Now())
	r.processSample(sticks(0, 0, 0, 0), time.Now())
	assert.Equal(t, uint32(2), r.Status().SendErrors)
	assert.Len(t, r.History(), 2, "history is kept while the link is down")

	dev.fail = false
	r.processSample(sticks(0, 0, 0, 0), time.Now())
	assert.Len(t, dev.settings, 1, "settings retried")
}

func TestProcessSample_HistoryBounded(t *testing.T) {
	r, _, _ := newTestRunner(5)
	for i := range 12 {
		r.processSample(sticks(int16(i), 0, 0, 0), time.Now())
	}

	h := r.History()
	require.Len(t, h, 5)
	assert.Equal(t, int16(7), h[0].Channels[0])
	assert.Equal(t, int16(11), h[4].Channels[0])
}

func TestProcessCaptures_Trainer(t *testing.T) {
	r, store, _ := newTestRunner(10)
	require.NoError(t, store.UpdateModel(func(m *config.Model) error {
		m.TrainerOn = true
		return nil
	}))

	in := make(chan link.Captures, 1)
	// sync, then 8 channels; channel 1 at +100 us
	in <- link.Captures{Counts: []uint16{0, 10000, 11600, 13100, 14600, 16100, 17600, 19100, 20600, 22100}}
	close(in)
	r.ProcessCaptures(in)

	st := r.Status()
	require.True(t, st.TrainerValid)
	assert.Equal(t, int16(100), st.Trainer[0])

	r.processSample(sticks(0, 0, 0, 0), time.Now())
	assert.Equal(t, int16(200), r.History()[0].Channels[0], "trainee rudder blended in")
}

func TestStatus(t *testing.T) {
	r, _, _ := newTestRunner(10)
	r.Engine().AdjustTrim(mixer.TrimEvent{Stick: input.StickElevator, Up: true})

	st := r.Status()
	assert.Equal(t, int8(1), st.Trims[input.StickElevator])
	assert.Equal(t, int16(-1), st.LatencyMin)
	assert.Equal(t, int16(3), st.LatencyMax)
	assert.False(t, st.TrainerValid)
}

func TestOnUpdate(t *testing.T) {
	r, _, _ := newTestRunner(10)

	var got [][]sample.Frame
	r.OnUpdate(func(history []sample.Frame, st Status) {
		got = append(got, history)
	})

	r.processSample(sticks(1, 0, 0, 0), time.Now())
	r.processSample(sticks(2, 0, 0, 0), time.Now())

	require.Len(t, got, 2)
	assert.Len(t, got[0], 1)
	assert.Len(t, got[1], 2)
	assert.Equal(t, int16(2), got[1][1].Channels[0])
}

func TestSettings(t *testing.T) {
	tests := []struct {
		name      string
		protocol  config.Protocol
		role      config.Role
		extended  bool
		wantProto ppm.Protocol
		wantRole  ppm.Role
	}{
		{"ppm master", config.ProtoPPM, config.RoleMaster, false, ppm.ProtoPPM, ppm.RoleMaster},
		{"ppm16 slave", config.ProtoPPM16, config.RoleSlave, true, ppm.ProtoPPM16, ppm.RoleSlave},
		{"simulation", config.ProtoPPMSim, config.RoleMaster, false, ppm.ProtoPPMSim, ppm.RoleMaster},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := config.DefaultModel()
			m.Protocol = tt.protocol
			m.Role = tt.role
			m.ExtendedLimits = tt.extended
			m.PPM.Delay = 3
			m.PPM.PositivePol = true

			s := Settings(m)
			assert.Equal(t, tt.wantProto, s.Protocol)
			assert.Equal(t, tt.wantRole, s.Role)
			assert.Equal(t, tt.extended, s.Extended)
			assert.Equal(t, 3, s.Delay)
			assert.True(t, s.PositivePol)
			assert.Equal(t, m.PPM.Start2, s.Start2)
		})
	}
}
