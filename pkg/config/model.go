package config

import (
	"errors"
	"fmt"
)

const (
	// NumChannels is the number of output channels.
	NumChannels = 16
	// NumTrainerInputs is the number of channels captured from the trainer pin.
	NumTrainerInputs = 8
	// NumPhaseChannels is the channel capacity of one pulse frame.
	NumPhaseChannels = 8
	// MaxMixers is the capacity of the mix program.
	MaxMixers = 32
	// MaxCurves is the number of programmable curve tables.
	MaxCurves = 8
	// NumExpoSticks is the number of sticks with expo/dual-rate tables.
	NumExpoSticks = 4
	// TrimMax is the trim end stop in either direction.
	TrimMax = 125
)

// Rate bands of an expo table.
const (
	RateHigh = iota
	RateMid
	RateLow

	NumRates = 3
)

// Model is the model program: everything the mixer and the encoder read.
type Model struct {
	Name           string         `yaml:"name"`
	Protocol       Protocol       `yaml:"protocol"`
	Role           Role           `yaml:"role"`
	PPM            PPMConfig      `yaml:"ppm"`
	ExtendedLimits bool           `yaml:"extended_limits"`
	ThrottleExpo   bool           `yaml:"throttle_expo"`  // expo over the whole throttle travel
	ThrottleTrim   bool           `yaml:"throttle_trim"`  // trim acts on idle only
	TrimIncrement  uint8          `yaml:"trim_increment"` // 0 exponential, 1..4 fixed 1/2/4/8
	Trims          [4]int8        `yaml:"trims"`
	BeepCenter     uint8          `yaml:"beep_center"` // bit per stick/pot
	TrainerOn      bool           `yaml:"trainer_on"`
	Swash          SwashConfig    `yaml:"swash"`
	Expos          [4]ExpoData    `yaml:"expos"`
	Mixes          []Mix          `yaml:"mixes"`
	Limits         []Limit        `yaml:"limits"`
	Safety         []SafetySwitch `yaml:"safety"`
	Curves         []Curve        `yaml:"curves"`
}

// PPMConfig holds the pulse train timing parameters.
type PPMConfig struct {
	Channels    int  `yaml:"channels"`     // channels in the first frame (1..8)
	Delay       int  `yaml:"delay"`        // stop period is 300+50*delay us
	FrameLength int  `yaml:"frame_length"` // us
	PositivePol bool `yaml:"positive_polarity"`
	// Dual phase
	Start2    int `yaml:"start2"`    // first channel of the second frame (0 based)
	Channels2 int `yaml:"channels2"` // channels in the second frame (1..8)
	// PPM input fine tuning, (mult+10)/10
	InputMultiplier int8 `yaml:"input_multiplier"`
}

// SwashConfig configures the helicopter cyclic mixing.
type SwashConfig struct {
	Type             SwashType `yaml:"type"`
	RingValue        int8      `yaml:"ring"` // percent, 0 disables the ring limit
	CollectiveSource Source    `yaml:"collective"`
	InvertELE        bool      `yaml:"invert_ele"`
	InvertAIL        bool      `yaml:"invert_ail"`
	InvertCOL        bool      `yaml:"invert_col"`
}

// ExpoData is the per stick dual/triple rate table.
type ExpoData struct {
	Switch1 int              `yaml:"switch1"` // off => high rate
	Switch2 int              `yaml:"switch2"` // off => mid rate, on => low rate
	Rates   [NumRates]Rate `yaml:"rates"`
}

// Rate is one expo band, split by stick direction.
type Rate struct {
	ExpoLeft    int8 `yaml:"expo_left"`
	ExpoRight   int8 `yaml:"expo_right"`
	WeightLeft  int8 `yaml:"weight_left"`
	WeightRight int8 `yaml:"weight_right"`
}

// Mix is one step of the mix program.
type Mix struct {
	Dest       int     `yaml:"dest"` // 1..NumChannels, 0 ends the program
	Source     Source  `yaml:"source"`
	Weight     int8    `yaml:"weight"` // -100..100
	Offset     int8    `yaml:"offset"` // -100..100
	LateOffset bool    `yaml:"late_offset"`
	Switch     int     `yaml:"switch"` // 0 always on, negative inverts
	Curve      int     `yaml:"curve"`
	Mode       MixMode `yaml:"mode"`
	CarryTrim  bool    `yaml:"carry_trim"` // true suppresses stick trim
	DelayUp    uint8   `yaml:"delay_up"`   // 0.1 s
	DelayDown  uint8   `yaml:"delay_down"` // 0.1 s
	SpeedUp    uint8   `yaml:"speed_up"`   // 0.1 s for full travel
	SpeedDown  uint8   `yaml:"speed_down"` // 0.1 s for full travel
	Warning    uint8   `yaml:"warning"`    // 0 none, 1..3
}

// Terminates reports whether the entry ends the mix program.
func (m *Mix) Terminates() bool {
	return m.Dest <= 0 || m.Dest > NumChannels || !m.Source.Valid()
}

// HasRamp reports whether the entry uses delay or speed.
func (m *Mix) HasRamp() bool {
	return m.DelayUp != 0 || m.DelayDown != 0 || m.SpeedUp != 0 || m.SpeedDown != 0
}

// Limit is the final remap of an output channel.
type Limit struct {
	Min     int8  `yaml:"min"`    // percent, -100 (-125 extended)
	Max     int8  `yaml:"max"`    // percent, 100 (125 extended)
	Offset  int16 `yaml:"offset"` // per mille
	Reverse bool  `yaml:"reverse"`
}

// SafetySwitch overrides a channel when its switch is active.
type SafetySwitch struct {
	Switch int        `yaml:"switch"` // 0 disables
	Mode   SafetyMode `yaml:"mode"`
	Value  int8       `yaml:"value"` // percent
}

// Curve is a 5 or 9 point table in percent.
type Curve struct {
	Points []int8 `yaml:"points"`
}

// ErrCurveEdit is returned for rejected curve point edits.
var ErrCurveEdit = errors.New("curve edit rejected")

// SetCurvePoint edits one point of a curve table. Edits are validated and
// rejected rather than clamped: an out of range curve, point or value leaves
// the model untouched.
func (m *Model) SetCurvePoint(curve, point int, value int) error {
	if curve < 0 || curve >= len(m.Curves) {
		return fmt.Errorf("%w: curve %d does not exist", ErrCurveEdit, curve+1)
	}
	c := &m.Curves[curve]
	if point < 0 || point >= len(c.Points) {
		return fmt.Errorf("%w: curve %d has no point %d", ErrCurveEdit, curve+1, point+1)
	}
	if value < -100 || value > 100 {
		return fmt.Errorf("%w: value %d outside -100..100", ErrCurveEdit, value)
	}
	c.Points[point] = int8(value)
	return nil
}

// Clone returns a deep copy of the model.
func (m *Model) Clone() *Model {
	c := *m
	c.Mixes = append([]Mix(nil), m.Mixes...)
	c.Limits = append([]Limit(nil), m.Limits...)
	c.Safety = append([]SafetySwitch(nil), m.Safety...)
	c.Curves = make([]Curve, len(m.Curves))
	for i, cv := range m.Curves {
		c.Curves[i].Points = append([]int8(nil), cv.Points...)
	}
	return &c
}

// Limit returns the limit of channel ch (0 based) or the default limit.
func (m *Model) Limit(ch int) Limit {
	if ch >= 0 && ch < len(m.Limits) {
		return m.Limits[ch]
	}
	return DefaultLimit()
}

// SafetySwitch returns the safety switch of channel ch (0 based).
func (m *Model) SafetySwitch(ch int) SafetySwitch {
	if ch >= 0 && ch < len(m.Safety) {
		return m.Safety[ch]
	}
	return SafetySwitch{}
}

// DefaultLimit is the full travel, no offset limit.
func DefaultLimit() Limit {
	return Limit{Min: -100, Max: 100}
}

// DefaultRate is a linear full weight rate band.
func DefaultRate() Rate {
	return Rate{WeightLeft: 100, WeightRight: 100}
}

// DefaultModel returns a four channel airplane model: one replace mix per
// stick into channels 1..4 (RUD, ELE, THR, AIL).
func DefaultModel() *Model {
	m := &Model{
		Name:     "MODEL01",
		Protocol: ProtoPPM,
		Role:     RoleMaster,
		PPM: PPMConfig{
			Channels:    8,
			FrameLength: 22500,
			Start2:      8,
			Channels2:   8,
		},
		Limits: make([]Limit, NumChannels),
		Safety: make([]SafetySwitch, NumChannels),
	}
	for i := range m.Expos {
		for r := range m.Expos[i].Rates {
			m.Expos[i].Rates[r] = DefaultRate()
		}
	}
	for i := range m.Limits {
		m.Limits[i] = DefaultLimit()
	}
	for i, src := range []Source{SrcRudder, SrcElevator, SrcThrottle, SrcAileron} {
		m.Mixes = append(m.Mixes, Mix{Dest: i + 1, Source: src, Weight: 100, Mode: MixReplace})
	}
	return m
}
