package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source selects what a mix entry reads.
type Source uint8

const (
	SrcNone Source = iota
	SrcRudder
	SrcElevator
	SrcThrottle
	SrcAileron
	SrcP1
	SrcP2
	SrcP3
	SrcMax
	SrcFull
	SrcCyc1
	SrcCyc2
	SrcCyc3
	SrcPPM1
	SrcCH1 = SrcPPM1 + NumTrainerInputs

	// SrcLast is the last valid source.
	SrcLast = SrcCH1 + NumChannels - 1
)

var sourceNames = []string{"NONE", "RUD", "ELE", "THR", "AIL", "P1", "P2", "P3", "MAX", "FULL", "CYC1", "CYC2", "CYC3"}

// Valid reports whether s names a real input.
func (s Source) Valid() bool { return s > SrcNone && s <= SrcLast }

// IsStick reports whether s is one of the four sticks.
func (s Source) IsStick() bool { return s >= SrcRudder && s <= SrcAileron }

// IsAnalog reports whether s is a stick or a pot.
func (s Source) IsAnalog() bool { return s >= SrcRudder && s <= SrcP3 }

// IsChannel reports whether s reads an output channel.
func (s Source) IsChannel() bool { return s >= SrcCH1 && s <= SrcLast }

// IsTrainer reports whether s reads a captured trainer input.
func (s Source) IsTrainer() bool { return s >= SrcPPM1 && s < SrcCH1 }

func (s Source) String() string {
	switch {
	case int(s) < len(sourceNames):
		return sourceNames[s]
	case s.IsTrainer():
		return "PPM" + strconv.Itoa(int(s-SrcPPM1)+1)
	case s.IsChannel():
		return "CH" + strconv.Itoa(int(s-SrcCH1)+1)
	}
	return "SRC" + strconv.Itoa(int(s))
}

// ParseSource parses a source name such as "ELE", "PPM3" or "CH12".
func ParseSource(name string) (Source, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range sourceNames {
		if n == name {
			return Source(i), nil
		}
	}
	if n, ok := strings.CutPrefix(name, "PPM"); ok {
		if i, err := strconv.Atoi(n); err == nil && i >= 1 && i <= NumTrainerInputs {
			return SrcPPM1 + Source(i-1), nil
		}
	}
	if n, ok := strings.CutPrefix(name, "CH"); ok {
		if i, err := strconv.Atoi(n); err == nil && i >= 1 && i <= NumChannels {
			return SrcCH1 + Source(i-1), nil
		}
	}
	return SrcNone, fmt.Errorf("unknown source %q", name)
}

func (s Source) MarshalYAML() (interface{}, error) { return s.String(), nil }

func (s *Source) UnmarshalYAML(value *yaml.Node) error {
	v, err := ParseSource(value.Value)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// names is a small bidirectional table for enum YAML encoding.
type names []string

func (n names) name(v uint8) string {
	if int(v) < len(n) {
		return n[v]
	}
	return strconv.Itoa(int(v))
}

func (n names) parse(kind, s string) (uint8, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, v := range n {
		if v == s {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}

// MixMode is how a mix entry combines into its destination.
type MixMode uint8

const (
	MixAdd MixMode = iota
	MixMultiply
	MixReplace
)

var mixModeNames = names{"add", "multiply", "replace"}

func (m MixMode) String() string                     { return mixModeNames.name(uint8(m)) }
func (m MixMode) MarshalYAML() (interface{}, error) { return m.String(), nil }
func (m *MixMode) UnmarshalYAML(value *yaml.Node) error {
	v, err := mixModeNames.parse("mix mode", value.Value)
	*m = MixMode(v)
	return err
}

// Protocol selects the pulse train variant.
type Protocol uint8

const (
	ProtoPPM Protocol = iota
	ProtoPPM16
	ProtoPPMSim
)

var protocolNames = names{"ppm", "ppm16", "ppmsim"}

func (p Protocol) String() string                     { return protocolNames.name(uint8(p)) }
func (p Protocol) MarshalYAML() (interface{}, error) { return p.String(), nil }
func (p *Protocol) UnmarshalYAML(value *yaml.Node) error {
	v, err := protocolNames.parse("protocol", value.Value)
	*p = Protocol(v)
	return err
}

// Role is the trainer pin role of this unit.
type Role uint8

const (
	RoleMaster Role = iota
	RoleSlave
)

var roleNames = names{"master", "slave"}

func (r Role) String() string                     { return roleNames.name(uint8(r)) }
func (r Role) MarshalYAML() (interface{}, error) { return r.String(), nil }
func (r *Role) UnmarshalYAML(value *yaml.Node) error {
	v, err := roleNames.parse("role", value.Value)
	*r = Role(v)
	return err
}

// TrainerMode is how a captured trainer channel blends into a stick.
type TrainerMode uint8

const (
	TrainerOff TrainerMode = iota
	TrainerAdd
	TrainerReplace
)

var trainerModeNames = names{"off", "add", "replace"}

func (m TrainerMode) String() string                     { return trainerModeNames.name(uint8(m)) }
func (m TrainerMode) MarshalYAML() (interface{}, error) { return m.String(), nil }
func (m *TrainerMode) UnmarshalYAML(value *yaml.Node) error {
	v, err := trainerModeNames.parse("trainer mode", value.Value)
	*m = TrainerMode(v)
	return err
}

// SwashType is the helicopter swashplate geometry.
type SwashType uint8

const (
	SwashNone SwashType = iota
	Swash120
	Swash120X
	Swash140
	Swash90
)

var swashNames = names{"none", "120", "120x", "140", "90"}

func (s SwashType) String() string                     { return swashNames.name(uint8(s)) }
func (s SwashType) MarshalYAML() (interface{}, error) { return s.String(), nil }
func (s *SwashType) UnmarshalYAML(value *yaml.Node) error {
	v, err := swashNames.parse("swash type", value.Value)
	*s = SwashType(v)
	return err
}

// SafetyMode selects how a safety switch overrides its channel.
type SafetyMode uint8

const (
	// SafetyOverride replaces the channel while the switch is active.
	SafetyOverride SafetyMode = iota
	// SafetySticky latches when the switch activates and releases once the
	// switch is off and the channel has come down to the override value.
	SafetySticky
)

var safetyModeNames = names{"override", "sticky"}

func (s SafetyMode) String() string                     { return safetyModeNames.name(uint8(s)) }
func (s SafetyMode) MarshalYAML() (interface{}, error) { return s.String(), nil }
func (s *SafetyMode) UnmarshalYAML(value *yaml.Node) error {
	v, err := safetyModeNames.parse("safety mode", value.Value)
	*s = SafetyMode(v)
	return err
}

// Curve selectors of a mix entry. Values from CurveTable1 on select
// Model.Curves[curve-CurveTable1].
const (
	CurveNone = iota
	CurvePositive
	CurveNegative
	CurveAbs
	CurveStepPositive
	CurveStepNegative
	CurveStepAbs
	CurveTable1
)
