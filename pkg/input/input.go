// Package input describes what the stick sampler hands to the mixer once per
// sampling cycle.
package input

// Stick indexes in Sample.Sticks.
const (
	StickRudder = iota
	StickElevator
	StickThrottle
	StickAileron

	NumSticks = 4
)

// NumPots is the number of proportional pots sampled alongside the sticks.
const NumPots = 3

// Physical switch identifiers. Bit i of Switches holds switch i.
const (
	SwitchNone = iota
	SwitchTHR
	SwitchRUD
	SwitchELE
	SwitchID0
	SwitchID1
	SwitchID2
	SwitchAIL
	SwitchGEA
	SwitchTRN

	MaxSwitch = 31
)

// Switches is a bitmask of physical switch states.
type Switches uint32

// Get reports the raw state of switch id (1..MaxSwitch).
func (s Switches) Get(id int) bool {
	if id <= 0 || id > MaxSwitch {
		return false
	}
	return s&(1<<uint(id)) != 0
}

// Set returns s with switch id set to on.
func (s Switches) Set(id int, on bool) Switches {
	if id <= 0 || id > MaxSwitch {
		return s
	}
	if on {
		return s | 1<<uint(id)
	}
	return s &^ (1 << uint(id))
}

// Resolve maps a signed switch identifier to a state. 0 yields nc, a negative
// identifier is the inverted state of -id.
func (s Switches) Resolve(id int, nc bool) bool {
	if id == 0 {
		return nc
	}
	if id < 0 {
		return !s.Get(-id)
	}
	return s.Get(id)
}

// Sample is one calibrated sampling cycle.
type Sample struct {
	Sticks   [NumSticks]int16 // calibrated to +/-RESX
	Pots     [NumPots]int16   // calibrated to +/-RESX
	Switches Switches
	Tick     uint16 // free running 10 ms tick counter
	Battery  uint16 // percent
}
