package mixer

import "github.com/itohio/gotx/pkg/calc"

// Mix warning slots within the 256 tick (2.56 s) period. Each warning level
// beeps its index+1 times and the slots never overlap.
var warningSlots = [3][]uint8{
	{0},
	{64, 72},
	{128, 136, 144},
}

// scheduleWarnings plays the active mix warnings whose slots were passed
// between two cycles.
func (e *Engine) scheduleWarnings(prev, now uint16) {
	if e.warnings == 0 {
		return
	}
	for w, slots := range warningSlots {
		if e.warnings&(1<<w) == 0 {
			continue
		}
		for _, s := range slots {
			if crossed(prev, now, s) {
				e.audio.Play(ToneMixWarning1 + Tone(w))
				break
			}
		}
	}
}

// crossed reports whether tick slot (mod 256) lies in (prev, now].
func crossed(prev, now uint16, slot uint8) bool {
	elapsed := now - prev
	if elapsed == 0 {
		return false
	}
	if elapsed >= 256 {
		return true
	}
	d := slot - uint8(prev)
	return d != 0 && uint16(d) <= elapsed
}

const (
	inactivityThreshold = 32
	inactivityRepeatMs  = 10000
)

// inactivity counts mixer cycles without stick movement.
type inactivity struct {
	sum    int32
	cycles int32
}

// update reports whether the alarm should sound this cycle. It sounds once
// the sticks have rested for the given minutes and repeats every 10 s.
func (a *inactivity) update(sticks *[4]int16, minutes uint8, cycleMs int32) bool {
	var sum int32
	for _, v := range sticks {
		sum += int32(v)
	}
	if calc.Abs(sum-a.sum) > inactivityThreshold {
		a.sum = sum
		a.cycles = 0
		return false
	}
	if a.cycles < 1<<30 {
		a.cycles++
	}
	if minutes == 0 {
		return false
	}
	limit := int32(minutes) * 60 * 1000 / cycleMs
	repeat := max(inactivityRepeatMs/cycleMs, 1)
	return a.cycles >= limit && (a.cycles-limit)%repeat == 0
}
