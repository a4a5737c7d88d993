package mixer

import (
	"log"

	"github.com/itohio/gotx/pkg/calc"
	"github.com/itohio/gotx/pkg/config"
	"github.com/itohio/gotx/pkg/input"
)

// TrimEvent is a trim key press.
type TrimEvent struct {
	Stick int  // input.Stick*
	Up    bool // towards positive
}

// trimStep returns the step of one key press for trim increment setting inc
// (0 exponential, 1..4 fixed 1/2/4/8).
func trimStep(inc uint8, tm int32) int32 {
	switch {
	case inc == 0:
		return calc.Abs(tm)/4 + 1
	case inc == 1:
		return 1
	default:
		return 1 << (min(inc, 4) - 1)
	}
}

// AdjustTrim moves a stick trim by one key press and returns the new value.
// Crossing the center stops on zero, the end stops are +/-125; both play a
// tone. The trim is read from and written to the stored model in one update,
// so a concurrent mixer cycle cannot roll it back.
func (e *Engine) AdjustTrim(ev TrimEvent) int8 {
	if ev.Stick < 0 || ev.Stick >= input.NumSticks {
		return 0
	}
	r := e.store.Radio()

	var (
		x    int32
		tone Tone
	)
	err := e.store.UpdateModel(func(m *config.Model) error {
		x, tone = nextTrim(m, r, ev)
		m.Trims[ev.Stick] = int8(x)
		return nil
	})
	if err != nil {
		log.Printf("Failed to store trims: %v", err)
		return e.Trims()[ev.Stick]
	}

	e.trims[ev.Stick].Store(x)
	e.audio.Play(tone)
	return int8(x)
}

// nextTrim computes the trim after one key press on m's current trims.
func nextTrim(m *config.Model, r *config.Radio, ev TrimEvent) (int32, Tone) {
	tm := int32(m.Trims[ev.Stick])
	step := trimStep(m.TrimIncrement, tm)

	thrChan := ev.Stick == input.StickThrottle
	thro := thrChan && m.ThrottleTrim
	if thro {
		step = 4
	}
	if thrChan && r.ThrottleReversed {
		step = -step
	}

	x := tm - step
	if ev.Up {
		x = tm + step
	}

	switch {
	case (x == 0 || (x >= 0) != (tm >= 0)) && !thro && tm != 0:
		return 0, ToneTrimMiddle
	case x > -config.TrimMax && x < config.TrimMax:
		return x, ToneTrimMove
	default:
		return calc.Clamp(x, -config.TrimMax, config.TrimMax), ToneTrimEnd
	}
}
