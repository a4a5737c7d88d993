package mixer

// Tone identifies an alert played by the audio collaborator.
type Tone uint8

const (
	ToneMixWarning1 Tone = iota + 1
	ToneMixWarning2
	ToneMixWarning3
	ToneStickCenter
	ToneTrimMove
	ToneTrimMiddle
	ToneTrimEnd
	ToneInactivity
)

var toneNames = [...]string{"none", "mix warning 1", "mix warning 2", "mix warning 3", "stick center", "trim move", "trim middle", "trim end", "inactivity"}

func (t Tone) String() string {
	if int(t) < len(toneNames) {
		return toneNames[t]
	}
	return "unknown"
}

// Audio plays alerts. Play must not block: it is called from the mixer cycle.
type Audio interface {
	Play(t Tone)
}

// NoAudio discards every tone.
type NoAudio struct{}

func (NoAudio) Play(Tone) {}

// AudioFunc adapts a function to Audio.
type AudioFunc func(Tone)

func (f AudioFunc) Play(t Tone) { f(t) }
