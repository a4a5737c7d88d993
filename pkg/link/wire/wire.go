// Package wire encodes the line protocol between the host and the MCU. Every
// line starts with a one letter kind and a comma:
//
//	s,unix_micros,tick,a0,a1,a2,a3,a4,a5,a6,battery,switches_hex  MCU -> host
//	c,count,count,...                                             MCU -> host
//	l,latency_min,latency_max                                     MCU -> host
//	o,ch1,...,ch16                                                host -> MCU
//	p,proto,role,channels,delay,frame_len,pol,start2,channels2,ext host -> MCU
//	r,reloading                                                   host -> MCU
//
// The package has no dependencies beyond strconv so the firmware can use it.
package wire

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/itohio/gotx/pkg/ppm"
)

// Line kinds.
const (
	KindSample   = 's'
	KindCaptures = 'c'
	KindLatency  = 'l'
	KindOutputs  = 'o'
	KindSettings = 'p'
	KindReload   = 'r'
)

const (
	// NumAnalog is the number of analog inputs in a sample: sticks then pots.
	NumAnalog = 7
	// MaxADC is the largest 12-bit reading.
	MaxADC = 4095
	// MaxCaptures is the largest number of capture counts in one line.
	MaxCaptures = 64
)

// ErrMalformed is returned for lines that do not parse.
var ErrMalformed = errors.New("malformed line")

// Sample is a raw stick sample as read by the MCU.
type Sample struct {
	Micros   int64
	Tick     uint16
	Analog   [NumAnalog]uint16
	Battery  uint16
	Switches uint32
}

// Kind returns the kind of a line, or 0 if it has none.
func Kind(line string) byte {
	if len(line) < 2 || line[1] != ',' {
		return 0
	}
	return line[0]
}

// fields walks the comma separated values after the kind.
type fields struct {
	s   string
	n   int
	err error
}

func newFields(line string, kind byte) *fields {
	f := &fields{}
	if Kind(line) != kind {
		f.err = fmt.Errorf("%w: expected kind %q", ErrMalformed, kind)
		return f
	}
	f.s = line[2:]
	return f
}

func (f *fields) more() bool { return f.err == nil && f.s != "" }

func (f *fields) next() string {
	if f.err != nil {
		return ""
	}
	if f.s == "" {
		f.err = fmt.Errorf("%w: missing field %d", ErrMalformed, f.n+1)
		return ""
	}
	f.n++
	for i := 0; i < len(f.s); i++ {
		if f.s[i] == ',' {
			v := f.s[:i]
			f.s = f.s[i+1:]
			if f.s == "" {
				f.err = fmt.Errorf("%w: trailing comma", ErrMalformed)
			}
			return v
		}
	}
	v := f.s
	f.s = ""
	return v
}

func (f *fields) int(bits int) int64 {
	s := f.next()
	if f.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		f.err = fmt.Errorf("%w: field %d: %w", ErrMalformed, f.n, err)
	}
	return v
}

func (f *fields) uint(base, bits int) uint64 {
	s := f.next()
	if f.err != nil {
		return 0
	}
	v, err := strconv.ParseUint(s, base, bits)
	if err != nil {
		f.err = fmt.Errorf("%w: field %d: %w", ErrMalformed, f.n, err)
	}
	return v
}

func (f *fields) bool() bool {
	s := f.next()
	if f.err == nil && s != "0" && s != "1" {
		f.err = fmt.Errorf("%w: field %d: expected 0 or 1", ErrMalformed, f.n)
	}
	return s == "1"
}

func (f *fields) end() error {
	if f.err == nil && f.s != "" {
		f.err = fmt.Errorf("%w: unexpected field %d", ErrMalformed, f.n+1)
	}
	return f.err
}

func appendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, ",1"...)
	}
	return append(dst, ",0"...)
}

// AppendSample appends a sample line without the newline.
func AppendSample(dst []byte, s *Sample) []byte {
	dst = append(dst, KindSample, ',')
	dst = strconv.AppendInt(dst, s.Micros, 10)
	dst = append(dst, ',')
	dst = strconv.AppendUint(dst, uint64(s.Tick), 10)
	for _, a := range s.Analog {
		dst = append(dst, ',')
		dst = strconv.AppendUint(dst, uint64(a), 10)
	}
	dst = append(dst, ',')
	dst = strconv.AppendUint(dst, uint64(s.Battery), 10)
	dst = append(dst, ',')
	return strconv.AppendUint(dst, uint64(s.Switches), 16)
}

// ParseSample parses a sample line.
func ParseSample(line string) (Sample, error) {
	var s Sample
	f := newFields(line, KindSample)
	s.Micros = f.int(64)
	s.Tick = uint16(f.uint(10, 16))
	for i := range s.Analog {
		v := f.uint(10, 16)
		if f.err == nil && v > MaxADC {
			f.err = fmt.Errorf("%w: analog %d out of range: %d (max %d)", ErrMalformed, i, v, MaxADC)
		}
		s.Analog[i] = uint16(v)
	}
	s.Battery = uint16(f.uint(10, 16))
	s.Switches = uint32(f.uint(16, 32))
	return s, f.end()
}

// AppendCaptures appends a capture line without the newline.
func AppendCaptures(dst []byte, counts []uint16) []byte {
	dst = append(dst, KindCaptures)
	for _, c := range counts {
		dst = append(dst, ',')
		dst = strconv.AppendUint(dst, uint64(c), 10)
	}
	return dst
}

// ParseCaptures parses a capture line, appending the counts to dst.
func ParseCaptures(line string, dst []uint16) ([]uint16, error) {
	f := newFields(line, KindCaptures)
	for f.more() {
		if len(dst) >= MaxCaptures {
			return dst, fmt.Errorf("%w: more than %d captures", ErrMalformed, MaxCaptures)
		}
		v := f.uint(10, 16)
		if f.err != nil {
			break
		}
		dst = append(dst, uint16(v))
	}
	return dst, f.end()
}

// AppendLatency appends a latency line without the newline.
func AppendLatency(dst []byte, lo, hi int16) []byte {
	dst = append(dst, KindLatency, ',')
	dst = strconv.AppendInt(dst, int64(lo), 10)
	dst = append(dst, ',')
	return strconv.AppendInt(dst, int64(hi), 10)
}

// ParseLatency parses a latency line.
func ParseLatency(line string) (lo, hi int16, err error) {
	f := newFields(line, KindLatency)
	lo = int16(f.int(16))
	hi = int16(f.int(16))
	return lo, hi, f.end()
}

// AppendOutputs appends an output channel line without the newline.
func AppendOutputs(dst []byte, ch *[ppm.NumChannels]int16) []byte {
	dst = append(dst, KindOutputs)
	for _, v := range ch {
		dst = append(dst, ',')
		dst = strconv.AppendInt(dst, int64(v), 10)
	}
	return dst
}

// ParseOutputs parses an output channel line into dst.
func ParseOutputs(line string, dst *[ppm.NumChannels]int16) error {
	var ch [ppm.NumChannels]int16
	f := newFields(line, KindOutputs)
	for i := range ch {
		ch[i] = int16(f.int(16))
	}
	if err := f.end(); err != nil {
		return err
	}
	*dst = ch
	return nil
}

// AppendSettings appends a frame settings line without the newline.
func AppendSettings(dst []byte, s *ppm.Settings) []byte {
	dst = append(dst, KindSettings, ',')
	dst = strconv.AppendUint(dst, uint64(s.Protocol), 10)
	dst = append(dst, ',')
	dst = strconv.AppendUint(dst, uint64(s.Role), 10)
	for _, v := range [...]int{s.Channels, s.Delay, s.FrameLength} {
		dst = append(dst, ',')
		dst = strconv.AppendInt(dst, int64(v), 10)
	}
	dst = appendBool(dst, s.PositivePol)
	for _, v := range [...]int{s.Start2, s.Channels2} {
		dst = append(dst, ',')
		dst = strconv.AppendInt(dst, int64(v), 10)
	}
	return appendBool(dst, s.Extended)
}

// ParseSettings parses a frame settings line.
func ParseSettings(line string) (ppm.Settings, error) {
	var s ppm.Settings
	f := newFields(line, KindSettings)
	s.Protocol = ppm.Protocol(f.uint(10, 8))
	s.Role = ppm.Role(f.uint(10, 8))
	s.Channels = int(f.int(32))
	s.Delay = int(f.int(32))
	s.FrameLength = int(f.int(32))
	s.PositivePol = f.bool()
	s.Start2 = int(f.int(32))
	s.Channels2 = int(f.int(32))
	s.Extended = f.bool()
	if f.err == nil && (s.Protocol > ppm.ProtoPPMSim || s.Role > ppm.RoleSlave) {
		f.err = fmt.Errorf("%w: unknown protocol %d or role %d", ErrMalformed, s.Protocol, s.Role)
	}
	return s, f.end()
}

// AppendReload appends a reload state line without the newline.
func AppendReload(dst []byte, reloading bool) []byte {
	return appendBool(append(dst, KindReload), reloading)
}

// ParseReload parses a reload state line.
func ParseReload(line string) (bool, error) {
	f := newFields(line, KindReload)
	v := f.bool()
	return v, f.end()
}
