package link

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"

	"github.com/itohio/gotx/pkg/link/wire"
	"github.com/itohio/gotx/pkg/ppm"
)

const (
	// DefaultBaudRate is the MCU link baud rate.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the samples channel buffer.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the transmitter MCU.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	samples   chan RawSample
	captures  chan Captures
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	wmu  sync.Mutex
	wbuf []byte

	latMin atomic.Int32
	latMax atomic.Int32
}

// New creates a new Serial device with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		samples:  make(chan RawSample, bufSize),
		captures: make(chan Captures, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port and starts reading lines.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readLines(port)

	return nil
}

// Close closes the connection and stops reading.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	return nil
}

// Samples returns the channel of stick samples. It is closed after Close.
func (d *Serial) Samples() <-chan RawSample {
	return d.samples
}

// Captures returns the channel of trainer captures. It is closed after Close.
func (d *Serial) Captures() <-chan Captures {
	return d.captures
}

// SendOutputs sends the output channels to the MCU.
func (d *Serial) SendOutputs(ch *[ppm.NumChannels]int16) error {
	return d.send(func(b []byte) []byte { return wire.AppendOutputs(b, ch) })
}

// SendSettings sends the frame settings to the MCU.
func (d *Serial) SendSettings(s ppm.Settings) error {
	return d.send(func(b []byte) []byte { return wire.AppendSettings(b, &s) })
}

// SendReloading sends the reload state to the MCU.
func (d *Serial) SendReloading(reloading bool) error {
	return d.send(func(b []byte) []byte { return wire.AppendReload(b, reloading) })
}

func (d *Serial) send(build func([]byte) []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return ErrNotConnected
	}

	d.wmu.Lock()
	defer d.wmu.Unlock()
	d.wbuf = append(build(d.wbuf[:0]), '\n')
	if _, err := d.conn.Write(d.wbuf); err != nil {
		return fmt.Errorf("failed to send %q: %w", d.wbuf[0], err)
	}
	return nil
}

// Latency returns the last compare latency range reported by the MCU.
func (d *Serial) Latency() (lo, hi int16) {
	return int16(d.latMin.Load()), int16(d.latMax.Load())
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readLines reads lines from the serial port until it is closed. It owns the
// output channels and closes them on exit.
func (d *Serial) readLines(src io.Reader) {
	defer close(d.samples)
	defer close(d.captures)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readLines: %v", r)
		}
	}()

	scanner := bufio.NewScanner(src)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := d.handle(line, time.Now()); err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
		}
		if d.ctx.Err() != nil {
			return
		}
	}
	if err := scanner.Err(); err != nil && d.ctx.Err() == nil {
		log.Printf("Error reading from serial port: %v", err)
	}
}

// handle dispatches one line. Lines are dropped when the consumer lags.
func (d *Serial) handle(line string, now time.Time) error {
	switch wire.Kind(line) {
	case wire.KindSample:
		s, err := wire.ParseSample(line)
		if err != nil {
			return err
		}
		select {
		case d.samples <- fromWire(&s):
		default:
			log.Printf("Samples channel full, dropping sample")
		}
	case wire.KindCaptures:
		counts, err := wire.ParseCaptures(line, nil)
		if err != nil {
			return err
		}
		select {
		case d.captures <- Captures{Timestamp: now, Counts: counts}:
		default:
		}
	case wire.KindLatency:
		lo, hi, err := wire.ParseLatency(line)
		if err != nil {
			return err
		}
		d.latMin.Store(int32(lo))
		d.latMax.Store(int32(hi))
	default:
		return fmt.Errorf("%w: unknown kind", wire.ErrMalformed)
	}
	return nil
}
