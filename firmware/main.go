//go:build tinygo

//go:generate tinygo flash -target=grandcentral-m4

// Command firmware samples the sticks and switches, plays the pulse frames
// the host configures and timestamps the trainer edges. It speaks the line
// protocol of package wire over USB serial.
package main

import (
	"machine"
	"time"

	"github.com/itohio/gotx/pkg/channel"
	"github.com/itohio/gotx/pkg/link/wire"
	"github.com/itohio/gotx/pkg/ppm"
)

var (
	adcs    [len(PIN_ANALOG)]machine.ADC
	battery machine.ADC
	uart    = machine.Serial

	outputs channel.Array
	reload  ppm.ReloadFlag
	enc     *ppm.Encoder
	timer   *ppm.Timer

	boot time.Time

	// Timing
	lastSample  time.Time
	lastLatency time.Time

	// Serial buffers
	lineBuf [192]byte
	linePos int
	outBuf  [256]byte
)

func main() {
	machine.InitADC()

	adcConfig := machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	}
	for i, pin := range PIN_ANALOG {
		pin.Configure(machine.PinConfig{Mode: machine.PinInput})
		adcs[i] = machine.ADC{Pin: pin}
		adcs[i].Configure(adcConfig)
	}
	PIN_BATTERY.Configure(machine.PinConfig{Mode: machine.PinInput})
	battery = machine.ADC{Pin: PIN_BATTERY}
	battery.Configure(adcConfig)

	for _, pin := range PIN_SWITCHES {
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	boot = time.Now()
	enc = ppm.NewEncoder(&outputs, &reload, ppm.Settings{
		Channels:    8,
		FrameLength: 22500,
		PositivePol: true,
		Start2:      8,
		Channels2:   8,
	})
	timer = ppm.NewTimer(enc, &gpio{pin: PIN_PPM_OUT}, &gpio{pin: PIN_TRAINER, trainer: true})

	lastSample = boot
	lastLatency = boot
	next := micros()

	// The compare is polled: the latency statistics report how late each
	// edge was served.
	for {
		if now := micros(); int16(now-next) >= 0 {
			next = timer.OnCompare(now)
		}

		processSerial()

		now := time.Now()
		if now.Sub(lastSample) >= SAMPLE_INTERVAL_MS*time.Millisecond {
			sendSample(now)
			sendCaptures()
			lastSample = now
		}
		if now.Sub(lastLatency) >= LATENCY_INTERVAL_MS*time.Millisecond {
			lo, hi := timer.Latency()
			writeLine(wire.AppendLatency(outBuf[:0], lo, hi))
			timer.ResetLatency()
			lastLatency = now
		}
	}
}

// micros is the free running 1 MHz timer count.
func micros() uint16 {
	return uint16(time.Since(boot) / time.Microsecond)
}

func sendSample(now time.Time) {
	s := wire.Sample{
		Micros: now.UnixMicro(),
		Tick:   uint16(now.Sub(boot) / (10 * time.Millisecond)),
	}
	for i := range adcs {
		// Get returns a 16-bit scaled reading
		s.Analog[i] = adcs[i].Get() >> 4
	}
	s.Battery = batteryPercent(battery.Get() >> 4)
	for i, pin := range PIN_SWITCHES {
		if !pin.Get() {
			s.Switches |= 1 << uint(i+1)
		}
	}
	writeLine(wire.AppendSample(outBuf[:0], &s))
}

func batteryPercent(raw uint16) uint16 {
	switch {
	case raw <= BATTERY_EMPTY:
		return 0
	case raw >= BATTERY_FULL:
		return 100
	}
	return (raw - BATTERY_EMPTY) * 100 / (BATTERY_FULL - BATTERY_EMPTY)
}

func sendCaptures() {
	var counts [wire.MaxCaptures]uint16
	n := edges.drain(counts[:])
	if n == 0 {
		return
	}
	writeLine(wire.AppendCaptures(outBuf[:0], counts[:n]))
}

func writeLine(line []byte) {
	line = append(line, '\n')
	uart.Write(line)
}

func processSerial() {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		if data == '\n' || data == '\r' {
			if linePos > 0 {
				handleLine(string(lineBuf[:linePos]))
			}
			linePos = 0
			continue
		}

		if linePos < len(lineBuf) {
			lineBuf[linePos] = data
			linePos++
		} else {
			// Overlong line - drop it
			linePos = 0
		}
	}
}

// handleLine applies one host line. Malformed lines are ignored; the host
// resends outputs every cycle.
func handleLine(line string) {
	switch wire.Kind(line) {
	case wire.KindOutputs:
		var ch [ppm.NumChannels]int16
		if err := wire.ParseOutputs(line, &ch); err == nil {
			outputs.Publish(&ch)
		}
	case wire.KindSettings:
		if s, err := wire.ParseSettings(line); err == nil {
			enc.SetSettings(s)
			// settings are only sent for a committed configuration
			reload.Set(false)
		}
	case wire.KindReload:
		if v, err := wire.ParseReload(line); err == nil {
			reload.Set(v)
		}
	}
}
