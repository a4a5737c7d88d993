//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS  = 20   // stick sample period, one mixer cycle on the host
	LATENCY_INTERVAL_MS = 1000 // compare latency report period

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// Battery divider: readings at or below BATTERY_EMPTY are 0%, at or above BATTERY_FULL 100%
	BATTERY_EMPTY = 2480
	BATTERY_FULL  = 3100

	// Pulse output and trainer jack
	PIN_PPM_OUT = machine.D2
	PIN_TRAINER = machine.D3

	// Serial configuration
	// Longest line: "s,<19 digits>,65535,4095 x7,65535,ffffffff\n" is about 70 bytes.
	// 50 samples/sec * 70 bytes + capture lines (~350 bytes/frame at 45 frames/sec)
	// stays under 20,000 bytes/sec; USB CDC is not limited by the nominal baud rate.
	UART_BAUD_RATE = 115200
)

// Stick and pot ADC pins in sample order: RUD, ELE, THR, AIL, P1, P2, P3.
var PIN_ANALOG = [...]machine.Pin{
	machine.A0, machine.A1, machine.A2, machine.A3,
	machine.A4, machine.A5, machine.A6,
}

var PIN_BATTERY = machine.A7

// Switch pins, active low with pull-ups. Index i is switch id i+1:
// THR, RUD, ELE, ID0, ID1, ID2, AIL, GEA, TRN.
var PIN_SWITCHES = [...]machine.Pin{
	machine.D22, machine.D23, machine.D24, machine.D25, machine.D26,
	machine.D27, machine.D28, machine.D29, machine.D30,
}
