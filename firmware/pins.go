//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS = 2   // ADC read interval in milliseconds
	NUM_SAMPLES        = 100 // Number of samples to average, one line every ~200ms
	WARMUP_SECONDS     = 20  // Heater settle time before the first line

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// The MQ-135 module swings 0-5V; a 10k/20k divider brings it under the 3.3V reference.
	DIVIDER_NUM = 3 // (R1+R2)
	DIVIDER_DEN = 2 // R2

	// MQ-135 analog output
	PIN_SENSOR = machine.A0

	// Status LED, lit while warming up
	PIN_LED = machine.LED

	// Serial configuration
	// Line format: "unix_micros,millivolts\n", e.g. "1234567890123456,1234\n" ~22 bytes.
	// 5 lines/sec is far below what 115200 baud carries.
	UART_BAUD_RATE = 115200
)
