//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"
)

var (
	adcSensor machine.ADC
	uart      = machine.UART0

	// ADC averaging - running sum and count
	sensorSum   uint32
	sensorCount int

	// Timing
	lastADCRead time.Time
	started     time.Time
)

func main() {
	PIN_LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_LED.High()

	// Configure ADC pin with highest resolution
	PIN_SENSOR.Configure(machine.PinConfig{Mode: machine.PinInput})
	adcSensor = machine.ADC{Pin: PIN_SENSOR}
	adcSensor.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	started = time.Now()
	lastADCRead = started

	for {
		now := time.Now()

		if now.Sub(lastADCRead) >= time.Duration(SAMPLE_INTERVAL_MS)*time.Millisecond {
			readSensorADC()
			lastADCRead = now
		}

		if sensorCount >= NUM_SAMPLES {
			if now.Sub(started) >= WARMUP_SECONDS*time.Second {
				PIN_LED.Low()
				outputAveragedValue(now)
			}
			sensorSum = 0
			sensorCount = 0
		}

		time.Sleep(100 * time.Microsecond)
	}
}

func readSensorADC() {
	// Get() is scaled to 16 bits regardless of the configured resolution.
	sensorSum += uint32(adcSensor.Get())
	sensorCount++
}

// millivolts converts a 16-bit ADC average to the voltage at the sensor output.
func millivolts(avg uint32) uint32 {
	return avg * ADC_REFERENCE_MV * DIVIDER_NUM / (65535 * DIVIDER_DEN)
}

func outputAveragedValue(now time.Time) {
	avg := sensorSum / uint32(sensorCount)

	// Output format: "unix_micros,millivolts\n"
	// Example: "1234567890123,1234\n"
	print(now.UnixNano() / 1000)
	print(",")
	print(millivolts(avg))
	print("\n")
}
