// Package units provides shared constants and validation for frequency units
package units

import "fmt"

// Unit constants
const (
	Hz  = "hz"
	KHz = "khz"
	MHz = "mhz"
	GHz = "ghz"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Hz, KHz, MHz, GHz}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "hz, khz, mhz, ghz"
}

// ConvertFrequency converts a frequency from hertz to the target units.
// The pipeline reports refined frequencies in Hz internally.
func ConvertFrequency(freqHz float64, targetUnits string) float64 {
	switch targetUnits {
	case KHz:
		return freqHz / 1e3
	case MHz:
		return freqHz / 1e6
	case GHz:
		return freqHz / 1e9
	case Hz:
		return freqHz // no conversion needed
	default:
		return freqHz // default to Hz if unknown unit
	}
}

// FormatFrequency renders a frequency in the target units with its suffix,
// e.g. "12.500 kHz".
func FormatFrequency(freqHz float64, targetUnits string) string {
	value := ConvertFrequency(freqHz, targetUnits)
	switch targetUnits {
	case KHz:
		return fmt.Sprintf("%.3f kHz", value)
	case MHz:
		return fmt.Sprintf("%.6f MHz", value)
	case GHz:
		return fmt.Sprintf("%.9f GHz", value)
	default:
		return fmt.Sprintf("%.3f Hz", value)
	}
}
