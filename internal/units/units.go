// Package units provides shared constants and validation for temperature
// units. The device reports temperature tags (T0, T1, TH) in degrees
// Celsius; the API converts on the way out.
package units

// Unit constants
const (
	Celsius    = "celsius"
	Fahrenheit = "fahrenheit"
	Kelvin     = "kelvin"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Celsius, Fahrenheit, Kelvin}

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
	return "celsius, fahrenheit, kelvin"
}

// ConvertTemperature converts a temperature from degrees Celsius to the
// target units. Stored payload values are always Celsius.
func ConvertTemperature(tempC float64, targetUnits string) float64 {
	switch targetUnits {
	case Fahrenheit:
		return tempC*9/5 + 32
	case Kelvin:
		return tempC + 273.15
	case Celsius:
		return tempC // no conversion needed
	default:
		return tempC // default to Celsius if unknown unit
	}
}
