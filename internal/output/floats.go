package output

import (
	"math"
	"strconv"
	"strings"
)

// FloatPrecision is the number of decimal places kept in output.
const FloatPrecision = 6

// RoundFloat rounds a float to FloatPrecision decimal places
func RoundFloat(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	multiplier := math.Pow(10, FloatPrecision)
	return math.Round(f*multiplier) / multiplier
}

// FormatFloat formats a float with no trailing zeros
func FormatFloat(f float64) string {
	str := strconv.FormatFloat(RoundFloat(f), 'f', FloatPrecision, 64)
	str = strings.TrimRight(str, "0")
	str = strings.TrimRight(str, ".")
	if str == "-0" {
		return "0"
	}
	return str
}
