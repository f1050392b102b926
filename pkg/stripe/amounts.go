package stripe

import "github.com/shopspring/decimal"

// minorUnitsPerMajor is the CZK haléř scale Stripe expects.
const minorUnitsPerMajor = 100

// ToMinor converts whole currency units to Stripe minor units.
func ToMinor(major int64) int64 {
	return major * minorUnitsPerMajor
}

// FromMinor converts Stripe minor units to whole currency units, rounding half up.
func FromMinor(minor int64) int64 {
	return decimal.New(minor, 0).
		Div(decimal.NewFromInt(minorUnitsPerMajor)).
		Round(0).
		IntPart()
}
