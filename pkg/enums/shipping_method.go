package enums

import "fmt"

// ShippingMethod is the delivery option chosen in the cart.
type ShippingMethod string

const (
	// ShippingMethodPickup delivers to a Zásilkovna/Packeta pickup point.
	ShippingMethodPickup  ShippingMethod = "zasilkovna"
	ShippingMethodAddress ShippingMethod = "address"
)

// DefaultShippingMethod is what a fresh cart starts with.
const DefaultShippingMethod = ShippingMethodPickup

var validShippingMethods = []ShippingMethod{
	ShippingMethodPickup,
	ShippingMethodAddress,
}

// String implements fmt.Stringer.
func (m ShippingMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known ShippingMethod.
func (m ShippingMethod) IsValid() bool {
	for _, candidate := range validShippingMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// RequiresPickupPoint reports whether checkout must carry a pickup point selection.
func (m ShippingMethod) RequiresPickupPoint() bool {
	return m == ShippingMethodPickup
}

// ParseShippingMethod converts raw input into a ShippingMethod.
func ParseShippingMethod(value string) (ShippingMethod, error) {
	for _, candidate := range validShippingMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipping method %q", value)
}
