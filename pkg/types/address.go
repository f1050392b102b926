package types

import "strings"

// Address is a postal address captured at checkout.
type Address struct {
	Street  string `json:"street" validate:"omitempty,max=200"`
	City    string `json:"city" validate:"omitempty,max=120"`
	Zip     string `json:"zip" validate:"omitempty,max=20"`
	Country string `json:"country" validate:"omitempty,max=2"`
}

// IsComplete reports whether the address can be used for home delivery.
func (a Address) IsComplete() bool {
	return strings.TrimSpace(a.Street) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.Zip) != ""
}

// PickupPoint is the parcel locker or counter selected in the carrier widget.
type PickupPoint struct {
	ID     string `json:"id" validate:"required,max=64"`
	Name   string `json:"name" validate:"omitempty,max=200"`
	Street string `json:"street" validate:"omitempty,max=200"`
	City   string `json:"city" validate:"omitempty,max=120"`
	Zip    string `json:"zip" validate:"omitempty,max=20"`
}
