package types

import "github.com/jirivrbic-boss/extroworld/pkg/enums"

// ShippingDetails snapshots where an order goes.
type ShippingDetails struct {
	Method      enums.ShippingMethod `json:"method"`
	PickupPoint *PickupPoint         `json:"pickupPoint,omitempty"`
	Address     *Address             `json:"address,omitempty"`
}
