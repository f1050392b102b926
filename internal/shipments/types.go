package shipments

// Recipient is the parcel addressee.
type Recipient struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=32"`
	Company   string `json:"company,omitempty" validate:"omitempty,max=100"`
}

// ShipmentRequest describes one packet handed to the carrier.
type ShipmentRequest struct {
	OrderNumber   string    `json:"orderNumber" validate:"required,max=36"`
	PickupPointID string    `json:"pickupPointId" validate:"required"`
	Recipient     Recipient `json:"recipient"`
	// ValueCZK is the declared value for insurance.
	ValueCZK int64   `json:"valueCZK" validate:"gt=0"`
	WeightKg float64 `json:"weightKg" validate:"gte=0"`
	CodCZK   int64   `json:"codCZK,omitempty" validate:"gte=0"`
	Note     string  `json:"note,omitempty" validate:"omitempty,max=255"`
}

// ShipmentResult is what the carrier accepted.
type ShipmentResult struct {
	ShipmentID   string         `json:"shipmentId"`
	EndpointUsed string         `json:"endpointUsed"`
	Response     map[string]any `json:"response,omitempty"`
}

// OrderShipmentInput carries the parcel details an admin supplies when
// shipping an existing order.
type OrderShipmentInput struct {
	WeightKg float64 `json:"weightKg" validate:"gt=0,lte=30"`
	CodCZK   int64   `json:"codCZK,omitempty" validate:"gte=0"`
	Note     string  `json:"note,omitempty" validate:"omitempty,max=255"`
}
