package payments

import (
	"strings"

	"github.com/jirivrbic-boss/extroworld/pkg/enums"
	pkgerrors "github.com/jirivrbic-boss/extroworld/pkg/errors"
)

func validateRequest(req *CheckoutRequest) error {
	fields := map[string]any{}

	c := &req.Customer
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	if c.FirstName == "" {
		fields["customer.firstName"] = "required"
	}
	if c.LastName == "" {
		fields["customer.lastName"] = "required"
	}
	if c.Email == "" || !strings.Contains(c.Email, "@") {
		fields["customer.email"] = "valid email required"
	}

	if len(req.Items) == 0 {
		fields["items"] = "at least one item required"
	}
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		fields["discountPercent"] = "must be between 0 and 100"
	}

	if req.ShippingMethod == "" {
		req.ShippingMethod = enums.DefaultShippingMethod
	}
	switch {
	case !req.ShippingMethod.IsValid():
		fields["shippingMethod"] = "unknown shipping method"
	case req.ShippingMethod.RequiresPickupPoint():
		if req.PickupPoint == nil || strings.TrimSpace(req.PickupPoint.ID) == "" {
			fields["pickupPoint"] = "pickup point required"
		}
	default:
		if req.ShippingAddress == nil || !req.ShippingAddress.IsComplete() {
			fields["shippingAddress"] = "street, city and zip required"
		}
	}

	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout request").WithDetails(fields)
	}
	return nil
}
