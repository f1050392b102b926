package payments

import (
	"strconv"
	"strings"

	"github.com/jirivrbic-boss/extroworld/pkg/types"
)

// Metadata keys written on payment intents. Reconciliation reads them back.
const (
	MetaUserID         = "userId"
	MetaShippingMethod = "shippingMethod"
	MetaDiscountCode   = "discountCode"
	MetaDiscount       = "discountPercent"
)

// buildMetadata flattens the order context into processor metadata. Empty
// values are left out.
func buildMetadata(c Checkout) map[string]string {
	req := c.Request
	out := map[string]string{}
	put := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			out[key] = value
		}
	}

	put(MetaUserID, req.UserID)
	put(MetaShippingMethod, string(req.ShippingMethod))
	if c.Discount.Percent > 0 {
		put(MetaDiscountCode, c.Discount.Code)
		put(MetaDiscount, strconv.Itoa(c.Discount.Percent))
	}

	if pp := req.PickupPoint; pp != nil && req.ShippingMethod.RequiresPickupPoint() {
		put("packetaId", pp.ID)
		put("packetaName", pp.Name)
		put("packetaStreet", pp.Street)
		put("packetaCity", pp.City)
		put("packetaZip", pp.Zip)
	}

	put("c_firstName", req.Customer.FirstName)
	put("c_lastName", req.Customer.LastName)
	put("c_email", req.Customer.Email)
	put("c_phone", req.Customer.Phone)

	putAddress(put, "b_", req.BillingAddress)
	putAddress(put, "s_", req.ShippingAddress)
	return out
}

func putAddress(put func(key, value string), prefix string, addr *types.Address) {
	if addr == nil {
		return
	}
	put(prefix+"street", addr.Street)
	put(prefix+"city", addr.City)
	put(prefix+"zip", addr.Zip)
	put(prefix+"country", addr.Country)
}
